package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"planwise/internal/domain"
	"planwise/internal/repo"
)

const defaultBoardConfig = `{"columns":{},"column_order":[],"swimlane_group_by":"none"}`

// Executor materializes a generated plan as stored entities. Every
// create commits on its own: a failure partway through leaves the
// earlier entities in place, and the error names what was reached.
type Executor struct {
	store repo.Repo
	now   func() time.Time
	newID func() string
}

func NewExecutor(store repo.Repo, now func() time.Time, newID func() string) *Executor {
	return &Executor{store: store, now: now, newID: newID}
}

// projectKey derives a board key from the plan name plus a timestamp
// suffix so repeated runs never collide on the unique key column.
func (e *Executor) projectKey(name string) string {
	base := strings.ToUpper(name)
	if runes := []rune(base); len(runes) > 4 {
		base = string(runes[:4])
	}
	if base == "" {
		base = "PROJ"
	}
	return fmt.Sprintf("%s%d", base, e.now().Unix()%10000)
}

// ExecutePlan creates the project, one sprint per milestone and one
// task per plan task. When the plan carries no tasks the epics stand in
// for them.
func (e *Executor) ExecutePlan(ctx context.Context, plan *Plan) (*ExecutionResult, error) {
	stamp := e.now().UTC().Format(time.RFC3339)

	key := plan.Key
	if key == "" {
		key = e.projectKey(plan.ProjectName)
	}
	project := domain.Project{
		ID:          e.newID(),
		Name:        plan.ProjectName,
		Key:         key,
		Description: plan.Overview,
		Status:      "active",
		Category:    "ai-generated",
		BoardConfig: defaultBoardConfig,
		CreatedAt:   stamp,
	}
	if err := e.store.InsertProject(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	result := &ExecutionResult{
		Success:   true,
		Project:   project,
		ProjectID: project.ID,
		Tasks:     []domain.Task{},
		Sprints:   []domain.Sprint{},
	}

	for _, m := range plan.Milestones {
		sprint := domain.Sprint{
			ID:        e.newID(),
			ProjectID: project.ID,
			Name:      m.Name,
			Goal:      m.Description,
			Status:    "planned",
			CreatedAt: stamp,
		}
		if err := e.store.InsertSprint(ctx, sprint); err != nil {
			return nil, fmt.Errorf("create sprint %q: %w", m.Name, err)
		}
		result.Sprints = append(result.Sprints, sprint)
	}

	planTasks := plan.Tasks
	if len(planTasks) == 0 {
		planTasks = plan.Epics
	}
	for _, pt := range planTasks {
		task := domain.Task{
			ID:          e.newID(),
			ProjectID:   project.ID,
			Content:     pt.Name,
			Description: pt.Description,
			Status:      "To Do",
			Priority:    defaultPriority(pt.Priority),
			Tags:        []string{"ai-generated"},
			CreatedBy:   "pm-ai-agent",
			CreatedAt:   stamp,
			UpdatedAt:   stamp,
		}
		if pt.EstimatedHours > 0 {
			hours := pt.EstimatedHours
			task.EstimatedHours = &hours
		}
		if err := e.store.InsertTask(ctx, task); err != nil {
			return nil, fmt.Errorf("create task %q: %w", pt.Name, err)
		}
		result.Tasks = append(result.Tasks, task)
	}

	result.SprintsCreated = len(result.Sprints)
	result.TasksCreated = len(result.Tasks)
	return result, nil
}

// CreateDrafts stores task drafts under an existing project, including
// any sub-tasks nested beneath their parent. Assignment reasoning is
// folded into the description so the board shows it.
func (e *Executor) CreateDrafts(ctx context.Context, projectID string, drafts []TaskDraft) ([]domain.Task, error) {
	stamp := e.now().UTC().Format(time.RFC3339)
	created := []domain.Task{}
	for _, draft := range drafts {
		description := draft.Description
		if draft.AssignmentReasoning != "" {
			description += "\n\nAI Reasoning: " + draft.AssignmentReasoning
		}
		task := domain.Task{
			ID:             e.newID(),
			ProjectID:      projectID,
			Content:        draft.Name,
			Description:    description,
			Status:         "To Do",
			Priority:       defaultPriority(draft.Priority),
			EstimatedHours: draft.EstimatedHours,
			Tags:           []string{"ai-generated"},
			CreatedBy:      "pm-ai-agent",
			CreatedAt:      stamp,
			UpdatedAt:      stamp,
		}
		if draft.Assignee != "" {
			assignee := draft.Assignee
			task.Assignee = &assignee
		}
		if err := e.store.InsertTask(ctx, task); err != nil {
			return created, fmt.Errorf("create task %q: %w", draft.Name, err)
		}
		for _, subName := range draft.SubTasks {
			parentID := task.ID
			sub := domain.Task{
				ID:        e.newID(),
				ProjectID: projectID,
				ParentID:  &parentID,
				Content:   subName,
				Status:    "To Do",
				Priority:  defaultPriority(draft.Priority),
				Tags:      []string{"ai-generated", "subtask"},
				CreatedBy: "pm-ai-agent",
				CreatedAt: stamp,
				UpdatedAt: stamp,
			}
			if err := e.store.InsertTask(ctx, sub); err != nil {
				return created, fmt.Errorf("create subtask %q: %w", subName, err)
			}
		}
		created = append(created, task)
	}
	return created, nil
}

func defaultPriority(p string) string {
	if p == "" {
		return "medium"
	}
	return p
}
