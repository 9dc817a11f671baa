package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"planwise/internal/llm"
	"planwise/internal/repo"
)

// rule binds a capability to its trigger phrases. Order matters: rules
// are evaluated top to bottom and the first phrase hit wins, so the
// more specific intents sit above the broad ones.
type rule struct {
	capability Capability
	keywords   []string
}

var rules = []rule{
	{CapCreateProject, []string{"create project", "new project", "generate plan"}},
	{CapCreateTasks, []string{"create tasks", "generate tasks", "to do list", "todo list", "tasks for"}},
	{CapModifyTask, []string{"update", "change", "move", "delete", "remove", "reassign"}},
	{CapProjectHealth, []string{"health", "status", "how is the project", "progress", "burnout"}},
	{CapCreateTask, []string{"add task", "create task", "new task", "task for", "create a task", "add a task"}},
	{CapBreakdownTask, []string{"break down", "breakdown", "split", "subtasks for"}},
	{CapGenerateEstimates, []string{"estimate", "how long", "time needed", "cost"}},
	{CapPrioritizeBacklog, []string{"prioritize", "priority", "order backlog", "rank"}},
}

// Classify maps a prompt to a capability by substring match over the
// lower-cased text. Pure; anything that matches nothing becomes a
// fresh plan generation.
func Classify(prompt string) Capability {
	p := strings.ToLower(prompt)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(p, kw) {
				return r.capability
			}
		}
	}
	return CapGeneratePlan
}

// Agent routes natural-language commands to the matching capability.
// Safe for concurrent use; Now and NewID are injectable for tests.
type Agent struct {
	backend llm.Client
	store   repo.Repo
	gen     *Generator
	exec    *Executor
	log     *zap.Logger

	Now   func() time.Time
	NewID func() string
}

func New(backend llm.Client, store repo.Repo, log *zap.Logger) *Agent {
	a := &Agent{
		backend: backend,
		store:   store,
		log:     log,
		Now:     time.Now,
		NewID:   uuid.NewString,
	}
	a.gen = NewGenerator(backend, log)
	a.exec = NewExecutor(store,
		func() time.Time { return a.Now() },
		func() string { return a.NewID() },
	)
	return a
}

// Execute classifies the prompt and runs the matching capability,
// returning the unified response shape.
func (a *Agent) Execute(ctx context.Context, req Request) (*Response, error) {
	rc := req.Context
	if rc == nil {
		rc = &RequestContext{}
	}
	capability := Classify(req.Prompt)
	a.log.Info("routing command", zap.String("capability", string(capability)))

	switch capability {
	case CapCreateProject:
		return a.planAndExecute(ctx, req, rc.Constraints, CapCreateProject)

	case CapCreateTasks:
		if rc.ProjectID == "" {
			// No active project: fall back to spinning up a whole one.
			return a.planAndExecute(ctx, req, nil, CapCreateProject)
		}
		return a.createTasks(ctx, req, rc, CapCreateTasks)

	case CapModifyTask:
		if rc.ProjectID == "" {
			return nil, &MissingContextError{Capability: CapModifyTask, Field: "project_id"}
		}
		result, err := a.ModifyTask(ctx, req.Prompt, rc.ProjectID, "Project ID: "+rc.ProjectID)
		if err != nil {
			return nil, err
		}
		action := result.Action
		if action == "" {
			action = string(CapModifyTask)
		}
		message := a.gen.Summarize(ctx, action, result, req.Prompt)
		return &Response{
			Success: result.Success,
			Action:  action,
			Result:  result,
			Message: message,
		}, nil

	case CapProjectHealth:
		if rc.ProjectID == "" {
			return nil, &MissingContextError{Capability: CapProjectHealth, Field: "project_id"}
		}
		tasks, err := a.store.ListTasksByProject(ctx, rc.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		snapshot := AnalyzeHealth(tasks)
		message := a.gen.Summarize(ctx, string(CapProjectHealth), snapshot, req.Prompt)
		return &Response{
			Success: true,
			Action:  string(CapProjectHealth),
			Result:  snapshot,
			Message: message,
		}, nil

	case CapCreateTask:
		if rc.ProjectID == "" {
			return nil, &MissingContextError{Capability: CapCreateTask, Field: "project_id"}
		}
		return a.createTasks(ctx, req, rc, CapCreateTask)

	case CapBreakdownTask:
		breakdown, err := a.gen.BreakdownTask(ctx, req.Prompt, rc.Level, rc.AdditionalContext)
		if err != nil {
			return nil, err
		}
		return &Response{
			Success: true,
			Action:  string(CapBreakdownTask),
			Result:  map[string]any{"breakdown": breakdown},
			Message: fmt.Sprintf("Generated %d subtasks", len(breakdown.Subtasks)),
		}, nil

	case CapGenerateEstimates:
		if len(rc.Tasks) == 0 {
			return &Response{
				Success: false,
				Action:  string(CapGenerateEstimates),
				Result:  map[string]any{},
				Message: "Please provide tasks in context for estimation",
			}, nil
		}
		report, err := a.gen.GenerateEstimates(ctx, rc.Tasks, rc.TeamInfo, rc.HourlyRate)
		if err != nil {
			return nil, err
		}
		return &Response{
			Success: true,
			Action:  string(CapGenerateEstimates),
			Result:  map[string]any{"estimates": report},
			Message: fmt.Sprintf("Generated estimates for %d tasks", len(rc.Tasks)),
		}, nil

	case CapPrioritizeBacklog:
		if rc.ProjectID == "" {
			return nil, &MissingContextError{Capability: CapPrioritizeBacklog, Field: "project_id"}
		}
		goals := rc.Goals
		if goals == "" {
			goals = req.Prompt
		}
		prioritization, err := a.gen.PrioritizeBacklog(ctx, rc.Backlog, goals, rc.Capacity)
		if err != nil {
			return nil, err
		}
		return &Response{
			Success: true,
			Action:  string(CapPrioritizeBacklog),
			Result:  map[string]any{"prioritization": prioritization},
			Message: fmt.Sprintf("Prioritized %d backlog items", len(rc.Backlog)),
		}, nil
	}

	return a.planAndExecute(ctx, req, nil, CapGeneratePlan)
}

// planAndExecute generates a plan from the prompt and materializes it.
func (a *Agent) planAndExecute(ctx context.Context, req Request, constraints map[string]any, action Capability) (*Response, error) {
	plan, err := a.gen.GeneratePlan(ctx, req.Prompt, constraints)
	if err != nil {
		return nil, err
	}
	execution, err := a.exec.ExecutePlan(ctx, plan)
	if err != nil {
		return nil, err
	}
	result := map[string]any{
		"project":         execution.Project,
		"tasks_created":   execution.TasksCreated,
		"sprints_created": execution.SprintsCreated,
	}
	message := a.gen.Summarize(ctx, string(action), result, req.Prompt)
	return &Response{
		Success:          true,
		Action:           string(action),
		Result:           result,
		Message:          message,
		ExecutionDetails: execution,
	}, nil
}

// createTasks runs the task-list generator against an existing project
// and stores the drafts. A clarification question from the generator
// short-circuits without touching the store.
func (a *Agent) createTasks(ctx context.Context, req Request, rc *RequestContext, action Capability) (*Response, error) {
	taskList, err := a.gen.GenerateTaskList(ctx, req.Prompt, a.projectContext(ctx, rc.ProjectID), req.History, rc.TeamMembers)
	if err != nil {
		return nil, err
	}
	if taskList.Question != "" {
		return &Response{
			Success: true,
			Action:  actionClarificationNeeded,
			Result:  map[string]any{"question": taskList.Question},
			Message: taskList.Question,
		}, nil
	}
	created, err := a.exec.CreateDrafts(ctx, rc.ProjectID, taskList.Tasks)
	if err != nil {
		return nil, err
	}
	result := map[string]any{"tasks": created}
	message := a.gen.Summarize(ctx, string(action), result, req.Prompt)
	return &Response{
		Success:          true,
		Action:           string(action),
		Result:           result,
		Message:          message,
		ExecutionDetails: map[string]any{"tasks_created": len(created)},
	}, nil
}

// projectContext renders a short description of the target project for
// prompt building. A missing project degrades to its bare id.
func (a *Agent) projectContext(ctx context.Context, projectID string) string {
	project, err := a.store.GetProject(ctx, projectID)
	if err != nil {
		return "Project ID: " + projectID
	}
	return fmt.Sprintf("Project: %s\nDescription: %s", project.Name, project.Description)
}

// CapabilityInfo documents one capability for discovery endpoints.
type CapabilityInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Example     string   `json:"example"`
}

// Capabilities lists what the agent can do.
func Capabilities() []CapabilityInfo {
	return []CapabilityInfo{
		{
			Name:        "Project Generation",
			Description: "Auto-generate complete project plans from briefs",
			Keywords:    []string{"create project", "new project", "build", "develop"},
			Example:     "Create a mobile fitness tracking app",
		},
		{
			Name:        "Task Creation",
			Description: "Create individual tasks from descriptions",
			Keywords:    []string{"add task", "create task", "new task"},
			Example:     "Add a task to implement user authentication",
		},
		{
			Name:        "Task Modification",
			Description: "Update or delete tasks from natural language",
			Keywords:    []string{"update", "change", "delete", "reassign"},
			Example:     "Move the login task to Done",
		},
		{
			Name:        "Task Breakdown",
			Description: "Break high-level tasks into subtasks",
			Keywords:    []string{"break down", "breakdown", "split", "subtasks"},
			Example:     "Break down the payment integration epic",
		},
		{
			Name:        "Estimation",
			Description: "Generate time and cost estimates",
			Keywords:    []string{"estimate", "how long", "time needed", "cost"},
			Example:     "Estimate time for implementing auth system",
		},
		{
			Name:        "Backlog Prioritization",
			Description: "Prioritize backlog items by value/impact",
			Keywords:    []string{"prioritize", "priority", "order", "rank"},
			Example:     "Prioritize my backlog for Q1",
		},
		{
			Name:        "Health Summary",
			Description: "Generate project health reports",
			Keywords:    []string{"health", "status", "summary", "progress"},
			Example:     "How is the mobile app project doing?",
		},
	}
}

// Status reports whether the generative backend is usable.
type Status struct {
	Enabled           bool   `json:"enabled"`
	Model             string `json:"model,omitempty"`
	Endpoint          string `json:"endpoint"`
	CapabilitiesCount int    `json:"capabilities_count"`
}

func (a *Agent) Status() Status {
	s := Status{
		Enabled:           a.backend.Enabled(),
		Endpoint:          "/agent/execute",
		CapabilitiesCount: len(Capabilities()),
	}
	if s.Enabled {
		s.Model = a.backend.Model()
	}
	return s
}
