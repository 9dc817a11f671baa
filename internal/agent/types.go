// Package agent turns natural-language project-management commands into
// concrete operations: intent classification, plan generation through a
// generative backend, and execution against the entity store.
package agent

import "planwise/internal/domain"

// Capability identifies one supported agent operation.
type Capability string

const (
	CapCreateProject     Capability = "create_project"
	CapCreateTasks       Capability = "create_tasks"
	CapModifyTask        Capability = "modify_task"
	CapProjectHealth     Capability = "project_health"
	CapCreateTask        Capability = "create_task"
	CapBreakdownTask     Capability = "breakdown_task"
	CapGenerateEstimates Capability = "generate_estimates"
	CapPrioritizeBacklog Capability = "prioritize_backlog"
	CapGeneratePlan      Capability = "generate_plan"

	actionClarificationNeeded = "clarification_needed"
)

// Message is one turn of prior conversation, passed back by the caller.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Member describes a team member available for assignment.
type Member struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role,omitempty"`
	Status string `json:"status,omitempty"`
}

// RequestContext carries the optional structured context of a command.
type RequestContext struct {
	ProjectID         string           `json:"project_id,omitempty"`
	Constraints       map[string]any   `json:"constraints,omitempty"`
	TeamMembers       []Member         `json:"team_members,omitempty"`
	Tasks             []map[string]any `json:"tasks,omitempty"`
	TeamInfo          string           `json:"team_info,omitempty"`
	HourlyRate        float64          `json:"hourly_rate,omitempty"`
	Level             string           `json:"level,omitempty"`
	AdditionalContext string           `json:"additional_context,omitempty"`
	Backlog           []map[string]any `json:"backlog,omitempty"`
	Goals             string           `json:"goals,omitempty"`
	Capacity          int              `json:"capacity,omitempty"`
}

// Request is the single entry point payload for every capability.
type Request struct {
	Prompt  string          `json:"prompt"`
	Context *RequestContext `json:"context,omitempty"`
	History []Message       `json:"history,omitempty"`
}

// Response is the unified result shape shared by all capabilities.
type Response struct {
	Success          bool   `json:"success"`
	Action           string `json:"action"`
	Result           any    `json:"result"`
	Message          string `json:"message"`
	ExecutionDetails any    `json:"execution_details,omitempty"`
}

// Plan is the structured project plan produced by the backend.
type Plan struct {
	ProjectName   string      `json:"project_name"`
	Key           string      `json:"key,omitempty"`
	Overview      string      `json:"overview"`
	Objectives    []string    `json:"objectives,omitempty"`
	Milestones    []Milestone `json:"milestones,omitempty"`
	Tasks         []PlanTask  `json:"tasks,omitempty"`
	Epics         []PlanTask  `json:"epics,omitempty"`
	Risks         []Risk      `json:"risks,omitempty"`
	TimelineWeeks float64     `json:"timeline_weeks,omitempty"`
	TeamSize      int         `json:"team_size,omitempty"`
}

type Milestone struct {
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	DurationWeeks float64  `json:"duration_weeks,omitempty"`
	Deliverables  []string `json:"deliverables,omitempty"`
}

type PlanTask struct {
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	Priority       string  `json:"priority,omitempty"`
	EstimatedHours float64 `json:"estimated_hours,omitempty"`
	Milestone      string  `json:"milestone,omitempty"`
}

type Risk struct {
	Risk       string `json:"risk"`
	Severity   string `json:"severity,omitempty"`
	Mitigation string `json:"mitigation,omitempty"`
}

// Breakdown is the subtask decomposition of a single high-level task.
type Breakdown struct {
	Subtasks            []Subtask `json:"subtasks"`
	TotalEstimatedHours float64   `json:"total_estimated_hours,omitempty"`
	CriticalPath        []string  `json:"critical_path,omitempty"`
}

type Subtask struct {
	Name               string   `json:"name"`
	Description        string   `json:"description,omitempty"`
	EstimatedHours     float64  `json:"estimated_hours,omitempty"`
	Priority           string   `json:"priority,omitempty"`
	Dependencies       []string `json:"dependencies,omitempty"`
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty"`
}

// EstimateReport holds per-task time and cost estimates.
type EstimateReport struct {
	Estimates  []Estimate `json:"estimates"`
	TotalHours float64    `json:"total_hours,omitempty"`
	TotalCost  float64    `json:"total_cost,omitempty"`
}

type Estimate struct {
	TaskID         string   `json:"task_id"`
	EstimatedHours float64  `json:"estimated_hours"`
	Cost           float64  `json:"cost,omitempty"`
	Confidence     string   `json:"confidence,omitempty"`
	SkillRequired  string   `json:"skill_required,omitempty"`
	Risks          []string `json:"risks,omitempty"`
}

// Prioritization ranks backlog items by value and strategy.
type Prioritization struct {
	PrioritizedBacklog   []RankedItem `json:"prioritized_backlog"`
	SprintRecommendation []string     `json:"sprint_recommendation,omitempty"`
}

type RankedItem struct {
	TaskID                string  `json:"task_id"`
	Rank                  int     `json:"rank"`
	Rationale             string  `json:"rationale,omitempty"`
	EstimatedValue        float64 `json:"estimated_value,omitempty"`
	ShouldIncludeInSprint bool    `json:"should_include_in_sprint,omitempty"`
}

// TaskListResult is either a list of task drafts or a clarification
// question, never both.
type TaskListResult struct {
	Question string      `json:"question,omitempty"`
	Tasks    []TaskDraft `json:"tasks,omitempty"`
}

type TaskDraft struct {
	Name                string   `json:"name"`
	Description         string   `json:"description,omitempty"`
	Priority            string   `json:"priority,omitempty"`
	EstimatedHours      *float64 `json:"estimated_hours,omitempty"`
	Assignee            string   `json:"assignee,omitempty"`
	AssignmentReasoning string   `json:"assignment_reasoning,omitempty"`
	SubTasks            []string `json:"sub_tasks,omitempty"`
}

// ModificationIntent is the backend's interpretation of an update or
// delete request.
type ModificationIntent struct {
	Action         string         `json:"action"`
	TargetTaskName string         `json:"target_task_name"`
	Updates        map[string]any `json:"updates,omitempty"`
}

// ModificationResult reports the outcome of a modification. Not-found
// and unknown-action come back as unsuccessful results, not errors.
type ModificationResult struct {
	Success bool         `json:"success"`
	Action  string       `json:"action,omitempty"`
	Task    *domain.Task `json:"task,omitempty"`
	Message string       `json:"message"`
}

// HealthReport is the backend-written weekly health narrative.
type HealthReport struct {
	HealthStatus       string    `json:"health_status"`
	ProgressPercentage float64   `json:"progress_percentage,omitempty"`
	OnTrack            bool      `json:"on_track,omitempty"`
	Blockers           []Blocker `json:"blockers,omitempty"`
	Risks              []string  `json:"risks,omitempty"`
	Velocity           float64   `json:"velocity,omitempty"`
	UpcomingMilestones []string  `json:"upcoming_milestones,omitempty"`
	Recommendations    []string  `json:"recommendations,omitempty"`
	Summary            string    `json:"summary,omitempty"`
}

type Blocker struct {
	Task     string `json:"task"`
	Blocker  string `json:"blocker"`
	Severity string `json:"severity,omitempty"`
}

// ExecutionResult summarizes what a plan execution created.
type ExecutionResult struct {
	Success        bool            `json:"success"`
	Project        domain.Project  `json:"project"`
	ProjectID      string          `json:"project_id"`
	TasksCreated   int             `json:"tasks_created"`
	SprintsCreated int             `json:"sprints_created"`
	Tasks          []domain.Task   `json:"tasks"`
	Sprints        []domain.Sprint `json:"sprints"`
}
