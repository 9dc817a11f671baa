package agent

import "planwise/internal/domain"

// overloadThreshold is the open-task count past which an assignee is
// flagged as overloaded.
const overloadThreshold = 5

// HealthSnapshot is the heuristic health view computed locally, without
// calling the generative backend.
type HealthSnapshot struct {
	Status            string   `json:"status,omitempty"`
	TotalTasks        int      `json:"total_tasks"`
	CompletionRate    int      `json:"completion_rate"`
	InProgress        int      `json:"in_progress"`
	OverloadedMembers []string `json:"overloaded_members"`
	BurnoutRisk       string   `json:"burnout_risk,omitempty"`
}

// AnalyzeHealth computes completion and workload metrics from a task
// slice. A project with no tasks reports status "empty".
func AnalyzeHealth(tasks []domain.Task) HealthSnapshot {
	if len(tasks) == 0 {
		return HealthSnapshot{Status: "empty", OverloadedMembers: []string{}}
	}

	var completed, inProgress int
	openByAssignee := map[string]int{}
	order := []string{}
	for _, t := range tasks {
		switch t.Status {
		case "Done":
			completed++
			continue
		case "In Progress":
			inProgress++
		}
		if t.Assignee != nil && *t.Assignee != "" {
			if _, seen := openByAssignee[*t.Assignee]; !seen {
				order = append(order, *t.Assignee)
			}
			openByAssignee[*t.Assignee]++
		}
	}

	overloaded := []string{}
	for _, assignee := range order {
		if openByAssignee[assignee] > overloadThreshold {
			overloaded = append(overloaded, assignee)
		}
	}

	risk := "Low"
	if len(overloaded) > 0 {
		risk = "High"
	}
	return HealthSnapshot{
		TotalTasks:        len(tasks),
		CompletionRate:    completed * 100 / len(tasks),
		InProgress:        inProgress,
		OverloadedMembers: overloaded,
		BurnoutRisk:       risk,
	}
}
