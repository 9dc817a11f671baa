package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"planwise/internal/domain"
)

// ModifyTask interprets an update/delete request and applies it to the
// first matching task of the project. The match is a case-insensitive
// substring test against content and description, in creation order.
// Misses and unknown actions come back as unsuccessful results so the
// caller can narrate them; only infrastructure failures are errors.
func (a *Agent) ModifyTask(ctx context.Context, request, projectID, modContext string) (*ModificationResult, error) {
	if modContext == "" {
		modContext = "Project ID: " + projectID
	}
	intent, err := a.gen.InterpretModification(ctx, request, modContext)
	if err != nil {
		return nil, err
	}

	tasks, err := a.store.ListTasksByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	target := findTask(tasks, intent.TargetTaskName)
	if target == nil {
		return &ModificationResult{
			Success: false,
			Message: fmt.Sprintf("Could not find task matching '%s'", strings.ToLower(intent.TargetTaskName)),
		}, nil
	}

	switch intent.Action {
	case "update":
		updated, err := a.store.UpdateTaskFields(ctx, target.ID, intent.Updates, a.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return nil, fmt.Errorf("update task: %w", err)
		}
		return &ModificationResult{
			Success: true,
			Action:  "update",
			Task:    &updated,
			Message: fmt.Sprintf("Updated task '%s'", updated.Content),
		}, nil
	case "delete":
		if _, err := a.store.DeleteTask(ctx, target.ID); err != nil {
			return nil, fmt.Errorf("delete task: %w", err)
		}
		return &ModificationResult{
			Success: true,
			Action:  "delete",
			Task:    target,
			Message: fmt.Sprintf("Deleted task '%s'", target.Content),
		}, nil
	}
	return &ModificationResult{Success: false, Message: "Unknown action"}, nil
}

func findTask(tasks []domain.Task, targetName string) *domain.Task {
	needle := strings.ToLower(targetName)
	for i := range tasks {
		content := strings.ToLower(tasks[i].Content)
		description := strings.ToLower(tasks[i].Description)
		if strings.Contains(content, needle) || strings.Contains(description, needle) {
			return &tasks[i]
		}
	}
	return nil
}
