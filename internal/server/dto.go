package server

import "planwise/internal/domain"

// Request payloads

type CreateProjectRequest struct {
	Name        string  `json:"name"`
	Key         string  `json:"key,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
}

type UpdateProjectRequest struct {
	Status      string  `json:"status,omitempty" enum:"active,archived,on_hold"`
	Description *string `json:"description,omitempty"`
}

type CreateTaskRequest struct {
	Content        string   `json:"content"`
	Description    string   `json:"description,omitempty"`
	Priority       string   `json:"priority,omitempty" enum:"high,medium,low"`
	Assignee       *string  `json:"assignee,omitempty"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty"`
	SprintID       *string  `json:"sprint_id,omitempty"`
	ParentID       *string  `json:"parent_id,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

type UpdateTaskRequest struct {
	Fields map[string]any `json:"fields" jsonschema:"type=object,additionalProperties=true"`
}

type CreateSprintRequest struct {
	Name string `json:"name"`
	Goal string `json:"goal,omitempty"`
}

// Responses reuse the domain shapes directly; the store already speaks
// the wire representation.

type ProjectResponse = domain.Project
type TaskResponse = domain.Task
type SprintResponse = domain.Sprint
