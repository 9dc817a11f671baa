package domain

type Project struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Key         string   `json:"key"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status" enum:"active,archived,on_hold"`
	Category    string   `json:"category,omitempty"`
	BoardConfig string   `json:"board_config_json,omitempty"`
	Members     []string `json:"members,omitempty"`
	CreatedAt   string   `json:"created_at" format:"date-time"`
}

type Task struct {
	ID             string   `json:"id"`
	ProjectID      string   `json:"project_id"`
	SprintID       *string  `json:"sprint_id,omitempty"`
	ParentID       *string  `json:"parent_id,omitempty"`
	Content        string   `json:"content"`
	Description    string   `json:"description,omitempty"`
	Status         string   `json:"status"`
	Priority       string   `json:"priority" enum:"high,medium,low"`
	Assignee       *string  `json:"assignee,omitempty"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty"`
	LoggedHours    float64  `json:"logged_hours"`
	Tags           []string `json:"tags,omitempty"`
	CreatedBy      string   `json:"created_by,omitempty"`
	CreatedAt      string   `json:"created_at" format:"date-time"`
	UpdatedAt      string   `json:"updated_at" format:"date-time"`
}

type Sprint struct {
	ID        string   `json:"id"`
	ProjectID string   `json:"project_id"`
	Name      string   `json:"name"`
	Goal      string   `json:"goal,omitempty"`
	Status    string   `json:"status" enum:"planned,active,completed"`
	TaskIDs   []string `json:"task_ids,omitempty"`
	Velocity  int      `json:"velocity"`
	CreatedAt string   `json:"created_at" format:"date-time"`
}
