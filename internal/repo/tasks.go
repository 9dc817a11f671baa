package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"planwise/internal/domain"
)

const taskColumns = `id,project_id,sprint_id,parent_id,content,description,status,priority,assignee,estimated_hours,logged_hours,tags_json,created_by,created_at,updated_at`

type taskScanner interface {
	Scan(dest ...any) error
}

func scanTask(row taskScanner) (domain.Task, error) {
	var t domain.Task
	var sprintID, parentID, desc, assignee, tags, createdBy sql.NullString
	var estimated sql.NullFloat64
	err := row.Scan(&t.ID, &t.ProjectID, &sprintID, &parentID, &t.Content, &desc, &t.Status, &t.Priority,
		&assignee, &estimated, &t.LoggedHours, &tags, &createdBy, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.Description = desc.String
	t.CreatedBy = createdBy.String
	if sprintID.Valid {
		t.SprintID = &sprintID.String
	}
	if parentID.Valid {
		t.ParentID = &parentID.String
	}
	if assignee.Valid {
		t.Assignee = &assignee.String
	}
	if estimated.Valid {
		t.EstimatedHours = &estimated.Float64
	}
	if tags.Valid {
		if err := json.Unmarshal([]byte(tags.String), &t.Tags); err != nil {
			return t, fmt.Errorf("tags_json: %w", err)
		}
	}
	return t, nil
}

func (r Repo) InsertTask(ctx context.Context, t domain.Task) error {
	tags, err := marshalStringSlice(t.Tags)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.ProjectID, nullableStringPtr(t.SprintID), nullableStringPtr(t.ParentID), t.Content, nullable(t.Description),
		t.Status, t.Priority, nullableStringPtr(t.Assignee), nullableFloatPtr(t.EstimatedHours), t.LoggedHours,
		nullableStringPtr(tags), nullable(t.CreatedBy), t.CreatedAt, t.UpdatedAt)
	return err
}

func (r Repo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return scanTask(r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id))
}

// ListTasksByProject returns a project's tasks in creation order. The
// modification resolver relies on this ordering being stable: its
// first-match rule means "first created" because of it.
func (r Repo) ListTasksByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id=? ORDER BY created_at ASC, id ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// taskFieldColumns maps updatable field names to their columns. Anything
// outside this map is silently dropped, mirroring how advisory model
// output is consumed elsewhere: unknown fields are ignored, not errors.
var taskFieldColumns = map[string]string{
	"content":         "content",
	"name":            "content",
	"description":     "description",
	"status":          "status",
	"priority":        "priority",
	"assignee":        "assignee",
	"sprint_id":       "sprint_id",
	"estimated_hours": "estimated_hours",
	"logged_hours":    "logged_hours",
}

// UpdateTaskFields merges a field map onto a task's mutable columns and
// returns the updated row.
func (r Repo) UpdateTaskFields(ctx context.Context, id string, fields map[string]any, updatedAt string) (domain.Task, error) {
	var (
		sets []string
		args []any
	)
	for name, value := range fields {
		col, ok := taskFieldColumns[name]
		if !ok {
			continue
		}
		sets = append(sets, col+"=?")
		args = append(args, value)
	}
	if len(sets) == 0 {
		return r.GetTask(ctx, id)
	}
	sets = append(sets, "updated_at=?")
	args = append(args, updatedAt, id)
	res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE tasks SET %s WHERE id=?`, strings.Join(sets, ",")), args...)
	if err != nil {
		return domain.Task{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Task{}, ErrNotFound
	}
	return r.GetTask(ctx, id)
}

// DeleteTask removes a task. Returns false (no error) when it did not exist.
func (r Repo) DeleteTask(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
