package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"planwise/internal/domain"
)

func (r Repo) InsertSprint(ctx context.Context, s domain.Sprint) error {
	taskIDs, err := marshalStringSlice(s.TaskIDs)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `INSERT INTO sprints(id,project_id,name,goal,status,task_ids_json,velocity,created_at) VALUES (?,?,?,?,?,?,?,?)`,
		s.ID, s.ProjectID, s.Name, nullable(s.Goal), s.Status, nullableStringPtr(taskIDs), s.Velocity, s.CreatedAt)
	return err
}

func (r Repo) GetSprint(ctx context.Context, id string) (domain.Sprint, error) {
	var s domain.Sprint
	var goal, taskIDs sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT id,project_id,name,goal,status,task_ids_json,velocity,created_at FROM sprints WHERE id=?`, id).
		Scan(&s.ID, &s.ProjectID, &s.Name, &goal, &s.Status, &taskIDs, &s.Velocity, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	if err != nil {
		return s, err
	}
	s.Goal = goal.String
	if taskIDs.Valid {
		if err := json.Unmarshal([]byte(taskIDs.String), &s.TaskIDs); err != nil {
			return s, fmt.Errorf("task_ids_json: %w", err)
		}
	}
	return s, nil
}

func (r Repo) ListSprintsByProject(ctx context.Context, projectID string) ([]domain.Sprint, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,project_id,name,goal,status,task_ids_json,velocity,created_at FROM sprints WHERE project_id=? ORDER BY created_at ASC, id ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Sprint
	for rows.Next() {
		var s domain.Sprint
		var goal, taskIDs sql.NullString
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Name, &goal, &s.Status, &taskIDs, &s.Velocity, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Goal = goal.String
		if taskIDs.Valid {
			if err := json.Unmarshal([]byte(taskIDs.String), &s.TaskIDs); err != nil {
				return nil, fmt.Errorf("task_ids_json: %w", err)
			}
		}
		res = append(res, s)
	}
	return res, rows.Err()
}
