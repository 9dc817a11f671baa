package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"planwise/internal/domain"
)

// Repo is the entity store gateway. Every operation is an independent
// commit; callers never get cross-call atomicity from this layer.
type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func (r Repo) InsertProject(ctx context.Context, p domain.Project) error {
	members, err := marshalStringSlice(p.Members)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `INSERT INTO projects(id,name,key,description,status,category,board_config_json,members_json,created_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Name, p.Key, nullable(p.Description), p.Status, nullable(p.Category), nullable(p.BoardConfig), nullableStringPtr(members), p.CreatedAt)
	return err
}

func (r Repo) GetProject(ctx context.Context, id string) (domain.Project, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,name,key,description,status,category,board_config_json,members_json,created_at FROM projects WHERE id=?`, id)
	return scanProject(row)
}

func scanProject(row *sql.Row) (domain.Project, error) {
	var p domain.Project
	var desc, category, board, members sql.NullString
	err := row.Scan(&p.ID, &p.Name, &p.Key, &desc, &p.Status, &category, &board, &members, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	p.Description = desc.String
	p.Category = category.String
	p.BoardConfig = board.String
	if members.Valid {
		if err := json.Unmarshal([]byte(members.String), &p.Members); err != nil {
			return p, fmt.Errorf("members_json: %w", err)
		}
	}
	return p, nil
}

func (r Repo) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,key,description,status,category,board_config_json,members_json,created_at FROM projects ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Project
	for rows.Next() {
		var p domain.Project
		var desc, category, board, members sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Key, &desc, &p.Status, &category, &board, &members, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Description = desc.String
		p.Category = category.String
		p.BoardConfig = board.String
		if members.Valid {
			if err := json.Unmarshal([]byte(members.String), &p.Members); err != nil {
				return nil, fmt.Errorf("members_json: %w", err)
			}
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r Repo) UpdateProject(ctx context.Context, id, status string, description *string) error {
	var (
		fields []string
		args   []any
	)
	if status != "" {
		fields = append(fields, "status=?")
		args = append(args, status)
	}
	if description != nil {
		fields = append(fields, "description=?")
		args = append(args, nullable(*description))
	}
	if len(fields) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE projects SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteProject(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM projects WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}

func nullableFloatPtr(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func marshalStringSlice(in []string) (*string, error) {
	if len(in) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}
