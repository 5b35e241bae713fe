package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	database "github.com/Isingizwe12/taskboard/internal"
	"github.com/Isingizwe12/taskboard/internal/task"
)

const taskColumns = `id, user_email, title, description, priority, completed, extra, created_at, updated_at`

// PostgresStore keeps tasks in the 'tasks' table.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	extra, err := encodeExtra(t.Extra)
	if err != nil {
		return task.Task{}, err
	}
	now := time.Now().UTC()
	row := database.Task{
		ID:          uuid.New(),
		UserEmail:   t.UserEmail,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Completed:   false,
		Extra:       extra,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err = s.db.NamedExecContext(ctx, `INSERT INTO tasks (`+taskColumns+`)
		VALUES (:id, :user_email, :title, :description, :priority, :completed, :extra, :created_at, :updated_at)`, row)
	if err != nil {
		return task.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return fromRow(row)
}

func (s *PostgresStore) ListTasks(ctx context.Context, ownerEmail string) ([]task.Task, error) {
	var rows []database.Task
	err := s.db.SelectContext(ctx, &rows, `SELECT `+taskColumns+` FROM tasks WHERE user_email=$1 ORDER BY created_at`, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	out := make([]task.Task, 0, len(rows))
	for _, r := range rows {
		t, err := fromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *PostgresStore) PatchTask(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return task.Task{}, ErrNotFound
	}
	sets := []string{}
	args := []any{}
	add := func(expr string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}
	if p.Title != nil {
		add("title=$%d", *p.Title)
	}
	if p.Description != nil {
		add("description=$%d", *p.Description)
	}
	if p.Priority != nil {
		add("priority=$%d", string(*p.Priority))
	}
	if p.Completed != nil {
		add("completed=$%d", *p.Completed)
	}
	if len(p.Extra) > 0 {
		extra, err := encodeExtra(p.Extra)
		if err != nil {
			return task.Task{}, err
		}
		add("extra=extra || $%d::jsonb", extra)
	}
	sets = append(sets, "updated_at=NOW()")
	args = append(args, uid)
	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id=$%d RETURNING %s`, strings.Join(sets, ", "), len(args), taskColumns)

	var row database.Task
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return task.Task{}, ErrNotFound
		}
		return task.Task{}, fmt.Errorf("update task: %w", err)
	}
	return fromRow(row)
}

func (s *PostgresStore) DeleteTask(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id=$1`, uid)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func encodeExtra(extra map[string]any) ([]byte, error) {
	if len(extra) == 0 {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("encode extra fields: %w", err)
	}
	return b, nil
}

func fromRow(r database.Task) (task.Task, error) {
	t := task.Task{
		ID:          r.ID.String(),
		Title:       r.Title,
		Description: r.Description,
		Priority:    task.Priority(r.Priority),
		UserEmail:   r.UserEmail,
		Completed:   r.Completed,
	}
	if len(r.Extra) > 0 {
		var extra map[string]any
		if err := json.Unmarshal(r.Extra, &extra); err != nil {
			return task.Task{}, fmt.Errorf("decode extra fields of %s: %w", t.ID, err)
		}
		if len(extra) > 0 {
			t.Extra = extra
		}
	}
	return t, nil
}
