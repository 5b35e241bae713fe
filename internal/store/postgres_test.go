package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Isingizwe12/taskboard/internal/task"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	// "pgx" selects $N bind vars for named queries.
	return NewPostgresStore(sqlx.NewDb(db, "pgx")), mock
}

var columns = []string{"id", "user_email", "title", "description", "priority", "completed", "extra", "created_at", "updated_at"}

func TestPostgresStore_CreateTask(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tasks (`+taskColumns+`)`)).
		WithArgs(sqlmock.AnyArg(), "u1@test.com", "Buy milk", "2%", "Low", false, []byte("{}"), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := s.CreateTask(context.Background(), task.NewTask{
		Title: "Buy milk", Description: "2%", Priority: task.PriorityLow, UserEmail: "u1@test.com",
	}.Task())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := uuid.Parse(created.ID); err != nil {
		t.Fatalf("expected uuid id, got %q", created.ID)
	}
	if created.Completed || created.Title != "Buy milk" {
		t.Fatalf("unexpected created task %+v", created)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_ListTasks(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows(columns).
		AddRow(id.String(), "a@x.com", "one", "d", "High", true, []byte(`{"color":"red"}`), now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT `+taskColumns+` FROM tasks WHERE user_email=$1`)).
		WithArgs("a@x.com").
		WillReturnRows(rows)

	list, err := s.ListTasks(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != id.String() || !list[0].Completed || list[0].Priority != task.PriorityHigh {
		t.Fatalf("unexpected list %+v", list)
	}
	if list[0].Extra["color"] != "red" {
		t.Fatalf("expected extra color, got %v", list[0].Extra)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_PatchTask(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows(columns).
		AddRow(id.String(), "a@x.com", "one", "d", "Low", true, []byte(`{}`), now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE tasks SET completed=$1, updated_at=NOW() WHERE id=$2 RETURNING `+taskColumns)).
		WithArgs(true, id.String()).
		WillReturnRows(rows)

	done := true
	got, err := s.PatchTask(context.Background(), id.String(), task.Patch{Completed: &done})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if !got.Completed || got.Title != "one" || got.Extra != nil {
		t.Fatalf("unexpected patched task %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_PatchMergesExtra(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows(columns).
		AddRow(id.String(), "a@x.com", "renamed", "d", "Low", false, []byte(`{"color":"red"}`), now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE tasks SET title=$1, extra=extra || $2::jsonb, updated_at=NOW() WHERE id=$3`)).
		WithArgs("renamed", []byte(`{"color":"red"}`), id.String()).
		WillReturnRows(rows)

	title := "renamed"
	got, err := s.PatchTask(context.Background(), id.String(), task.Patch{Title: &title, Extra: map[string]any{"color": "red"}})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if got.Title != "renamed" || got.Extra["color"] != "red" {
		t.Fatalf("unexpected patched task %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_PatchUnknown(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE tasks SET`)).
		WillReturnRows(sqlmock.NewRows(columns))

	done := true
	if _, err := s.PatchTask(context.Background(), id.String(), task.Patch{Completed: &done}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.PatchTask(context.Background(), "not-a-uuid", task.Patch{Completed: &done}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_DeleteTask(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()
	del := regexp.QuoteMeta(`DELETE FROM tasks WHERE id=$1`)
	mock.ExpectExec(del).WithArgs(id.String()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(del).WithArgs(id.String()).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.DeleteTask(context.Background(), id.String()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTask(context.Background(), id.String()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
