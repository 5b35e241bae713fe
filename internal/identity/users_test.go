package identity

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	database "github.com/Isingizwe12/taskboard/internal"
)

func TestPostgresUsers(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresUsers(sqlx.NewDb(db, "pgx"))

	u := database.User{ID: uuid.New(), Email: "a@x.com", HashedPassword: "h", CreatedAt: time.Now()}
	insert := regexp.QuoteMeta(`INSERT INTO users (id, email, hashed_password, created_at)`)
	mock.ExpectExec(insert).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insert).WillReturnError(&pgconn.PgError{Code: "23505"})

	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.CreateUser(context.Background(), u); !errors.Is(err, ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}

	sel := regexp.QuoteMeta(`SELECT id, email, hashed_password, created_at FROM users WHERE email=$1`)
	mock.ExpectQuery(sel).WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "hashed_password", "created_at"}).
			AddRow(u.ID.String(), u.Email, "h", u.CreatedAt))
	mock.ExpectQuery(sel).WithArgs("b@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "hashed_password", "created_at"}))

	got, err := repo.GetUserByEmail(context.Background(), "a@x.com")
	if err != nil || got.ID != u.ID {
		t.Fatalf("get: %v %+v", err, got)
	}
	if _, err := repo.GetUserByEmail(context.Background(), "b@x.com"); !errors.Is(err, errUserNotFound) {
		t.Fatalf("expected errUserNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
