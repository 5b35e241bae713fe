package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	database "github.com/Isingizwe12/taskboard/internal"
)

var errUserNotFound = errors.New("user not found")

// UserRepo stores provider accounts.
type UserRepo interface {
	CreateUser(ctx context.Context, u database.User) error
	GetUserByEmail(ctx context.Context, email string) (database.User, error)
}

// PostgresUsers keeps accounts in the 'users' table.
type PostgresUsers struct {
	db *sqlx.DB
}

func NewPostgresUsers(db *sqlx.DB) *PostgresUsers { return &PostgresUsers{db: db} }

func (r *PostgresUsers) CreateUser(ctx context.Context, u database.User) error {
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO users (id, email, hashed_password, created_at)
		VALUES (:id, :email, :hashed_password, :created_at)`, u)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailInUse
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PostgresUsers) GetUserByEmail(ctx context.Context, email string) (database.User, error) {
	var u database.User
	err := r.db.GetContext(ctx, &u, `SELECT id, email, hashed_password, created_at FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return database.User{}, errUserNotFound
	}
	if err != nil {
		return database.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// MemoryUsers keeps accounts in process memory.
type MemoryUsers struct {
	mu      sync.RWMutex
	byEmail map[string]database.User
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{byEmail: map[string]database.User{}}
}

func (r *MemoryUsers) CreateUser(_ context.Context, u database.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return ErrEmailInUse
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.byEmail[u.Email] = u
	return nil
}

func (r *MemoryUsers) GetUserByEmail(_ context.Context, email string) (database.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byEmail[email]
	if !ok {
		return database.User{}, errUserNotFound
	}
	return u, nil
}
