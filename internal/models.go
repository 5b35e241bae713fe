package database

import (
	"time"

	"github.com/google/uuid"
)

// User represents the 'users' table.
type User struct {
	ID             uuid.UUID `db:"id"`
	Email          string    `db:"email"`
	HashedPassword string    `db:"hashed_password"`
	CreatedAt      time.Time `db:"created_at"`
}

// Task represents the 'tasks' table. Extra is a jsonb object of unmodelled fields.
type Task struct {
	ID          uuid.UUID `db:"id"`
	UserEmail   string    `db:"user_email"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Priority    string    `db:"priority"`
	Completed   bool      `db:"completed"`
	Extra       []byte    `db:"extra"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
