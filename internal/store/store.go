// Package store persists task records. Every call is a single round trip to the
// backing store; there is no local buffering.
package store

import (
	"context"
	"errors"

	"github.com/Isingizwe12/taskboard/internal/task"
)

var ErrNotFound = errors.New("task not found")

// Store is the task persistence gateway.
type Store interface {
	// CreateTask assigns an id, persists the record and returns it.
	CreateTask(ctx context.Context, t task.Task) (task.Task, error)
	// ListTasks returns every task whose owner email equals ownerEmail. Order is unspecified.
	ListTasks(ctx context.Context, ownerEmail string) ([]task.Task, error)
	// PatchTask merges p into the task and returns the merged record.
	PatchTask(ctx context.Context, id string, p task.Patch) (task.Task, error)
	DeleteTask(ctx context.Context, id string) error
}
