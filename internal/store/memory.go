package store

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/Isingizwe12/taskboard/internal/task"
)

// MemoryStore keeps tasks in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]task.Task
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]task.Task)}
}

func (s *MemoryStore) CreateTask(_ context.Context, t task.Task) (task.Task, error) {
	t.ID = uuid.NewString()
	t.Completed = false
	t.Extra = maps.Clone(t.Extra)

	s.mu.Lock()
	s.tasks[t.ID] = t
	s.order = append(s.order, t.ID)
	s.mu.Unlock()
	return clone(t), nil
}

func (s *MemoryStore) ListTasks(_ context.Context, ownerEmail string) ([]task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]task.Task, 0)
	for _, id := range s.order {
		if t := s.tasks[id]; t.UserEmail == ownerEmail {
			out = append(out, clone(t))
		}
	}
	return out, nil
}

func (s *MemoryStore) PatchTask(_ context.Context, id string, p task.Patch) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return task.Task{}, ErrNotFound
	}
	t.Extra = maps.Clone(t.Extra)
	p.Apply(&t)
	s.tasks[id] = t
	return clone(t), nil
}

func (s *MemoryStore) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(s.tasks, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func clone(t task.Task) task.Task {
	t.Extra = maps.Clone(t.Extra)
	return t
}
