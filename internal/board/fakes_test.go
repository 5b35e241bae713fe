package board

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/Isingizwe12/taskboard/internal/client"
	"github.com/Isingizwe12/taskboard/internal/logging"
	"github.com/Isingizwe12/taskboard/internal/task"
)

type fakeTasks struct {
	mu        sync.Mutex
	nextID    int
	tasks     map[string]task.Task
	created   []task.NewTask
	keys      []string
	patches   []task.Patch
	listCalls int
	deleteErr error
}

func newFakeTasks(seed ...task.Task) *fakeTasks {
	f := &fakeTasks{tasks: map[string]task.Task{}}
	for _, t := range seed {
		f.tasks[t.ID] = t
	}
	return f
}

func (f *fakeTasks) ListTasks(_ context.Context, owner string) ([]task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	out := []task.Task{}
	for _, t := range f.tasks {
		if t.UserEmail == owner {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTasks) CreateTask(_ context.Context, n task.NewTask, key string) (task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t := n.Task()
	t.ID = "new-" + strconv.Itoa(f.nextID)
	f.tasks[t.ID] = t
	f.created = append(f.created, n)
	f.keys = append(f.keys, key)
	return t, nil
}

// PatchTask stamps a server-side field so tests can tell the record came back from the store.
func (f *fakeTasks) PatchTask(_ context.Context, id string, p task.Patch) (task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, p)
	t, ok := f.tasks[id]
	if !ok {
		return task.Task{}, errors.New("task not found")
	}
	p.Apply(&t)
	if t.Extra == nil {
		t.Extra = map[string]any{}
	}
	t.Extra["revision"] = float64(len(f.patches))
	f.tasks[id] = t
	return t, nil
}

func (f *fakeTasks) DeleteTask(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.tasks[id]; !ok {
		return errors.New("task not found")
	}
	delete(f.tasks, id)
	return nil
}

type fakeIdentity struct {
	session   *client.Session
	passwords map[string]string
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{session: client.NewSession(), passwords: map[string]string{}}
}

func (f *fakeIdentity) Register(_ context.Context, email, password string) (*client.User, error) {
	if _, ok := f.passwords[email]; ok {
		return nil, errors.New("Email already in use")
	}
	f.passwords[email] = password
	u := &client.User{ID: "u-" + email, Email: email}
	f.session.Set(u)
	return u, nil
}

func (f *fakeIdentity) Login(_ context.Context, email, password string) (*client.User, error) {
	if pw, ok := f.passwords[email]; !ok || pw != password {
		return nil, errors.New("Invalid email or password")
	}
	u := &client.User{ID: "u-" + email, Email: email}
	f.session.Set(u)
	return u, nil
}

func (f *fakeIdentity) Logout(context.Context) error {
	f.session.Set(nil)
	return nil
}

func (f *fakeIdentity) Session() *client.Session { return f.session }

func testDeps(tasks *fakeTasks, id *fakeIdentity) Deps {
	return Deps{Tasks: tasks, Identity: id, Logger: logging.Discard()}
}
