// Package board implements the terminal client: login and register forms and
// the task board, composed under App.
package board

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/Isingizwe12/taskboard/internal/client"
	"github.com/Isingizwe12/taskboard/internal/task"
)

const requestTimeout = 15 * time.Second

// TaskAPI is the subset of client.Client the board drives.
type TaskAPI interface {
	ListTasks(ctx context.Context, ownerEmail string) ([]task.Task, error)
	CreateTask(ctx context.Context, n task.NewTask, idempotencyKey string) (task.Task, error)
	PatchTask(ctx context.Context, id string, p task.Patch) (task.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Identity is the subset of client.Gateway the screens drive.
type Identity interface {
	Register(ctx context.Context, email, password string) (*client.User, error)
	Login(ctx context.Context, email, password string) (*client.User, error)
	Logout(ctx context.Context) error
	Session() *client.Session
}

type Deps struct {
	Tasks    TaskAPI
	Identity Identity
	Logger   *log.Logger
}

type screen int

const (
	screenLogin screen = iota
	screenRegister
	screenBoard
)

// navigateMsg asks App to switch screens. notice is shown on the target screen.
type navigateMsg struct {
	to     screen
	notice string
}

func navigate(to screen, notice string) tea.Cmd {
	return func() tea.Msg { return navigateMsg{to: to, notice: notice} }
}
