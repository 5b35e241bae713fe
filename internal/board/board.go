package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Isingizwe12/taskboard/internal/task"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
)

const (
	draftTitle = iota
	draftDescription
)

type tasksLoadedMsg struct {
	owner string
	tasks []task.Task
	err   error
}

type taskSavedMsg struct {
	task    task.Task
	created bool
	err     error
}

type taskDeletedMsg struct {
	id  string
	err error
}

type loggedOutMsg struct{ err error }

// Board is the task board screen. Tasks are cached by id and every entry is
// replaced with the server's record after a mutation.
type Board struct {
	api      TaskAPI
	identity Identity
	logger   *log.Logger
	feed     *sessionFeed

	owner   string
	loading bool
	tasks   map[string]task.Task
	order   []string
	cursor  int

	mode      mode
	editingID string
	draft     []textinput.Model
	focus     int
	priority  task.Priority
	submitKey string

	status string
	width  int
}

func NewBoard(d Deps) Board {
	return Board{
		api:      d.Tasks,
		identity: d.Identity,
		logger:   d.Logger,
		tasks:    map[string]task.Task{},
	}
}

// Mount subscribes to the session. Pair it with Unmount.
func (m Board) Mount() Board {
	m.feed = subscribeSession(m.identity.Session())
	return m
}

func (m Board) Unmount() {
	if m.feed != nil {
		m.feed.close()
	}
}

func (m Board) Init() tea.Cmd {
	if m.feed == nil {
		return nil
	}
	return m.feed.next()
}

func (m Board) Update(msg tea.Msg) (Board, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case sessionMsg:
		if msg.feed != m.feed {
			return m, nil
		}
		if msg.user == nil {
			return m, navigate(screenLogin, "")
		}
		wait := m.feed.next()
		if msg.user.Email == m.owner {
			return m, wait
		}
		m.owner = msg.user.Email
		m.resetCache()
		m.loading = true
		return m, tea.Batch(m.fetchTasks(), wait)

	case tasksLoadedMsg:
		if msg.owner != m.owner {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.fail("load tasks", msg.err)
			return m, nil
		}
		m.resetCache()
		for _, t := range msg.tasks {
			m.put(t)
		}
		return m, nil

	case taskSavedMsg:
		if msg.err != nil {
			m.fail("save task", msg.err)
			return m, nil
		}
		m.put(msg.task)
		if msg.created {
			m.status = "Task added"
		} else {
			m.status = "Task updated"
		}
		return m, nil

	case taskDeletedMsg:
		if msg.err != nil {
			m.fail("delete task", msg.err)
			return m, nil
		}
		m.remove(msg.id)
		m.status = "Task deleted"
		return m, nil

	case loggedOutMsg:
		if msg.err != nil {
			m.logger.Warn("logout failed on server", "err", msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		if m.mode == modeList {
			return m.updateList(msg)
		}
		return m.updateDraft(msg)
	}
	return m, nil
}

func (m Board) updateList(msg tea.KeyMsg) (Board, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.order)-1 {
			m.cursor++
		}
	case "a":
		m.openDraft(modeAdd, task.Task{Priority: task.PriorityLow})
	case "e":
		if t, ok := m.selected(); ok {
			m.openDraft(modeEdit, t)
		}
	case " ", "x":
		if t, ok := m.selected(); ok {
			completed := !t.Completed
			return m, m.patchTask(t.ID, task.Patch{Completed: &completed})
		}
	case "d":
		if t, ok := m.selected(); ok {
			return m, m.deleteTask(t.ID)
		}
	case "L":
		return m, m.logout()
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m Board) updateDraft(msg tea.KeyMsg) (Board, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeDraft()
		return m, nil
	case "tab", "down", "shift+tab", "up":
		m.focus = 1 - m.focus
		for i := range m.draft {
			if i == m.focus {
				m.draft[i].Focus()
			} else {
				m.draft[i].Blur()
			}
		}
		return m, nil
	case "ctrl+p":
		m.priority = m.priority.Next()
		return m, nil
	case "enter":
		return m.saveDraft()
	}
	var cmd tea.Cmd
	m.draft[m.focus], cmd = m.draft[m.focus].Update(msg)
	return m, cmd
}

func (m *Board) openDraft(md mode, t task.Task) {
	title := textinput.New()
	title.Placeholder = "Title"
	title.SetValue(t.Title)
	title.Focus()
	desc := textinput.New()
	desc.Placeholder = "Description"
	desc.SetValue(t.Description)

	m.mode = md
	m.editingID = t.ID
	m.draft = []textinput.Model{title, desc}
	m.focus = draftTitle
	m.priority = t.Priority
	m.submitKey = uuid.NewString()
	m.status = ""
}

// closeDraft drops the draft without contacting the server.
func (m *Board) closeDraft() {
	m.mode = modeList
	m.editingID = ""
	m.draft = nil
	m.submitKey = ""
}

func (m Board) saveDraft() (Board, tea.Cmd) {
	title := strings.TrimSpace(m.draft[draftTitle].Value())
	desc := strings.TrimSpace(m.draft[draftDescription].Value())
	if title == "" || desc == "" {
		m.status = "Title and description are required"
		return m, nil
	}
	prio := m.priority

	var cmd tea.Cmd
	if m.mode == modeAdd {
		cmd = m.createTask(task.NewTask{Title: title, Description: desc, Priority: prio, UserEmail: m.owner}, m.submitKey)
	} else {
		cmd = m.patchTask(m.editingID, task.Patch{Title: &title, Description: &desc, Priority: &prio})
	}
	m.closeDraft()
	m.status = "Saving..."
	return m, cmd
}

func (m Board) selected() (task.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.order) {
		return task.Task{}, false
	}
	t, ok := m.tasks[m.order[m.cursor]]
	return t, ok
}

func (m *Board) resetCache() {
	m.tasks = map[string]task.Task{}
	m.order = nil
	m.cursor = 0
}

func (m *Board) put(t task.Task) {
	if _, ok := m.tasks[t.ID]; !ok {
		m.order = append(m.order, t.ID)
	}
	m.tasks[t.ID] = t
}

func (m *Board) remove(id string) {
	if _, ok := m.tasks[id]; !ok {
		return
	}
	delete(m.tasks, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i:i], m.order[i+1:]...)
			break
		}
	}
	if m.cursor >= len(m.order) && m.cursor > 0 {
		m.cursor = len(m.order) - 1
	}
}

func (m *Board) fail(action string, err error) {
	m.logger.Error(action+" failed", "owner", m.owner, "err", err)
	m.status = fmt.Sprintf("Could not %s: %v", action, err)
}

func (m Board) fetchTasks() tea.Cmd {
	api, owner := m.api, m.owner
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		tasks, err := api.ListTasks(ctx, owner)
		return tasksLoadedMsg{owner: owner, tasks: tasks, err: err}
	}
}

func (m Board) createTask(n task.NewTask, key string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		t, err := api.CreateTask(ctx, n, key)
		return taskSavedMsg{task: t, created: true, err: err}
	}
}

func (m Board) patchTask(id string, p task.Patch) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		t, err := api.PatchTask(ctx, id, p)
		return taskSavedMsg{task: t, err: err}
	}
}

func (m Board) deleteTask(id string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return taskDeletedMsg{id: id, err: api.DeleteTask(ctx, id)}
	}
}

func (m Board) logout() tea.Cmd {
	identity := m.identity
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return loggedOutMsg{err: identity.Logout(ctx)}
	}
}

func (m Board) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" Todo List ") + "\n\n")
	greeting := "user"
	if m.owner != "" {
		greeting = m.owner
	}
	b.WriteString("Hello, " + greeting + "\n\n")

	switch {
	case m.mode != modeList:
		b.WriteString(m.viewDraft())
	case m.loading:
		b.WriteString(mutedStyle.Render("Loading tasks...") + "\n")
	case len(m.order) == 0:
		b.WriteString(mutedStyle.Render("No tasks yet. Press a to add one.") + "\n")
	default:
		for i, id := range m.order {
			b.WriteString(m.viewTask(m.tasks[id], i == m.cursor) + "\n")
		}
	}

	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	help := "a: add | e: edit | x: toggle | d: delete | L: logout | q: quit"
	if m.mode != modeList {
		help = "enter: save | tab: next field | ctrl+p: priority | esc: cancel"
	}
	b.WriteString("\n" + helpStyle.Render(help))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Board) viewTask(t task.Task, selected bool) string {
	check := "[ ]"
	title := taskTitleStyle.Render(t.Title)
	if t.Completed {
		check = "[x]"
		title = doneStyle.Render(t.Title)
	}
	body := fmt.Sprintf("%s %s\n    %s\n    %s", check, title, t.Description, renderPriority(t.Priority))
	style := cardStyle
	if selected {
		style = selectedCardStyle
	}
	if m.width > 8 {
		style = style.Width(m.width - 8)
	}
	return style.Render(body)
}

func (m Board) viewDraft() string {
	heading := "New task"
	if m.mode == modeEdit {
		heading = "Edit task"
	}
	var b strings.Builder
	b.WriteString(taskTitleStyle.Render(heading) + "\n")
	for _, in := range m.draft {
		b.WriteString(in.View() + "\n")
	}
	b.WriteString(renderPriority(m.priority) + "\n")
	return b.String()
}
