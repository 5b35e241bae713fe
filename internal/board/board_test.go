package board

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Isingizwe12/taskboard/internal/client"
	"github.com/Isingizwe12/taskboard/internal/task"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+p":
		return tea.KeyMsg{Type: tea.KeyCtrlP}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// signedInBoard mounts a board for a@x.com and loads its tasks.
func signedInBoard(t *testing.T, tasks *fakeTasks) (Board, *fakeIdentity) {
	t.Helper()
	id := newFakeIdentity()
	id.session.Set(&client.User{ID: "1", Email: "a@x.com"})
	b := NewBoard(testDeps(tasks, id)).Mount()
	t.Cleanup(b.Unmount)

	b, _ = b.Update(b.Init()())
	if b.owner != "a@x.com" || !b.loading {
		t.Fatalf("expected loading for a@x.com, got owner=%q loading=%v", b.owner, b.loading)
	}
	b, _ = b.Update(b.fetchTasks()())
	if b.loading {
		t.Fatalf("expected loaded board")
	}
	return b, id
}

func TestBoard_NoSessionRedirectsToLogin(t *testing.T) {
	b := NewBoard(testDeps(newFakeTasks(), newFakeIdentity())).Mount()
	defer b.Unmount()

	_, cmd := b.Update(b.Init()())
	if cmd == nil {
		t.Fatal("expected navigation command")
	}
	nav, ok := cmd().(navigateMsg)
	if !ok || nav.to != screenLogin {
		t.Fatalf("expected navigate to login, got %#v", nav)
	}
}

func TestBoard_LoadsOwnerTasksOnce(t *testing.T) {
	tasks := newFakeTasks(
		task.Task{ID: "1", Title: "mine", Description: "d", Priority: task.PriorityLow, UserEmail: "a@x.com"},
		task.Task{ID: "2", Title: "theirs", Description: "d", Priority: task.PriorityLow, UserEmail: "b@x.com"},
	)
	b, id := signedInBoard(t, tasks)
	if len(b.order) != 1 || b.tasks["1"].Title != "mine" {
		t.Fatalf("unexpected cache %v", b.tasks)
	}

	// A repeated notification for the same user must not refetch.
	id.session.Set(&client.User{ID: "1", Email: "a@x.com"})
	b, _ = b.Update(b.feed.next()())
	if b.loading || tasks.listCalls != 1 {
		t.Fatalf("expected a single fetch, got %d", tasks.listCalls)
	}
}

func TestBoard_StaleSessionMessagesIgnored(t *testing.T) {
	b, _ := signedInBoard(t, newFakeTasks())
	other := &sessionFeed{}
	b2, cmd := b.Update(sessionMsg{feed: other, user: nil})
	if cmd != nil || b2.owner != "a@x.com" {
		t.Fatalf("message from an old subscription changed state")
	}
}

func TestBoard_AddTask(t *testing.T) {
	tasks := newFakeTasks()
	b, _ := signedInBoard(t, tasks)

	b, _ = b.Update(key("a"))
	if b.mode != modeAdd || b.priority != task.PriorityLow {
		t.Fatalf("expected add mode with Low priority, got mode=%v priority=%q", b.mode, b.priority)
	}
	b, _ = b.Update(key("Buy milk"))
	b, _ = b.Update(key("tab"))
	b, _ = b.Update(key("2%"))
	b, _ = b.Update(key("ctrl+p"))
	b, cmd := b.Update(key("enter"))
	if cmd == nil || b.mode != modeList {
		t.Fatalf("expected submit and form closed")
	}
	b, _ = b.Update(cmd())

	if len(tasks.created) != 1 {
		t.Fatalf("expected one create call, got %d", len(tasks.created))
	}
	n := tasks.created[0]
	if n.Title != "Buy milk" || n.Description != "2%" || n.Priority != task.PriorityMedium || n.UserEmail != "a@x.com" {
		t.Fatalf("unexpected create payload %+v", n)
	}
	if tasks.keys[0] == "" {
		t.Fatalf("expected an idempotency key")
	}
	if len(b.order) != 1 || b.tasks[b.order[0]].Title != "Buy milk" {
		t.Fatalf("created task missing from cache: %v", b.tasks)
	}
}

func TestBoard_AddRequiresFields(t *testing.T) {
	tasks := newFakeTasks()
	b, _ := signedInBoard(t, tasks)
	b, _ = b.Update(key("a"))
	b, cmd := b.Update(key("enter"))
	if cmd != nil || b.mode != modeAdd || b.status == "" {
		t.Fatalf("expected inline error and form kept open")
	}
	if len(tasks.created) != 0 {
		t.Fatalf("empty form must not reach the server")
	}
}

func TestBoard_ToggleUsesServerRecord(t *testing.T) {
	tasks := newFakeTasks(task.Task{ID: "1", Title: "t", Description: "d", Priority: task.PriorityHigh, UserEmail: "a@x.com"})
	b, _ := signedInBoard(t, tasks)

	b, cmd := b.Update(key("x"))
	if cmd == nil {
		t.Fatal("expected patch command")
	}
	b, _ = b.Update(cmd())
	got := b.tasks["1"]
	if !got.Completed || got.Extra["revision"] != float64(1) {
		t.Fatalf("expected authoritative record, got %+v", got)
	}
	p := tasks.patches[0]
	if p.Completed == nil || !*p.Completed || p.Title != nil {
		t.Fatalf("toggle must send only completed, got %+v", p)
	}
}

func TestBoard_EditCancelAndSave(t *testing.T) {
	tasks := newFakeTasks(task.Task{ID: "1", Title: "old", Description: "d", Priority: task.PriorityLow, UserEmail: "a@x.com"})
	b, _ := signedInBoard(t, tasks)

	b, _ = b.Update(key("e"))
	if b.mode != modeEdit || b.editingID != "1" || b.draft[draftTitle].Value() != "old" {
		t.Fatalf("expected draft prefilled from the task")
	}
	b, _ = b.Update(key("er"))
	b, cmd := b.Update(key("esc"))
	if cmd != nil || b.mode != modeList || b.editingID != "" || len(tasks.patches) != 0 {
		t.Fatalf("cancel must discard the draft without a call")
	}
	if b.tasks["1"].Title != "old" {
		t.Fatalf("cancel changed the cached task")
	}

	b, _ = b.Update(key("e"))
	b.draft[draftTitle].SetValue("new")
	b, _ = b.Update(key("ctrl+p"))
	b, cmd = b.Update(key("enter"))
	b, _ = b.Update(cmd())

	p := tasks.patches[0]
	if p.Title == nil || *p.Title != "new" || p.Priority == nil || *p.Priority != task.PriorityMedium || p.Completed != nil {
		t.Fatalf("unexpected edit patch %+v", p)
	}
	if got := b.tasks["1"]; got.Title != "new" || got.Priority != task.PriorityMedium {
		t.Fatalf("cache not refreshed: %+v", got)
	}
}

func TestBoard_Delete(t *testing.T) {
	tasks := newFakeTasks(task.Task{ID: "1", Title: "t", Description: "d", Priority: task.PriorityLow, UserEmail: "a@x.com"})
	b, _ := signedInBoard(t, tasks)

	tasks.deleteErr = errors.New("boom")
	b, cmd := b.Update(key("d"))
	b, _ = b.Update(cmd())
	if len(b.order) != 1 || !strings.Contains(b.status, "boom") {
		t.Fatalf("failed delete should keep the task and report, status=%q", b.status)
	}

	tasks.deleteErr = nil
	b, cmd = b.Update(key("d"))
	b, _ = b.Update(cmd())
	if len(b.order) != 0 || len(b.tasks) != 0 {
		t.Fatalf("expected task removed from cache")
	}
}

func TestBoard_LogoutReturnsToLogin(t *testing.T) {
	b, _ := signedInBoard(t, newFakeTasks())
	b, cmd := b.Update(key("L"))
	b, _ = b.Update(cmd())

	_, cmd = b.Update(b.feed.next()())
	if nav, ok := cmd().(navigateMsg); !ok || nav.to != screenLogin {
		t.Fatalf("expected navigate to login after logout")
	}
}

func TestBoard_View(t *testing.T) {
	tasks := newFakeTasks(task.Task{ID: "1", Title: "Buy milk", Description: "2%", Priority: task.PriorityHigh, UserEmail: "a@x.com"})
	b, _ := signedInBoard(t, tasks)
	v := b.View()
	for _, want := range []string{"Hello, a@x.com", "Buy milk", "Priority: High"} {
		if !strings.Contains(v, want) {
			t.Fatalf("view missing %q:\n%s", want, v)
		}
	}
}
