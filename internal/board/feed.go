package board

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Isingizwe12/taskboard/internal/client"
)

type sessionMsg struct {
	feed *sessionFeed
	user *client.User
}

// sessionFeed turns Session callbacks into tea messages. Only the latest
// value is buffered.
type sessionFeed struct {
	updates     chan *client.User
	done        chan struct{}
	stop        sync.Once
	unsubscribe func()
}

func subscribeSession(s *client.Session) *sessionFeed {
	f := &sessionFeed{updates: make(chan *client.User, 1), done: make(chan struct{})}
	f.unsubscribe = s.Subscribe(f.push)
	return f
}

func (f *sessionFeed) push(u *client.User) {
	for {
		select {
		case f.updates <- u:
			return
		case <-f.done:
			return
		default:
		}
		select {
		case <-f.updates:
		default:
		}
	}
}

// next waits for the following session change.
func (f *sessionFeed) next() tea.Cmd {
	return func() tea.Msg {
		select {
		case u := <-f.updates:
			return sessionMsg{feed: f, user: u}
		case <-f.done:
			return nil
		}
	}
}

func (f *sessionFeed) close() {
	f.stop.Do(func() {
		f.unsubscribe()
		close(f.done)
	})
}
