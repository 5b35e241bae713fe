package client

import (
	"context"
	"sync"
)

// Session holds the current user and notifies subscribers when it changes.
// Deliveries are serialized, so callbacks must not call Set themselves.
type Session struct {
	deliver sync.Mutex // held while callbacks run; taken before mu
	mu      sync.Mutex
	current *User
	nextID  int
	subs    map[int]func(*User)
}

func NewSession() *Session {
	return &Session{subs: map[int]func(*User){}}
}

// Current returns the signed-in user, or nil.
func (s *Session) Current() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyUser(s.current)
}

// Subscribe calls fn with the current user right away and again after every
// change. Call the returned func to stop receiving updates.
func (s *Session) Subscribe(fn func(*User)) (unsubscribe func()) {
	s.deliver.Lock()
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	cur := copyUser(s.current)
	s.mu.Unlock()

	fn(cur)
	s.deliver.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Set replaces the current user and notifies every subscriber.
func (s *Session) Set(u *User) {
	s.deliver.Lock()
	defer s.deliver.Unlock()
	s.mu.Lock()
	s.current = copyUser(u)
	fns := make([]func(*User), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(copyUser(u))
	}
}

func copyUser(u *User) *User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

// Gateway is the client side of the identity provider: it signs the user in
// and out and keeps Session current.
type Gateway struct {
	api     *Client
	session *Session
}

func NewGateway(api *Client, session *Session) *Gateway {
	if session == nil {
		session = NewSession()
	}
	return &Gateway{api: api, session: session}
}

func (g *Gateway) Session() *Session { return g.session }

func (g *Gateway) Register(ctx context.Context, email, password string) (*User, error) {
	resp, err := g.api.Register(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return g.signIn(resp), nil
}

func (g *Gateway) Login(ctx context.Context, email, password string) (*User, error) {
	resp, err := g.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return g.signIn(resp), nil
}

// Logout ends the session locally even when the server call fails.
func (g *Gateway) Logout(ctx context.Context) error {
	err := g.api.Logout(ctx)
	g.api.SetToken("")
	g.session.Set(nil)
	return err
}

func (g *Gateway) signIn(resp AuthResponse) *User {
	g.api.SetToken(resp.Token)
	u := resp.User
	g.session.Set(&u)
	return &u
}
