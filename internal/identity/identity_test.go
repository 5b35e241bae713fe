package identity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService() *Service {
	return NewService(NewMemoryUsers(), NewMemoryRevoker(), []byte("test_secret"), time.Hour)
}

func TestRegisterLoginLogout(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	reg, err := s.Register(ctx, "U1@Test.com", "pw123456")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.User.Email != "u1@test.com" || reg.User.ID == "" || reg.Token == "" {
		t.Fatalf("unexpected session %+v", reg)
	}

	login, err := s.Login(ctx, "u1@test.com", "pw123456")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.User != reg.User {
		t.Fatalf("login user %+v differs from registered %+v", login.User, reg.User)
	}

	u, err := s.Authenticate(ctx, login.Token)
	if err != nil || u.Email != "u1@test.com" {
		t.Fatalf("authenticate: %v %+v", err, u)
	}

	if err := s.Logout(ctx, login.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := s.Authenticate(ctx, login.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected revoked token to fail, got %v", err)
	}
	// the registration token is a separate session
	if _, err := s.Authenticate(ctx, reg.Token); err != nil {
		t.Fatalf("registration session should still be valid: %v", err)
	}
	// idempotent
	if err := s.Logout(ctx, login.Token); err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if err := s.Logout(ctx, "garbage"); err != nil {
		t.Fatalf("logout with garbage token: %v", err)
	}
}

func TestRegisterErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	if _, err := s.Register(ctx, "not-an-email", "pw123456"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := s.Register(ctx, "a@x.com", "123"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if _, err := s.Register(ctx, "a@x.com", "pw123456"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := s.Register(ctx, "a@x.com", "pw654321"); !errors.Is(err, ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}
}

func TestLoginErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	_, _ = s.Register(ctx, "a@x.com", "pw123456")
	if _, err := s.Login(ctx, "a@x.com", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := s.Login(ctx, "nobody@x.com", "pw123456"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestMemoryRevokerPurge(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRevoker()
	now := time.Now()
	_ = r.Revoke(ctx, "old", now.Add(-time.Minute))
	_ = r.Revoke(ctx, "live", now.Add(time.Hour))
	if revoked, _ := r.IsRevoked(ctx, "old"); revoked {
		t.Fatalf("expired revocation should not count")
	}
	if n := r.Purge(now); n != 1 {
		t.Fatalf("expected 1 purged entry, got %d", n)
	}
	if revoked, _ := r.IsRevoked(ctx, "live"); !revoked {
		t.Fatalf("live revocation lost")
	}
}
