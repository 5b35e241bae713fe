// Package identity is the account provider: registration, login, logout and
// session-token verification. Error values carry human-readable messages that
// clients show verbatim.
package identity

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	database "github.com/Isingizwe12/taskboard/internal"
	"github.com/Isingizwe12/taskboard/internal/utils"
)

var (
	ErrInvalidEmail       = errors.New("The email address is badly formatted")
	ErrWeakPassword       = errors.New("Password should be at least 6 characters")
	ErrEmailInUse         = errors.New("Email already in use")
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrInvalidToken       = errors.New("Invalid or expired session")
)

// User is the authenticated-user handle returned to callers.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is a signed-in user plus the bearer token that represents it.
type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Provider is the capability the HTTP layer depends on.
type Provider interface {
	Register(ctx context.Context, email, password string) (Session, error)
	Login(ctx context.Context, email, password string) (Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (User, error)
}

// Service implements Provider over a UserRepo and a Revoker.
type Service struct {
	users   UserRepo
	revoker Revoker
	secret  []byte
	ttl     time.Duration
}

func NewService(users UserRepo, revoker Revoker, secret []byte, ttl time.Duration) *Service {
	return &Service{users: users, revoker: revoker, secret: secret, ttl: ttl}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// Register creates an account and signs it in.
func (s *Service) Register(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, err
	}
	if ok, _ := utils.ValidatePasswordPolicy(password); !ok {
		return Session{}, ErrWeakPassword
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return Session{}, err
	}
	u := database.User{
		ID:             uuid.New(),
		Email:          email,
		HashedPassword: hash,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return Session{}, err
	}
	return s.issue(u)
}

// Login checks credentials and issues a new session token.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, errUserNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if !utils.CheckPasswordHash(password, u.HashedPassword) {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(u)
}

// Logout revokes the token. Tokens that are already invalid are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := utils.ParseJWT(s.secret, token)
	if err != nil {
		return nil
	}
	return s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Authenticate verifies a bearer token and returns its user.
func (s *Service) Authenticate(ctx context.Context, token string) (User, error) {
	claims, err := utils.ParseJWT(s.secret, token)
	if err != nil {
		return User{}, ErrInvalidToken
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return User{}, err
	}
	if revoked {
		return User{}, ErrInvalidToken
	}
	return User{ID: claims.UserID, Email: claims.Email}, nil
}

func (s *Service) issue(u database.User) (Session, error) {
	token, _, err := utils.GenerateJWT(s.secret, u.ID, u.Email, s.ttl)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		User:      User{ID: u.ID.String(), Email: u.Email},
		ExpiresAt: time.Now().Add(s.ttl),
	}, nil
}
