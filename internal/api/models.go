package api

import (
	"time"

	"github.com/Isingizwe12/taskboard/internal/identity"
	"github.com/Isingizwe12/taskboard/internal/task"
)

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	Message   string        `json:"message"`
	Token     string        `json:"token"`
	User      identity.User `json:"user"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

// MessageResponse is the plain acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// PatchResponse acknowledges an update and carries the merged record.
type PatchResponse struct {
	Message string    `json:"message"`
	Task    task.Task `json:"task"`
}
