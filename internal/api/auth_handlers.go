package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Isingizwe12/taskboard/internal/identity"
)

// RegisterUser handles POST /api/auth/register
func (s *Server) RegisterUser(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Email and password are required", nil)
		return
	}
	sess, err := s.Identity.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidEmail), errors.Is(err, identity.ErrWeakPassword):
			respondError(c, http.StatusBadRequest, err.Error(), nil)
		case errors.Is(err, identity.ErrEmailInUse):
			respondError(c, http.StatusConflict, err.Error(), nil)
		default:
			s.Logger.Error("register failed", "err", err)
			respondError(c, http.StatusInternalServerError, "Registration failed", err)
		}
		return
	}
	c.JSON(http.StatusCreated, SessionResponse{
		Message:   "User registered successfully",
		Token:     sess.Token,
		User:      sess.User,
		ExpiresAt: sess.ExpiresAt,
	})
}

// LoginUser handles POST /api/auth/login
func (s *Server) LoginUser(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Email and password are required", nil)
		return
	}
	sess, err := s.Identity.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, err.Error(), nil)
			return
		}
		s.Logger.Error("login failed", "err", err)
		respondError(c, http.StatusInternalServerError, "Login failed", err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{
		Message:   "Login successful",
		Token:     sess.Token,
		User:      sess.User,
		ExpiresAt: sess.ExpiresAt,
	})
}

// LogoutUser handles POST /api/auth/logout. It succeeds even without a usable token.
func (s *Server) LogoutUser(c *gin.Context) {
	if token, ok := bearerToken(c); ok {
		if err := s.Identity.Logout(c.Request.Context(), token); err != nil {
			s.Logger.Error("logout failed", "err", err)
			respondError(c, http.StatusInternalServerError, "Logout failed", err)
			return
		}
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out"})
}

// GetSession handles GET /api/auth/session; AuthMiddleware has already run.
func (s *Server) GetSession(c *gin.Context) {
	u, ok := c.Get("user")
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
