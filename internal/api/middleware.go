package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Isingizwe12/taskboard/internal/identity"
)

type requestIDKey struct{}

// AuthMiddleware requires a valid, non-revoked bearer token and stores the
// resolved identity.User under "user".
func AuthMiddleware(p identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}", nil)
			return
		}
		u, err := p.Authenticate(c.Request.Context(), token)
		if errors.Is(err, identity.ErrInvalidToken) {
			respondError(c, http.StatusUnauthorized, identity.ErrInvalidToken.Error(), nil)
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to verify session", err)
			return
		}
		c.Set("user", u)
		c.Next()
	}
}

// RequestIDMiddleware ensures every request has an X-Request-ID. If absent, generate one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.New().String()
		}
		ctx := context.WithValue(c.Request.Context(), requestIDKey{}, rid)
		c.Request = c.Request.WithContext(ctx)
		c.Set("requestID", rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"request_id", c.GetString("requestID"),
		}
		switch {
		case status >= 500:
			logger.Error("request", fields...)
		case status >= 400:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}
