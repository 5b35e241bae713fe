package api

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Isingizwe12/taskboard/internal/identity"
	"github.com/Isingizwe12/taskboard/internal/mesh"
	"github.com/Isingizwe12/taskboard/internal/store"
)

// Server bundles the collaborators the handlers need.
type Server struct {
	Store       store.Store
	Identity    identity.Provider
	Bus         mesh.Bus
	Idempotency IdempotencyStore
	Logger      *log.Logger
	// RequireAuth puts the task routes behind a bearer token.
	RequireAuth bool

	// Optional dependencies probed by /readyz.
	DB    *sqlx.DB
	Redis *redis.Client
}

// RouterConfig carries HTTP-level settings.
type RouterConfig struct {
	CORSOrigins    []string
	TrustedProxies []string
	Tracing        bool
}

// NewRouter assembles middleware and routes.
func NewRouter(s *Server, cfg RouterConfig) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Tracing {
		router.Use(otelgin.Middleware("taskboard"))
	}
	router.Use(MetricsMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogger(s.Logger))
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	if len(cfg.TrustedProxies) > 0 {
		if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			return nil, err
		}
	}

	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/readyz", s.Readyz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/openapi.json", OpenAPIJSON)

	api := router.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", s.RegisterUser)
		authRoutes.POST("/login", s.LoginUser)
		authRoutes.POST("/logout", s.LogoutUser)
		authRoutes.GET("/session", AuthMiddleware(s.Identity), s.GetSession)
	}

	taskRoutes := api.Group("/tasks")
	if s.RequireAuth {
		taskRoutes.Use(AuthMiddleware(s.Identity))
	}
	{
		taskRoutes.POST("", IdempotencyMiddleware(s.Idempotency), s.CreateTask)
		taskRoutes.GET("", s.ListTasks)
		taskRoutes.PATCH("", s.PatchTask)
		taskRoutes.PATCH("/:id", s.PatchTask)
		taskRoutes.DELETE("", s.DeleteTask)
		taskRoutes.DELETE("/:id", s.DeleteTask)
	}
	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-Idempotent-Replay"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) > 0 {
		cfg.AllowAllOrigins = false
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

// Readyz reports whether the database and Redis (when configured) answer.
func (s *Server) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 300*time.Millisecond)
	defer cancel()
	if s.DB != nil {
		if err := s.DB.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
			return
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": "redis ping failed"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// respondError writes the {message, error?} payload used by every endpoint.
func respondError(c *gin.Context, status int, message string, err error) {
	body := gin.H{"message": message}
	if err != nil {
		body["error"] = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}
