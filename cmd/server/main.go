package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	database "github.com/Isingizwe12/taskboard/internal"
	"github.com/Isingizwe12/taskboard/internal/api"
	"github.com/Isingizwe12/taskboard/internal/config"
	"github.com/Isingizwe12/taskboard/internal/identity"
	"github.com/Isingizwe12/taskboard/internal/logging"
	"github.com/Isingizwe12/taskboard/internal/mesh"
	"github.com/Isingizwe12/taskboard/internal/store"
)

func main() {
	logger := logging.New(os.Stderr, os.Getenv("LOG_LEVEL"), "taskboard")
	if err := config.LoadDotEnv(); err != nil {
		logger.Warn("no .env file loaded, relying on system environment", "err", err)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}
	logger.SetLevel(logging.ParseLevel(cfg.LogLevel))
	gin.SetMode(gin.ReleaseMode)

	srv := &api.Server{Logger: logger, RequireAuth: cfg.RequireAuth}

	var users identity.UserRepo
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("using in-memory store; data is lost on restart")
		srv.Store = store.NewMemoryStore()
		users = identity.NewMemoryUsers()
	default:
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database", "err", err)
		}
		defer database.Close()
		logger.Info("connected to database")
		srv.DB = db
		srv.Store = store.NewPostgresStore(db)
		users = identity.NewPostgresUsers(db)
	}

	purgers := map[string]api.Purger{}
	var revoker identity.Revoker
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()
		srv.Redis = rdb
		revoker = identity.NewRedisRevoker(rdb)
		srv.Idempotency = api.GuardedIdempotency{
			Store:   api.NewRedisIdempotency(rdb),
			Breaker: api.NewCircuitBreaker("redis_idempotency", 3, 30*time.Second),
		}
		logger.Info("using redis for revocations and idempotency", "addr", cfg.RedisAddr)
	} else {
		mr := identity.NewMemoryRevoker()
		mi := api.NewMemoryIdempotency()
		revoker, srv.Idempotency = mr, mi
		purgers["revocations"] = mr
		purgers["idempotency"] = mi
	}
	srv.Identity = identity.NewService(users, revoker, []byte(cfg.JWTSecret), cfg.TokenTTL)

	var bus mesh.Bus = mesh.NewLocalBus()
	if cfg.NATSURL != "" {
		nb, err := mesh.NewNatsBus(cfg.NATSURL)
		if err != nil {
			logger.Warn("nats unavailable, falling back to local bus", "err", err)
		} else {
			bus = nb
			logger.Info("publishing task events to nats", "url", cfg.NATSURL)
		}
	}
	defer bus.Close()
	srv.Bus = bus
	unsubscribe, err := api.SubscribeTaskMetrics(bus)
	if err != nil {
		logger.Fatal("subscribe task metrics", "err", err)
	}
	defer unsubscribe()

	if len(purgers) > 0 {
		janitor, err := api.StartJanitor("@every 10m", logger, purgers)
		if err != nil {
			logger.Fatal("janitor", "err", err)
		}
		defer janitor.Stop()
	}

	tracing := false
	if cfg.OTelEndpoint != "" {
		shutdown, err := api.SetupOTel(context.Background(), cfg.OTelEndpoint)
		if err != nil {
			logger.Warn("tracing disabled", "err", err)
		} else {
			tracing = true
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	router, err := api.NewRouter(srv, api.RouterConfig{
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: cfg.TrustedProxies,
		Tracing:        tracing,
	})
	if err != nil {
		logger.Fatal("router", "err", err)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("starting taskboard server", "addr", httpServer.Addr, "store", cfg.StoreDriver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Info("signal received, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}
