package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the server configuration, read from the environment.
type Config struct {
	Port           string
	StoreDriver    string // postgres | memory
	DatabaseURL    string
	JWTSecret      string
	TokenTTL       time.Duration
	RequireAuth    bool
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	NATSURL        string
	CORSOrigins    []string
	TrustedProxies []string
	OTelEndpoint   string
	LogLevel       string
}

// LoadDotEnv loads .env from the working directory into the environment.
// A failure is not fatal: variables may be set in the system environment.
func LoadDotEnv() error {
	return godotenv.Load(".env")
}

// FromEnv builds a Config from the process environment.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:           firstNonEmpty(os.Getenv("PORT"), os.Getenv("TASKBOARD_PORT"), "8081"),
		StoreDriver:    strings.ToLower(firstNonEmpty(os.Getenv("STORE_DRIVER"), "postgres")),
		JWTSecret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
		TokenTTL:       72 * time.Hour,
		RequireAuth:    envBool("TASKS_REQUIRE_AUTH"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        envInt("REDIS_DB", 0),
		NATSURL:        os.Getenv("NATS_URL"),
		CORSOrigins:    splitList(os.Getenv("CORS_ORIGINS")),
		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),
		OTelEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		LogLevel:       firstNonEmpty(os.Getenv("LOG_LEVEL"), "info"),
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = d
	}

	switch cfg.StoreDriver {
	case "memory":
	case "postgres":
		dsn, err := databaseURL()
		if err != nil {
			return Config{}, err
		}
		cfg.DatabaseURL = dsn
	default:
		return Config{}, fmt.Errorf("STORE_DRIVER must be postgres or memory, got %q", cfg.StoreDriver)
	}

	if cfg.JWTSecret == "" {
		if envBool("STRICT_JWT") {
			return Config{}, fmt.Errorf("JWT_SECRET environment variable not set")
		}
		cfg.JWTSecret = "dev_jwt_secret_123"
	}
	return cfg, nil
}

// databaseURL prefers DATABASE_URL, otherwise assembles a DSN from DB_* variables.
func databaseURL() (string, error) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v, nil
	}
	password := os.Getenv("DB_PASSWORD")
	if password == "" {
		return "", fmt.Errorf("DB_PASSWORD environment variable is not set")
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		firstNonEmpty(os.Getenv("DB_HOST"), "localhost"),
		firstNonEmpty(os.Getenv("DB_PORT"), "5432"),
		firstNonEmpty(os.Getenv("DB_USER"), "taskboard"),
		password,
		firstNonEmpty(os.Getenv("DB_NAME"), "taskboard"),
		firstNonEmpty(os.Getenv("DB_SSLMODE"), "disable"),
	), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func envBool(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	return strings.EqualFold(v, "1") || strings.EqualFold(v, "true")
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
