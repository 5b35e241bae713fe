package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"

	database "github.com/Isingizwe12/taskboard/internal"
	"github.com/Isingizwe12/taskboard/internal/config"
	"github.com/Isingizwe12/taskboard/internal/logging"
)

func main() {
	logger := logging.New(os.Stderr, os.Getenv("LOG_LEVEL"), "migrate")
	if err := config.LoadDotEnv(); err != nil {
		logger.Debug("no .env file loaded", "err", err)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}
	if cfg.StoreDriver != "postgres" {
		logger.Info("store driver is not postgres, nothing to migrate", "driver", cfg.StoreDriver)
		return
	}
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database", "err", err)
	}
	defer database.Close()

	dir := filepath.Join("db", "migrations")
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	n, err := migrate(db, logger, dir)
	if err != nil {
		logger.Fatal("migration failed", "err", err)
	}
	logger.Info("migrations applied", "count", n)
}

// migrate applies every pending goose-style file under dir in name order.
func migrate(db *sqlx.DB, logger *log.Logger, dir string) (int, error) {
	if _, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS schema_migrations (
            version TEXT PRIMARY KEY,
            applied_at timestamptz NOT NULL DEFAULT now()
        )
    `); err != nil {
		return 0, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	files, err := collectSQLFiles(dir)
	if err != nil {
		return 0, err
	}
	var applied []string
	if err := db.Select(&applied, "SELECT version FROM schema_migrations"); err != nil {
		return 0, fmt.Errorf("query schema_migrations: %w", err)
	}
	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	count := 0
	for _, f := range files {
		name := filepath.Base(f)
		if done[name] {
			continue
		}
		b, err := os.ReadFile(f)
		if err != nil {
			return count, err
		}
		up := gooseUp(string(b))
		logger.Info("applying migration", "file", name)
		tx, err := db.Beginx()
		if err != nil {
			return count, err
		}
		for _, stmt := range splitStatements(up) {
			if _, err := tx.Exec(stmt); err != nil {
				_ = tx.Rollback()
				return count, fmt.Errorf("%s: %w", name, err)
			}
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations(version) VALUES ($1) ON CONFLICT (version) DO NOTHING", name); err != nil {
			_ = tx.Rollback()
			return count, err
		}
		if err := tx.Commit(); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func collectSQLFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// gooseUp returns the text between "-- +goose Up" and "-- +goose Down".
// Files without markers are treated as entirely Up.
func gooseUp(content string) string {
	lower := strings.ToLower(content)
	upIdx := strings.Index(lower, "-- +goose up")
	if upIdx == -1 {
		return content
	}
	rest := content[upIdx:]
	if nl := strings.Index(rest, "\n"); nl != -1 {
		rest = rest[nl+1:]
	} else {
		rest = ""
	}
	if down := strings.Index(strings.ToLower(rest), "-- +goose down"); down != -1 {
		rest = rest[:down]
	}
	return rest
}

func splitStatements(sql string) []string {
	var out []string
	for _, raw := range strings.Split(sql, ";") {
		if stmt := strings.TrimSpace(raw); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
