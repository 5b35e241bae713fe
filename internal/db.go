package database

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
)

// DB holds the connection pool opened by Connect.
var DB *sqlx.DB

// Connect opens and pings the Postgres pool and stores it in DB.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	DB = db
	return db, nil
}

// Close closes DB if it was opened.
func Close() error {
	if DB == nil {
		return nil
	}
	return DB.Close()
}
