package db

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Connection wraps a database handle for either supported backend. Postgres
// is the production target; SQLite serves local runs and ad hoc analysis of a
// single run's output.
type Connection struct {
	DB     *sqlx.DB
	Driver string
}

// NewPostgresConnection opens the Postgres backend from PG* environment
// variables.
func NewPostgresConnection() (*Connection, error) {
	host := getEnvOrDefault("PGHOST", "localhost")
	port := getEnvOrDefault("PGPORT", "5432")
	user := getEnvOrDefault("PGUSER", "counselmatch")
	password := getEnvOrDefault("PGPASSWORD", "counselmatch")
	dbname := getEnvOrDefault("PGDATABASE", "counselmatch")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	conn, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(20)
	conn.SetMaxIdleConns(10)

	return &Connection{DB: conn, Driver: "postgres"}, nil
}

// NewSQLiteConnection opens or creates a SQLite database file.
func NewSQLiteConnection(path string) (*Connection, error) {
	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	// The sqlite driver serializes writes; one connection avoids lock errors.
	conn.SetMaxOpenConns(1)

	return &Connection{DB: conn, Driver: "sqlite"}, nil
}

// Close closes the database connection.
func (c *Connection) Close() error {
	return c.DB.Close()
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
