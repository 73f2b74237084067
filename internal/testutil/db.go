package testutil

import (
	"database/sql"
	"os"
	"testing"

	"github.com/grubyapp/gruby/internal/config"
	"github.com/grubyapp/gruby/internal/db"
)

// OpenTestDB returns a migrated in-memory SQLite database closed at test cleanup.
func OpenTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// OpenPostgresDB connects to the database named by TEST_DB_* and skips when unset.
func OpenPostgresDB(t *testing.T) *sql.DB {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Driver:   "postgres",
		Host:     host,
		Port:     5432,
		User:     envOr("TEST_DB_USER", "gruby"),
		Password: envOr("TEST_DB_PASSWORD", "gruby_pass"),
		DBName:   envOr("TEST_DB_NAME", "gruby_test"),
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
