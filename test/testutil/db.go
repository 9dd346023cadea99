package testutil

import (
	"database/sql"
	"os"
	"testing"

	"github.com/keenlabs/docvec/internal/config"
	"github.com/keenlabs/docvec/internal/db"
)

// OpenTestDB connects to the postgres instance named by TEST_DB_HOST and
// applies migrations. The instance must have the pgvector extension
// available. Tests are skipped when the variable is unset.
func OpenTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "docvec",
		Password: "docvec_pass",
		DBName:   "docvec_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	if _, err := conn.Exec("DELETE FROM documents"); err != nil {
		t.Fatalf("reset documents: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
	}
}
