package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	bolt "go.etcd.io/bbolt"
)

// NewTestDB creates a fresh in-memory SQLite database with the schema applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}

// NewTestBolt creates a bbolt database in the test's temp directory.
func NewTestBolt(t *testing.T) *bolt.DB {
	t.Helper()

	db, err := OpenBolt(filepath.Join(t.TempDir(), "vendart.db"))
	if err != nil {
		t.Fatalf("opening test bolt database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}
