// Package dbtest provides a migrated SQLite database for package tests.
package dbtest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/yuriscavalcante/rh360/internal/db"
	"github.com/yuriscavalcante/rh360/internal/db/migrate"
)

// Open creates a temp-file SQLite database, applies all migrations, and closes it on cleanup.
// A file is used instead of :memory: so WAL and multiple pool connections share one database.
func Open(t testing.TB) *sql.DB {
	t.Helper()

	dsn := db.SQLiteScheme + filepath.Join(t.TempDir(), "test.db")
	if err := migrate.Run(dsn, "up"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	conn, _, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}
