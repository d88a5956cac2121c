package migrate

import (
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestRun_EmptyDSN(t *testing.T) {
	for _, dsn := range []string{"", "   "} {
		err := Run(dsn, "up")
		if err == nil {
			t.Fatalf("Run(%q) should return error", dsn)
		}
		if !strings.Contains(err.Error(), "DATABASE_URL is not set") {
			t.Errorf("error = %q, should mention DATABASE_URL", err.Error())
		}
	}
}

func TestRun_InvalidDirection(t *testing.T) {
	for _, direction := range []string{"", "invalid", "UP", "Up", "both"} {
		t.Run(direction, func(t *testing.T) {
			err := Run("sqlite3://"+filepath.Join(t.TempDir(), "x.db"), direction)
			if err == nil {
				t.Fatalf("Run with direction %q should return error", direction)
			}
			if !strings.Contains(err.Error(), "direction") {
				t.Errorf("error = %q, should mention direction", err.Error())
			}
		})
	}
}

func TestRun_SQLiteUpDown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	dsn := "sqlite3://" + path

	if err := Run(dsn, "up"); err != nil {
		t.Fatalf("Run up: %v", err)
	}
	// Second run is a no-op and must not surface ErrNoChange.
	if err := Run(dsn, "up"); err != nil {
		t.Fatalf("Run up again: %v", err)
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()

	for _, table := range []string{"users", "identities", "credentials", "audit_logs"} {
		var name string
		err := conn.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing after up: %v", table, err)
		}
	}

	if err := Run(dsn, "down"); err != nil {
		t.Fatalf("Run down: %v", err)
	}
	var n int
	if err := conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'credentials'").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("credentials table still present after down")
	}
}

func TestRun_InvalidPostgresDSN(t *testing.T) {
	err := Run("postgres://localhost with spaces/test", "up")
	if err == nil {
		t.Fatal("Run with malformed DSN should return error")
	}
	if errors.Is(err, ErrNoChange) {
		t.Error("Run should never return ErrNoChange")
	}
}
