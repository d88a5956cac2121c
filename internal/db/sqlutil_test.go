package db

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestRebind(t *testing.T) {
	q := "UPDATE credentials SET active = ? WHERE owner_id = ? AND class = ?"
	if got := Rebind(DialectSQLite, q); got != q {
		t.Errorf("sqlite Rebind changed query: %q", got)
	}
	want := "UPDATE credentials SET active = $1 WHERE owner_id = $2 AND class = $3"
	if got := Rebind(DialectPostgres, q); got != want {
		t.Errorf("postgres Rebind = %q, want %q", got, want)
	}
}

func TestIsUniqueViolation_Postgres(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if !IsUniqueViolation(err) {
		t.Error("wrapped 23505 should be a unique violation")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("foreign key violation is not a unique violation")
	}
	if IsUniqueViolation(nil) || IsUniqueViolation(errors.New("boom")) {
		t.Error("nil and plain errors are not unique violations")
	}
}

func TestIsUniqueViolation_SQLite(t *testing.T) {
	conn, _, err := Open(SQLiteScheme + filepath.Join(t.TempDir(), "u.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Exec("CREATE TABLE t (k TEXT PRIMARY KEY, v TEXT UNIQUE)"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := conn.Exec("INSERT INTO t (k, v) VALUES ('a', 'x')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_, err = conn.Exec("INSERT INTO t (k, v) VALUES ('b', 'x')")
	if !IsUniqueViolation(err) {
		t.Errorf("duplicate unique column: IsUniqueViolation(%v) = false", err)
	}
	_, err = conn.Exec("INSERT INTO t (k, v) VALUES ('a', 'y')")
	if !IsUniqueViolation(err) {
		t.Errorf("duplicate primary key: IsUniqueViolation(%v) = false", err)
	}
}
