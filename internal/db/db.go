// Package db opens the ledger database. DATABASE_URL selects the dialect:
// postgres://... uses the pgx stdlib driver, sqlite3://path uses mattn/go-sqlite3.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect identifies the SQL flavour behind a *sql.DB.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// SQLiteScheme is the DATABASE_URL prefix for SQLite files.
const SQLiteScheme = "sqlite3://"

const (
	pingTimeout       = 5 * time.Second
	sqliteBusyTimeout = 5000 // ms
)

// ErrEmptyDSN is returned by Open when no DSN is given.
var ErrEmptyDSN = errors.New("db: DATABASE_URL is empty")

// DialectFromDSN returns the dialect implied by the DSN scheme.
func DialectFromDSN(dsn string) Dialect {
	if strings.HasPrefix(strings.TrimSpace(dsn), SQLiteScheme) {
		return DialectSQLite
	}
	return DialectPostgres
}

// Open opens a connection for the given DSN and verifies it with a ping. Caller must call Close when done.
func Open(dsn string) (*sql.DB, Dialect, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, "", ErrEmptyDSN
	}
	dialect := DialectFromDSN(dsn)

	var (
		conn *sql.DB
		err  error
	)
	switch dialect {
	case DialectSQLite:
		conn, err = sql.Open("sqlite3", sqliteConnString(strings.TrimPrefix(dsn, SQLiteScheme)))
		if err == nil {
			// One writer; _txlock=immediate serialises revoke-all-then-insert.
			conn.SetMaxOpenConns(1)
			conn.SetMaxIdleConns(1)
		}
	default:
		conn, err = sql.Open("pgx", dsn)
	}
	if err != nil {
		return nil, "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, "", fmt.Errorf("verifying database connection: %w", err)
	}
	return conn, dialect, nil
}

func sqliteConnString(path string) string {
	pragmas := fmt.Sprintf("_busy_timeout=%d&_foreign_keys=on&_journal_mode=WAL&_txlock=immediate", sqliteBusyTimeout)
	if strings.Contains(path, "?") {
		return "file:" + path + "&" + pragmas
	}
	return "file:" + path + "?" + pragmas
}
