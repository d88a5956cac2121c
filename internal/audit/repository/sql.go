package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yuriscavalcante/rh360/internal/audit/domain"
	"github.com/yuriscavalcante/rh360/internal/db"
)

const (
	insertAuditQuery = `INSERT INTO audit_logs (id, user_id, action, resource, ip, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	listByUserQuery = `SELECT id, user_id, action, resource, ip, metadata, created_at
		FROM audit_logs WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`
)

// SQLRepository stores audit logs in Postgres or SQLite.
type SQLRepository struct {
	db      *sql.DB
	dialect db.Dialect
}

// NewSQLRepository returns an audit log repository that uses conn for persistence.
func NewSQLRepository(conn *sql.DB, dialect db.Dialect) *SQLRepository {
	return &SQLRepository{db: conn, dialect: dialect}
}

// Create persists a. The entry must have ID set.
func (r *SQLRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	if a == nil || a.ID == "" {
		return errors.New("audit: entry requires an id")
	}
	uid := sql.NullString{String: a.UserID, Valid: a.UserID != ""}
	meta := sql.NullString{String: a.Metadata, Valid: a.Metadata != ""}
	_, err := r.db.ExecContext(ctx, db.Rebind(r.dialect, insertAuditQuery),
		a.ID, uid, a.Action, a.Resource, a.IP, meta, a.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting audit log: %w", err)
	}
	return nil
}

// ListByUser returns audit logs for userID, paginated by limit and offset.
func (r *SQLRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, db.Rebind(r.dialect, listByUserQuery), userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing audit logs: %w", err)
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		var (
			a    domain.AuditLog
			uid  sql.NullString
			meta sql.NullString
		)
		if err := rows.Scan(&a.ID, &uid, &a.Action, &a.Resource, &a.IP, &meta, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit log: %w", err)
		}
		a.UserID = uid.String
		a.Metadata = meta.String
		a.CreatedAt = a.CreatedAt.UTC()
		out = append(out, &a)
	}
	return out, rows.Err()
}
