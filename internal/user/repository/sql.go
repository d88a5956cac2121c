package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yuriscavalcante/rh360/internal/db"
	"github.com/yuriscavalcante/rh360/internal/user/domain"
)

// ErrUserNotFound is returned by Disable when no user has the id.
var ErrUserNotFound = errors.New("user: not found")

const (
	userColumns      = `id, email, name, role, status, created_at, updated_at`
	selectByIDQuery  = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	selectByEmailQry = `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	insertUserQuery  = `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	disableUserQuery = `UPDATE users SET status = ?, updated_at = ? WHERE id = ?`
	revokeOwnerQuery = `UPDATE credentials SET active = ? WHERE owner_id = ? AND active = ?`
)

// SQLRepository stores users in Postgres or SQLite.
type SQLRepository struct {
	db      *sql.DB
	dialect db.Dialect
	nowF    func() time.Time
}

// NewSQLRepository returns a user repository that uses conn for persistence.
func NewSQLRepository(conn *sql.DB, dialect db.Dialect) *SQLRepository {
	return &SQLRepository{db: conn, dialect: dialect, nowF: time.Now}
}

func (r *SQLRepository) q(query string) string { return db.Rebind(r.dialect, query) }

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *SQLRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, r.q(selectByIDQuery), id))
}

// GetByEmail returns the user for the normalized email, or nil if not found.
func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, r.q(selectByEmailQry), domain.NormalizeEmail(email)))
}

func (r *SQLRepository) scanOne(row *sql.Row) (*domain.User, error) {
	var (
		u      domain.User
		status string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &status, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	u.Status = domain.UserStatus(status)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

// Create persists u. The email is normalized; timestamps default to now.
func (r *SQLRepository) Create(ctx context.Context, u *domain.User) error {
	u.Email = domain.NormalizeEmail(u.Email)
	if err := u.Validate(); err != nil {
		return err
	}
	now := r.nowF().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	_, err := r.db.ExecContext(ctx, r.q(insertUserQuery),
		u.ID, u.Email, u.Name, u.Role, string(u.Status), u.CreatedAt.UTC(), u.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// Disable sets status to disabled and deactivates every active credential owned by id.
func (r *SQLRepository) Disable(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin disable: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, r.q(disableUserQuery), string(domain.UserStatusDisabled), r.nowF().UTC(), id)
	if err != nil {
		return fmt.Errorf("disabling user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	if _, err := tx.ExecContext(ctx, r.q(revokeOwnerQuery), false, id, true); err != nil {
		return fmt.Errorf("deactivating credentials: %w", err)
	}
	return tx.Commit()
}
