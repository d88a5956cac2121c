package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yuriscavalcante/rh360/internal/db"
	"github.com/yuriscavalcante/rh360/internal/identity/domain"
)

const (
	selectIdentityQuery = `SELECT id, user_id, provider, provider_id, password_hash, created_at
		FROM identities WHERE user_id = ? AND provider = ?`
	insertIdentityQuery = `INSERT INTO identities (id, user_id, provider, provider_id, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
)

// SQLRepository stores identities in Postgres or SQLite.
type SQLRepository struct {
	db      *sql.DB
	dialect db.Dialect
}

// NewSQLRepository returns an identity repository that uses conn for persistence.
func NewSQLRepository(conn *sql.DB, dialect db.Dialect) *SQLRepository {
	return &SQLRepository{db: conn, dialect: dialect}
}

// GetByUserAndProvider returns the identity, or nil if the user has none for provider.
func (r *SQLRepository) GetByUserAndProvider(ctx context.Context, userID string, provider domain.IdentityProvider) (*domain.Identity, error) {
	var (
		i     domain.Identity
		prov  string
		phash sql.NullString
	)
	err := r.db.QueryRowContext(ctx, db.Rebind(r.dialect, selectIdentityQuery), userID, string(provider)).
		Scan(&i.ID, &i.UserID, &prov, &i.ProviderID, &phash, &i.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying identity: %w", err)
	}
	i.Provider = domain.IdentityProvider(prov)
	i.PasswordHash = phash.String
	i.CreatedAt = i.CreatedAt.UTC()
	return &i, nil
}

// Create persists i. The identity must have ID set.
func (r *SQLRepository) Create(ctx context.Context, i *domain.Identity) error {
	if i == nil || i.ID == "" || i.UserID == "" {
		return errors.New("identity: id and user id are required")
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	phash := sql.NullString{String: i.PasswordHash, Valid: i.PasswordHash != ""}
	_, err := r.db.ExecContext(ctx, db.Rebind(r.dialect, insertIdentityQuery),
		i.ID, i.UserID, string(i.Provider), i.ProviderID, phash, i.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting identity: %w", err)
	}
	return nil
}
