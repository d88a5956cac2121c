package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yuriscavalcante/rh360/internal/credential/domain"
	"github.com/yuriscavalcante/rh360/internal/db"
	"github.com/yuriscavalcante/rh360/internal/logging"
	"github.com/yuriscavalcante/rh360/internal/security"
)

// maxIssueAttempts bounds retries of RevokeAllAndInsert after losing a race on the one-active-session index.
const maxIssueAttempts = 3

const (
	upsertQuery = `INSERT INTO credentials (token, owner_id, class, active, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (token) DO UPDATE SET
			owner_id = excluded.owner_id,
			class = excluded.class,
			active = excluded.active,
			expires_at = excluded.expires_at`
	selectByTokenQuery = `SELECT token, owner_id, class, active, created_at, expires_at
		FROM credentials WHERE token = ?`
	deactivateQuery         = `UPDATE credentials SET active = ? WHERE token = ? AND active = ?`
	deactivateOwnerQuery    = `UPDATE credentials SET active = ? WHERE owner_id = ? AND active = ?`
	deactivateOwnerClsQuery = `UPDATE credentials SET active = ? WHERE owner_id = ? AND class = ? AND active = ?`
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SQLRepository implements Repository on Postgres or SQLite.
type SQLRepository struct {
	db      *sql.DB
	dialect db.Dialect
	nowF    func() time.Time
}

// NewSQLRepository returns a ledger over conn using the given dialect's placeholders.
func NewSQLRepository(conn *sql.DB, dialect db.Dialect) *SQLRepository {
	return &SQLRepository{db: conn, dialect: dialect, nowF: time.Now}
}

func (r *SQLRepository) q(query string) string {
	return db.Rebind(r.dialect, query)
}

// InsertOrUpdate upserts rec. CreatedAt is stamped now when zero.
func (r *SQLRepository) InsertOrUpdate(ctx context.Context, rec *domain.Record) error {
	if err := r.upsert(ctx, r.db, rec); err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %w", ErrActiveSessionConflict, err)
		}
		return fmt.Errorf("upserting credential: %w", err)
	}
	return nil
}

func (r *SQLRepository) upsert(ctx context.Context, ex execer, rec *domain.Record) error {
	if rec == nil || rec.Token == "" || rec.OwnerID == "" || !rec.Class.Valid() {
		return errors.New("credential: record requires token, owner and a known class")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.nowF().UTC()
	}
	_, err := ex.ExecContext(ctx, r.q(upsertQuery),
		rec.Token, rec.OwnerID, string(rec.Class), rec.Active,
		rec.CreatedAt.UTC(), rec.ExpiresAt.UTC(),
	)
	return err
}

// FindByToken returns the record for token, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *SQLRepository) FindByToken(ctx context.Context, token string) (*domain.Record, error) {
	var (
		rec   domain.Record
		class string
	)
	err := r.db.QueryRowContext(ctx, r.q(selectByTokenQuery), token).
		Scan(&rec.Token, &rec.OwnerID, &class, &rec.Active, &rec.CreatedAt, &rec.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding credential: %w", err)
	}
	rec.Class = domain.Class(class)
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.ExpiresAt = rec.ExpiresAt.UTC()
	return &rec, nil
}

// Deactivate marks token inactive; idempotent.
func (r *SQLRepository) Deactivate(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, r.q(deactivateQuery), false, token, true); err != nil {
		return fmt.Errorf("deactivating credential: %w", err)
	}
	return nil
}

// Consume deactivates token only if it is still active and reports whether this call did so.
// Of several concurrent callers at most one sees true.
func (r *SQLRepository) Consume(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.q(deactivateQuery), false, token, true)
	if err != nil {
		return false, fmt.Errorf("consuming credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consuming credential: %w", err)
	}
	return n == 1, nil
}

// DeactivateAllActiveForOwner deactivates every active row of ownerID (of class, unless empty) and returns the count.
func (r *SQLRepository) DeactivateAllActiveForOwner(ctx context.Context, ownerID string, class domain.Class) (int64, error) {
	n, err := r.deactivateOwner(ctx, r.db, ownerID, class)
	if err != nil {
		return 0, fmt.Errorf("deactivating credentials for owner: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) deactivateOwner(ctx context.Context, ex execer, ownerID string, class domain.Class) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if class == "" {
		res, err = ex.ExecContext(ctx, r.q(deactivateOwnerQuery), false, ownerID, true)
	} else {
		res, err = ex.ExecContext(ctx, r.q(deactivateOwnerClsQuery), false, ownerID, string(class), true)
	}
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RevokeAllAndInsert atomically deactivates the owner's active rows of rec.Class and inserts rec.
// A concurrent issuance for the same owner can win the one-active-session index between our UPDATE
// and INSERT; the loser retries so the later login ends up as the single active row.
func (r *SQLRepository) RevokeAllAndInsert(ctx context.Context, rec *domain.Record) error {
	var err error
	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		err = r.revokeAllAndInsertOnce(ctx, rec)
		if err == nil || !db.IsUniqueViolation(err) || ctx.Err() != nil {
			break
		}
		logging.Log().WithFields(logrus.Fields{
			"owner_id":    rec.OwnerID,
			"attempt":     attempt,
			"fingerprint": security.Fingerprint(rec.Token),
		}).Debug("credential: concurrent issuance, retrying")
	}
	if err == nil {
		return nil
	}
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %w", ErrActiveSessionConflict, err)
	}
	return err
}

func (r *SQLRepository) revokeAllAndInsertOnce(ctx context.Context, rec *domain.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning issuance transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is no-op after commit

	if _, err := r.deactivateOwner(ctx, tx, rec.OwnerID, rec.Class); err != nil {
		return fmt.Errorf("revoking previous credentials: %w", err)
	}
	if err := r.upsert(ctx, tx, rec); err != nil {
		return fmt.Errorf("inserting credential: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing issuance: %w", err)
	}
	return nil
}
