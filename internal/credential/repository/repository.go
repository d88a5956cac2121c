package repository

import (
	"context"
	"errors"

	"github.com/yuriscavalcante/rh360/internal/credential/domain"
)

// ErrActiveSessionConflict is returned when an insert would leave two active session rows for one owner.
var ErrActiveSessionConflict = errors.New("credential: owner already has an active session")

// Repository is the credential ledger.
type Repository interface {
	// InsertOrUpdate upserts by token: an existing row gets owner, class, active and expiry replaced.
	InsertOrUpdate(ctx context.Context, r *domain.Record) error
	// FindByToken returns the row for token, or nil if none exists.
	FindByToken(ctx context.Context, token string) (*domain.Record, error)
	// Deactivate marks one row inactive. Missing or already-inactive rows are not an error.
	Deactivate(ctx context.Context, token string) error
	// Consume deactivates an active row and reports whether this call was the one that did it.
	Consume(ctx context.Context, token string) (bool, error)
	// DeactivateAllActiveForOwner is a single conditional UPDATE; an empty class matches every class.
	DeactivateAllActiveForOwner(ctx context.Context, ownerID string, class domain.Class) (int64, error)
	// RevokeAllAndInsert deactivates the owner's active rows of r.Class and inserts r in one transaction.
	RevokeAllAndInsert(ctx context.Context, r *domain.Record) error
}
