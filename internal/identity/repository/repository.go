package repository

import (
	"context"

	"github.com/yuriscavalcante/rh360/internal/identity/domain"
)

// Repository defines persistence for identities.
type Repository interface {
	GetByUserAndProvider(ctx context.Context, userID string, provider domain.IdentityProvider) (*domain.Identity, error)
	Create(ctx context.Context, i *domain.Identity) error
}
