package repository

import (
	"context"

	"github.com/yuriscavalcante/rh360/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// Disable marks the user disabled and deactivates all of its credentials in the same transaction.
	Disable(ctx context.Context, id string) error
}
