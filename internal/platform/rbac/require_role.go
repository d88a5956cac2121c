// Package rbac checks the role carried by the authenticated principal.
package rbac

import (
	"context"
	"errors"

	"github.com/yuriscavalcante/rh360/internal/guard"
)

// Roles known to the service.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	// ErrUnauthenticated is returned when no principal is in context.
	ErrUnauthenticated = errors.New("rbac: principal required")
	// ErrForbidden is returned when the principal holds none of the required roles.
	ErrForbidden = errors.New("rbac: role not allowed")
)

// RequireRole ensures the caller is authenticated and holds one of roles.
// Returns the principal on success.
func RequireRole(ctx context.Context, roles ...string) (guard.Principal, error) {
	p, ok := guard.PrincipalFrom(ctx)
	if !ok || p.ID == "" {
		return guard.Principal{}, ErrUnauthenticated
	}
	for _, r := range roles {
		if p.Role == r {
			return p, nil
		}
	}
	return guard.Principal{}, ErrForbidden
}

// RequireAdmin is RequireRole(ctx, RoleAdmin).
func RequireAdmin(ctx context.Context) (guard.Principal, error) {
	return RequireRole(ctx, RoleAdmin)
}
