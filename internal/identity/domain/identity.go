package domain

import "time"

// Identity links a user to a way of proving who they are. Only local password identities can log in here.
type Identity struct {
	ID           string
	UserID       string
	Provider     IdentityProvider
	ProviderID   string
	PasswordHash string // empty if not local
	CreatedAt    time.Time
}

type IdentityProvider string

const (
	IdentityProviderLocal IdentityProvider = "local"
	IdentityProviderOIDC  IdentityProvider = "oidc"
)
