package domain

import (
	"time"

	"github.com/yuriscavalcante/rh360/internal/security"
)

// Class discriminates credential rows in the shared ledger.
type Class string

const (
	ClassSession Class = security.ClassSession
	ClassHandoff Class = security.ClassHandoff
)

// Valid reports whether c is a known class.
func (c Class) Valid() bool {
	return c == ClassSession || c == ClassHandoff
}

// Record is one issued credential in the ledger. Token is the full signed value and the primary key.
type Record struct {
	Token     string
	OwnerID   string
	Class     Class
	Active    bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Live reports whether the row is active and not past ExpiresAt at now.
func (r *Record) Live(now time.Time) bool {
	return r != nil && r.Active && !r.ExpiresAt.Before(now)
}

// Principal is the identity resolved from a valid credential.
type Principal struct {
	ID    string `json:"userId"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Issued is a freshly minted credential returned to the caller.
type Issued struct {
	Token     string
	ExpiresAt time.Time
}
