package domain

import (
	"errors"
	"strings"
	"time"
)

// User is a principal that can hold credentials.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      string
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// DefaultRole is assigned when a user is created without one.
const DefaultRole = "user"

// NormalizeEmail trims and lowercases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.ID == "" {
		return errors.New("id is required")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Role == "" {
		u.Role = DefaultRole
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	if u.Status != UserStatusActive && u.Status != UserStatusDisabled {
		return errors.New("unknown status")
	}
	return nil
}

// Active reports whether the user may be issued credentials.
func (u *User) Active() bool {
	return u != nil && u.Status == UserStatusActive
}
