package security

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies principal passwords using bcrypt.
type Hasher struct {
	Cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewHasher returns a Hasher with the given bcrypt cost, clamped to bcrypt's bounds.
// Zero or negative selects bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash produces a bcrypt hash of password suitable for the identities table.
func (h *Hasher) Hash(password []byte) (string, error) {
	b, err := bcrypt.GenerateFromPassword(password, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare returns nil if password matches hash, bcrypt.ErrMismatchedHashAndPassword or a parse error otherwise.
func (h *Hasher) Compare(hash string, password []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), password)
}

// CompareDummy burns the same bcrypt work as Compare against a throwaway hash.
// Login calls it when the email is unknown so response time does not reveal which emails exist.
func (h *Hasher) CompareDummy(password []byte) {
	h.dummyOnce.Do(func() {
		h.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("rh360-dummy-password"), h.Cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, password)
}
