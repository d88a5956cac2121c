// Package engine decides, with OPA Rego, whether a principal may be issued a credential.
package engine

import (
	"context"

	userdomain "github.com/yuriscavalcante/rh360/internal/user/domain"
)

// Evaluator evaluates issuance policy using OPA or other engines.
type Evaluator interface {
	// AllowIssue reports whether user may receive a credential of class ("session" or "handoff").
	AllowIssue(ctx context.Context, user *userdomain.User, class string) (bool, error)
}
