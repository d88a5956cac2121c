// Package guard turns a presented credential into a Principal on the request context, or refuses the request.
package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yuriscavalcante/rh360/internal/credential/domain"
	credservice "github.com/yuriscavalcante/rh360/internal/credential/service"
	"github.com/yuriscavalcante/rh360/internal/logging"
	"github.com/yuriscavalcante/rh360/internal/security"
)

// GenericMessage is the only rejection text clients ever see.
const GenericMessage = "missing or invalid credentials"

var (
	// ErrUnauthenticated means the credential is missing or invalid, for whatever reason.
	ErrUnauthenticated = errors.New("guard: unauthenticated")
	// ErrUnavailable means the credential could not be checked; callers should retry.
	ErrUnavailable = errors.New("guard: credential store unavailable")
)

// Principal is the authenticated identity attached to a request.
type Principal = domain.Principal

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal set by a guard, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Validator is implemented by the session and hand-off authorities.
type Validator interface {
	Validate(ctx context.Context, token string) (credservice.Result, error)
}

// Guard checks credentials of one class.
type Guard struct {
	validator Validator
	class     domain.Class
}

// Session returns a Guard that accepts only session credentials.
func Session(v Validator) *Guard { return &Guard{validator: v, class: domain.ClassSession} }

// Handoff returns a Guard that accepts only hand-off credentials.
func Handoff(v Validator) *Guard { return &Guard{validator: v, class: domain.ClassHandoff} }

// Check validates raw and returns its principal. Errors are ErrUnauthenticated or ErrUnavailable.
func (g *Guard) Check(ctx context.Context, raw string) (Principal, error) {
	if raw == "" {
		return Principal{}, ErrUnauthenticated
	}
	res, err := g.validator.Validate(ctx, raw)
	if err != nil {
		logging.Log().WithFields(logrus.Fields{
			"class":       string(g.class),
			"fingerprint": security.Fingerprint(raw),
		}).WithError(err).Error("guard: credential check failed")
		return Principal{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if !res.OK() {
		logging.Log().WithFields(logrus.Fields{
			"class":       string(g.class),
			"reason":      res.Reason.String(),
			"fingerprint": security.Fingerprint(raw),
		}).Info("guard: credential rejected")
		return Principal{}, ErrUnauthenticated
	}
	return res.Principal, nil
}
