// Package service resolves presented credentials to principals against the signed claims and the ledger.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yuriscavalcante/rh360/internal/audit"
	"github.com/yuriscavalcante/rh360/internal/credential/domain"
	"github.com/yuriscavalcante/rh360/internal/credential/repository"
	"github.com/yuriscavalcante/rh360/internal/logging"
	"github.com/yuriscavalcante/rh360/internal/security"
	"github.com/yuriscavalcante/rh360/internal/telemetry"
	teldomain "github.com/yuriscavalcante/rh360/internal/telemetry/domain"
)

// DefaultLedgerTimeout bounds a ledger round trip when none is configured.
const DefaultLedgerTimeout = 2 * time.Second

// ErrUnavailable means the ledger could not be consulted. It is never reported as an invalid credential.
var ErrUnavailable = errors.New("credential: ledger unavailable")

// Result is the outcome of a validation. Principal is set only when OK.
type Result struct {
	Principal domain.Principal
	Reason    domain.Reason
}

// OK reports whether the credential was accepted.
func (r Result) OK() bool { return r.Reason == domain.ReasonNone }

func reject(reason domain.Reason) Result { return Result{Reason: reason} }

// Observers receive validation outcomes. Every field is optional.
type Observers struct {
	Audit   audit.AuditLogger
	Events  telemetry.EventEmitter
	Metrics *telemetry.CredentialMetrics
}

// Verifier runs the validity chain shared by the session and hand-off authorities.
type Verifier struct {
	codec   *security.Codec
	ledger  repository.Repository
	timeout time.Duration
	obs     Observers
}

// NewVerifier returns a Verifier. A non-positive ledgerTimeout uses DefaultLedgerTimeout.
func NewVerifier(codec *security.Codec, ledger repository.Repository, ledgerTimeout time.Duration, obs Observers) *Verifier {
	if ledgerTimeout <= 0 {
		ledgerTimeout = DefaultLedgerTimeout
	}
	return &Verifier{codec: codec, ledger: ledger, timeout: ledgerTimeout, obs: obs}
}

// Codec returns the codec the verifier checks signatures with.
func (v *Verifier) Codec() *security.Codec { return v.codec }

// Ledger returns the credential ledger.
func (v *Verifier) Ledger() repository.Repository { return v.ledger }

// WithLedgerTimeout derives a context bounded by the ledger timeout.
func (v *Verifier) WithLedgerTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, v.timeout)
}

// Verify checks token against expected. It returns ErrUnavailable (wrapped) when the ledger fails
// or times out, and security.ErrConfig when the codec has no secret. Every other failure is a Result reason.
func (v *Verifier) Verify(ctx context.Context, token string, expected domain.Class) (Result, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return v.rejected(ctx, expected, "", domain.ReasonMalformed), nil
	}

	claims, err := v.codec.Verify(token)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrConfig):
			return Result{}, err
		case errors.Is(err, security.ErrExpired):
			return v.rejected(ctx, expected, token, domain.ReasonExpired), nil
		case errors.Is(err, security.ErrInvalidSignature):
			return v.rejected(ctx, expected, token, domain.ReasonInvalidSignature), nil
		default:
			return v.rejected(ctx, expected, token, domain.ReasonMalformed), nil
		}
	}
	if domain.Class(claims.Class) != expected {
		return v.rejected(ctx, expected, token, domain.ReasonClassMismatch), nil
	}

	lctx, cancel := v.WithLedgerTimeout(ctx)
	defer cancel()
	rec, err := v.ledger.FindByToken(lctx, token)
	if err != nil {
		logging.Log().WithFields(logrus.Fields{
			"class":       string(expected),
			"fingerprint": security.Fingerprint(token),
		}).WithError(err).Error("credential: ledger lookup failed")
		return Result{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	switch {
	case rec == nil:
		return v.rejected(ctx, expected, token, domain.ReasonNotFound), nil
	case rec.OwnerID != claims.PrincipalID():
		v.tamper(ctx, expected, token, claims.PrincipalID(), rec.OwnerID)
		return v.rejected(ctx, expected, token, domain.ReasonOwnerMismatch), nil
	case rec.Class != expected:
		return v.rejected(ctx, expected, token, domain.ReasonClassMismatch), nil
	case !rec.Active:
		return v.rejected(ctx, expected, token, domain.ReasonInactive), nil
	case rec.ExpiresAt.Before(v.codec.Now()):
		return v.rejected(ctx, expected, token, domain.ReasonExpired), nil
	}

	v.obs.Metrics.Validated(ctx, string(expected), domain.ReasonNone.String())
	return Result{
		Principal: domain.Principal{ID: claims.PrincipalID(), Email: claims.Email, Role: claims.Role},
	}, nil
}

func (v *Verifier) rejected(ctx context.Context, class domain.Class, token string, reason domain.Reason) Result {
	v.obs.Metrics.Validated(ctx, string(class), reason.String())
	logging.Log().WithFields(logrus.Fields{
		"class":       string(class),
		"reason":      reason.String(),
		"fingerprint": security.Fingerprint(token),
	}).Debug("credential rejected")
	return reject(reason)
}

// tamper records a ledger row whose owner disagrees with the signed subject.
func (v *Verifier) tamper(ctx context.Context, class domain.Class, token, claimedOwner, ledgerOwner string) {
	fp := security.Fingerprint(token)
	logging.Log().WithFields(logrus.Fields{
		"class":        string(class),
		"fingerprint":  fp,
		"claims_owner": claimedOwner,
		"ledger_owner": ledgerOwner,
	}).Warn("credential: owner mismatch between claims and ledger")
	if v.obs.Audit != nil {
		v.obs.Audit.LogEvent(ctx, claimedOwner, audit.ActionCredentialTamper, string(class),
			fmt.Sprintf(`{"fingerprint":%q,"ledger_owner":%q}`, fp, ledgerOwner))
	}
	telemetry.EmitAsync(v.obs.Events, &teldomain.SecurityEvent{
		Type:        teldomain.EventTamper,
		PrincipalID: claimedOwner,
		Class:       string(class),
		Reason:      domain.ReasonOwnerMismatch.String(),
		Fingerprint: fp,
		Source:      "verifier",
		Attributes:  map[string]string{"ledger_owner": ledgerOwner},
	})
}
