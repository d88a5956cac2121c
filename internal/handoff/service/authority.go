// Package service is the hand-off authority: short-lived, one-shot credentials carried in QR codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yuriscavalcante/rh360/internal/audit"
	"github.com/yuriscavalcante/rh360/internal/credential/domain"
	credservice "github.com/yuriscavalcante/rh360/internal/credential/service"
	policyengine "github.com/yuriscavalcante/rh360/internal/policy/engine"
	"github.com/yuriscavalcante/rh360/internal/security"
	"github.com/yuriscavalcante/rh360/internal/telemetry"
	teldomain "github.com/yuriscavalcante/rh360/internal/telemetry/domain"
	userdomain "github.com/yuriscavalcante/rh360/internal/user/domain"
)

const eventSource = "handoff"

var (
	// ErrPrincipalNotFound is returned by GenerateQR when the caller no longer exists.
	ErrPrincipalNotFound = errors.New("handoff: principal not found")
	// ErrIssueDenied is returned when the issuance policy refuses a hand-off credential.
	ErrIssueDenied = errors.New("handoff: issuance denied by policy")
)

// PrincipalLookup resolves principal IDs for QR generation.
type PrincipalLookup interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// Config holds hand-off issuance and rendering settings.
type Config struct {
	TTL         time.Duration
	FrontendURL string
	QRWidth     int
}

// Authority issues, validates, redeems and revokes hand-off credentials.
// Unlike sessions, a principal may hold any number of outstanding hand-off credentials.
type Authority struct {
	verifier *credservice.Verifier
	users    PrincipalLookup
	policy   policyengine.Evaluator
	cfg      Config
	obs      credservice.Observers
}

// NewAuthority returns a hand-off Authority. policy may be nil to skip the issuance policy.
func NewAuthority(verifier *credservice.Verifier, users PrincipalLookup, policy policyengine.Evaluator, cfg Config, obs credservice.Observers) *Authority {
	return &Authority{verifier: verifier, users: users, policy: policy, cfg: cfg, obs: obs}
}

// Issue mints and records a hand-off credential for p. Existing hand-off credentials stay valid.
func (a *Authority) Issue(ctx context.Context, p domain.Principal) (domain.Issued, error) {
	if strings.TrimSpace(p.ID) == "" {
		return domain.Issued{}, errors.New("handoff: principal id is required")
	}
	token, expiresAt, err := a.verifier.Codec().Issue(
		security.NewClaims(p.ID, p.Email, p.Role, security.ClassHandoff), a.cfg.TTL)
	if err != nil {
		return domain.Issued{}, fmt.Errorf("minting hand-off credential: %w", err)
	}
	rec := &domain.Record{
		Token:     token,
		OwnerID:   p.ID,
		Class:     domain.ClassHandoff,
		Active:    true,
		CreatedAt: a.verifier.Codec().Now().UTC(),
		ExpiresAt: expiresAt,
	}
	lctx, cancel := a.verifier.WithLedgerTimeout(ctx)
	defer cancel()
	if err := a.verifier.Ledger().InsertOrUpdate(lctx, rec); err != nil {
		return domain.Issued{}, fmt.Errorf("%w: %w", credservice.ErrUnavailable, err)
	}

	a.obs.Metrics.Issued(ctx, string(domain.ClassHandoff))
	a.record(ctx, teldomain.EventHandoffIssued, audit.ActionHandoffIssued, p.ID, token)
	return domain.Issued{Token: token, ExpiresAt: expiresAt}, nil
}

// Validate checks token as a hand-off credential without consuming it.
func (a *Authority) Validate(ctx context.Context, token string) (credservice.Result, error) {
	return a.verifier.Verify(ctx, token, domain.ClassHandoff)
}

// Revoke deactivates token. Unknown and already inactive tokens are not errors.
func (a *Authority) Revoke(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	lctx, cancel := a.verifier.WithLedgerTimeout(ctx)
	defer cancel()
	if err := a.verifier.Ledger().Deactivate(lctx, token); err != nil {
		return fmt.Errorf("%w: %w", credservice.ErrUnavailable, err)
	}
	return nil
}

// Redeem validates token and deactivates it before returning, so it works exactly once.
// When two redemptions race, the loser sees ReasonInactive.
func (a *Authority) Redeem(ctx context.Context, token string) (credservice.Result, error) {
	res, err := a.Validate(ctx, token)
	if err != nil || !res.OK() {
		return res, err
	}
	lctx, cancel := a.verifier.WithLedgerTimeout(ctx)
	defer cancel()
	consumed, err := a.verifier.Ledger().Consume(lctx, strings.TrimSpace(token))
	if err != nil {
		return credservice.Result{}, fmt.Errorf("%w: %w", credservice.ErrUnavailable, err)
	}
	if !consumed {
		return credservice.Result{Reason: domain.ReasonInactive}, nil
	}
	a.record(ctx, teldomain.EventHandoffRedeemed, audit.ActionHandoffRedeemed, res.Principal.ID, token)
	return res, nil
}

func (a *Authority) record(ctx context.Context, eventType, action, principalID, token string) {
	fp := security.Fingerprint(token)
	if a.obs.Audit != nil {
		a.obs.Audit.LogEvent(ctx, principalID, action, audit.ResourceHandoff, fmt.Sprintf(`{"fingerprint":%q}`, fp))
	}
	telemetry.EmitAsync(a.obs.Events, &teldomain.SecurityEvent{
		Type:        eventType,
		PrincipalID: principalID,
		Class:       string(domain.ClassHandoff),
		Fingerprint: fp,
		Source:      eventSource,
	})
}
