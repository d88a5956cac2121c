// Package service is the session authority: one live session credential per principal.
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
	credservice "github.com/yuriscavalcante/rh360/internal/credential/service"
	"github.com/yuriscavalcante/rh360/internal/logging"
	"github.com/yuriscavalcante/rh360/internal/security"
	"github.com/yuriscavalcante/rh360/internal/telemetry"
	teldomain "github.com/yuriscavalcante/rh360/internal/telemetry/domain"
)

const eventSource = "session"

// Authority issues, validates and revokes session credentials.
type Authority struct {
	verifier *credservice.Verifier
	ttl      time.Duration
	obs      credservice.Observers
}

// NewAuthority returns a session Authority minting credentials that live for ttl.
func NewAuthority(verifier *credservice.Verifier, ttl time.Duration, obs credservice.Observers) *Authority {
	return &Authority{verifier: verifier, ttl: ttl, obs: obs}
}

// Login revokes every active session of p and returns a new one. The revoke and insert commit together,
// so a concurrent validator sees the old credential, no credential, or the new one, never two.
func (a *Authority) Login(ctx context.Context, p domain.Principal) (domain.Issued, error) {
	if strings.TrimSpace(p.ID) == "" {
		return domain.Issued{}, errors.New("session: principal id is required")
	}
	token, expiresAt, err := a.verifier.Codec().Issue(
		security.NewClaims(p.ID, p.Email, p.Role, security.ClassSession), a.ttl)
	if err != nil {
		return domain.Issued{}, fmt.Errorf("minting session credential: %w", err)
	}
	rec := &domain.Record{
		Token:     token,
		OwnerID:   p.ID,
		Class:     domain.ClassSession,
		Active:    true,
		CreatedAt: a.verifier.Codec().Now().UTC(),
		ExpiresAt: expiresAt,
	}

	lctx, cancel := a.verifier.WithLedgerTimeout(ctx)
	defer cancel()
	if err := a.verifier.Ledger().RevokeAllAndInsert(lctx, rec); err != nil {
		return domain.Issued{}, fmt.Errorf("%w: %w", credservice.ErrUnavailable, err)
	}

	a.obs.Metrics.Issued(ctx, string(domain.ClassSession))
	telemetry.EmitAsync(a.obs.Events, &teldomain.SecurityEvent{
		Type:        teldomain.EventLogin,
		PrincipalID: p.ID,
		Class:       string(domain.ClassSession),
		Fingerprint: security.Fingerprint(token),
		Source:      eventSource,
	})
	return domain.Issued{Token: token, ExpiresAt: expiresAt}, nil
}

// Validate checks token as a session credential.
func (a *Authority) Validate(ctx context.Context, token string) (credservice.Result, error) {
	return a.verifier.Verify(ctx, token, domain.ClassSession)
}

// Logout deactivates exactly the presented credential. Empty, unknown and already inactive tokens are not errors.
func (a *Authority) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	lctx, cancel := a.verifier.WithLedgerTimeout(ctx)
	defer cancel()
	if err := a.verifier.Ledger().Deactivate(lctx, token); err != nil {
		return fmt.Errorf("%w: %w", credservice.ErrUnavailable, err)
	}

	ev := &teldomain.SecurityEvent{
		Type:        teldomain.EventLogout,
		Class:       string(domain.ClassSession),
		Fingerprint: security.Fingerprint(token),
		Source:      eventSource,
	}
	if claims, err := a.verifier.Codec().DecodeUnsafe(token); err == nil {
		ev.PrincipalID = claims.PrincipalID()
	}
	telemetry.EmitAsync(a.obs.Events, ev)
	return nil
}

// RevokeAll deactivates every active credential of the principal, of any class.
func (a *Authority) RevokeAll(ctx context.Context, principalID string) (int64, error) {
	lctx, cancel := a.verifier.WithLedgerTimeout(ctx)
	defer cancel()
	n, err := a.verifier.Ledger().DeactivateAllActiveForOwner(lctx, principalID, "")
	if err != nil {
		return 0, fmt.Errorf("%w: %w", credservice.ErrUnavailable, err)
	}
	logging.Log().WithFields(logrus.Fields{"principal_id": principalID, "revoked": n}).Info("session: revoked all credentials")
	if a.obs.Audit != nil {
		a.obs.Audit.LogEvent(ctx, principalID, audit.ActionSessionsRevoked, audit.ResourceSession, fmt.Sprintf(`{"revoked":%d}`, n))
	}
	return n, nil
}

// ExtractPrincipalID returns sub from a signature-verified token. It does not consult the ledger.
func (a *Authority) ExtractPrincipalID(token string) (string, error) {
	claims, err := a.verifiedClaims(token)
	if err != nil {
		return "", err
	}
	return claims.PrincipalID(), nil
}

// ExtractEmail returns the email claim from a signature-verified token.
func (a *Authority) ExtractEmail(token string) (string, error) {
	claims, err := a.verifiedClaims(token)
	if err != nil {
		return "", err
	}
	return claims.Email, nil
}

// ExtractRole returns the role claim from a signature-verified token.
func (a *Authority) ExtractRole(token string) (string, error) {
	claims, err := a.verifiedClaims(token)
	if err != nil {
		return "", err
	}
	return claims.Role, nil
}

func (a *Authority) verifiedClaims(token string) (*security.Claims, error) {
	return a.verifier.Codec().Verify(strings.TrimSpace(token))
}
