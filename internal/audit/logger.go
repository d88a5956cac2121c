// Package audit records who did what to which credential, best-effort.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yuriscavalcante/rh360/internal/audit/domain"
	auditrepo "github.com/yuriscavalcante/rh360/internal/audit/repository"
	"github.com/yuriscavalcante/rh360/internal/logging"
)

// UnknownIP is recorded when no client address is available.
const UnknownIP = "unknown"

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, userID, action, resource, metadata string)
}

type clientIPKey struct{}

// WithClientIP returns a context carrying the caller's address for audit entries.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIPFrom returns the address stored by WithClientIP, or UnknownIP.
func ClientIPFrom(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok && ip != "" {
		return ip
	}
	return UnknownIP
}

// Logger implements AuditLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	nowF        func() time.Time
}

// NewLogger returns an AuditLogger that persists to repo. A nil ipExtractor falls back to ClientIPFrom.
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	if ipExtractor == nil {
		ipExtractor = ClientIPFrom
	}
	return &Logger{repo: repo, ipExtractor: ipExtractor, nowF: time.Now}
}

// LogEvent writes one audit log entry. Errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, userID, action, resource, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	ip := l.ipExtractor(ctx)
	if ip == "" {
		ip = UnknownIP
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: l.nowF().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		logging.Log().WithFields(logrus.Fields{
			"action":   action,
			"resource": resource,
		}).WithError(err).Warn("audit: failed to log event")
	}
}
