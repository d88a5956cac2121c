// Package producer defines the interface for streaming security events (e.g. to Kafka).
package producer

import (
	"context"

	"github.com/yuriscavalcante/rh360/internal/telemetry/domain"
)

// Producer streams security events. Callers use it best-effort: log and ignore errors.
type Producer interface {
	// Emit sends a single event. Implementations may block briefly; use telemetry.EmitAsync from request paths.
	Emit(ctx context.Context, event *domain.SecurityEvent) error
	// Close releases resources. Safe to call if already closed.
	Close() error
}
