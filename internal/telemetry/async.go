package telemetry

import (
	"context"
	"time"

	"github.com/yuriscavalcante/rh360/internal/logging"
	"github.com/yuriscavalcante/rh360/internal/telemetry/domain"
)

// emitTimeout is the max time allowed for a single async emit.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after servers stop before shutting down providers,
// so in-flight async emits can finish. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// EmitAsync runs Emit in a goroutine so the caller is not blocked. Errors are logged.
// A nil emitter or event is a no-op. The goroutine uses its own timeout so request
// cancellation does not abort an in-flight emit.
func EmitAsync(emitter EventEmitter, event *domain.SecurityEvent) {
	if emitter == nil || event == nil {
		return
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(ctx, event); err != nil {
			logging.Log().WithError(err).WithField("event", event.Type).Warn("telemetry: async emit failed")
		}
	}()
}
