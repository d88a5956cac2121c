package telemetry

import (
	"context"
	"errors"

	"github.com/yuriscavalcante/rh360/internal/telemetry/domain"
)

// EventEmitter emits security events (to OTel logs, Kafka, ...). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.SecurityEvent) error
}

// Fanout returns an EventEmitter that forwards to every non-nil emitter and joins their errors.
func Fanout(emitters ...EventEmitter) EventEmitter {
	out := make(fanout, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

type fanout []EventEmitter

func (f fanout) Emit(ctx context.Context, event *domain.SecurityEvent) error {
	var errs []error
	for _, e := range f {
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
