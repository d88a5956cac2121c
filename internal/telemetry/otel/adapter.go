package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/yuriscavalcante/rh360/internal/telemetry"
	"github.com/yuriscavalcante/rh360/internal/telemetry/domain"
)

const loggerName = "rh360.security"

// recordEmitter is the part of otellog.Logger the adapter needs.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends security events as OTel log records.
// A nil provider yields a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return NewEventEmitterWithLogger(provider.Logger(loggerName))
}

// NewEventEmitterWithLogger wraps any record emitter; tests pass a capture.
func NewEventEmitterWithLogger(logger recordEmitter) telemetry.EventEmitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *domain.SecurityEvent) error { return nil }

type otelEmitter struct {
	logger recordEmitter
}

// Emit converts event to a log record. Tamper and rejection events are raised to WARN.
func (e *otelEmitter) Emit(ctx context.Context, event *domain.SecurityEvent) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	ts := event.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetBody(otellog.StringValue(event.Type))
	rec.SetSeverity(otellog.SeverityInfo)
	if event.Type == domain.EventTamper || event.Type == domain.EventRejected {
		rec.SetSeverity(otellog.SeverityWarn)
	}

	add := func(key, value string) {
		if value != "" {
			rec.AddAttributes(otellog.String(key, value))
		}
	}
	add("event_type", event.Type)
	add("principal_id", event.PrincipalID)
	add("class", event.Class)
	add("reason", event.Reason)
	add("fingerprint", event.Fingerprint)
	add("source", event.Source)
	for k, v := range event.Attributes {
		add(k, v)
	}

	e.logger.Emit(ctx, rec)
	return nil
}
