package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/yuriscavalcante/rh360/credential"

// CredentialMetrics counts credential issuance and validation outcomes.
type CredentialMetrics struct {
	issued      metric.Int64Counter
	validations metric.Int64Counter
}

// NewCredentialMetrics registers counters on the global MeterProvider; call after SetGlobal.
// A nil MeterProvider falls back to the global one.
func NewCredentialMetrics(mp metric.MeterProvider) (*CredentialMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)
	issued, err := meter.Int64Counter("rh360.credential.issued",
		metric.WithDescription("Credentials issued, by class."))
	if err != nil {
		return nil, err
	}
	validations, err := meter.Int64Counter("rh360.credential.validations",
		metric.WithDescription("Credential validations, by class and outcome."))
	if err != nil {
		return nil, err
	}
	return &CredentialMetrics{issued: issued, validations: validations}, nil
}

// Issued records one issuance. Safe on a nil receiver.
func (m *CredentialMetrics) Issued(ctx context.Context, class string) {
	if m == nil {
		return
	}
	m.issued.Add(ctx, 1, metric.WithAttributes(attribute.String("class", class)))
}

// Validated records one validation outcome; reason is "none" on success. Safe on a nil receiver.
func (m *CredentialMetrics) Validated(ctx context.Context, class, reason string) {
	if m == nil {
		return
	}
	m.validations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("class", class),
		attribute.String("reason", reason),
	))
}
