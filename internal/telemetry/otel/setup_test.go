package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestNewProviders_EmptyEndpoint(t *testing.T) {
	ctx := context.Background()
	for _, endpoint := range []string{"", "   "} {
		providers, err := NewProviders(ctx, endpoint, "rh360-test", false)
		if err != nil {
			t.Fatalf("NewProviders(%q): %v", endpoint, err)
		}
		if providers.TracerProvider == nil || providers.MeterProvider == nil || providers.LoggerProvider == nil {
			t.Fatalf("providers should be non-nil: %+v", providers)
		}
		if err := providers.Shutdown(ctx); err != nil {
			t.Errorf("shutdown should be no-op for empty endpoint, got error: %v", err)
		}
	}
}

func TestNewProviders_InvalidURL(t *testing.T) {
	for _, endpoint := range []string{"://invalid", "http://[invalid", "http://"} {
		if _, err := NewProviders(context.Background(), endpoint, "rh360-test", false); err == nil {
			t.Errorf("NewProviders(%q) should return error", endpoint)
		}
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		endpoint     string
		override     bool
		wantTarget   string
		wantInsecure bool
	}{
		{"localhost:4317", false, "localhost:4317", true},
		{"http://collector:4317/v1/traces", false, "collector:4317", true},
		{"https://collector:4317", false, "collector:4317", false},
		{"https://collector:4317", true, "collector:4317", true},
	}
	for _, tt := range tests {
		target, insecure, err := parseEndpoint(tt.endpoint, tt.override)
		if err != nil {
			t.Fatalf("parseEndpoint(%q): %v", tt.endpoint, err)
		}
		if target != tt.wantTarget || insecure != tt.wantInsecure {
			t.Errorf("parseEndpoint(%q, %v) = %q, %v; want %q, %v",
				tt.endpoint, tt.override, target, insecure, tt.wantTarget, tt.wantInsecure)
		}
	}
}

func TestSetGlobal_WithProviders(t *testing.T) {
	providers, err := NewProviders(context.Background(), "", "rh360-test", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	providers.SetGlobal()
	if otel.GetTracerProvider() != providers.TracerProvider {
		t.Error("global TracerProvider not updated")
	}
	if otel.GetMeterProvider() != providers.MeterProvider {
		t.Error("global MeterProvider not updated")
	}
}
