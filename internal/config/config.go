// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultSessionTTLMillis is the session credential lifetime when JWT_EXPIRATION is unset (24h).
	DefaultSessionTTLMillis int64 = 86_400_000
	// DefaultHandoffTTLMillis is the QR hand-off credential lifetime when JWT_QRCODE_EXPIRATION is unset (15m).
	DefaultHandoffTTLMillis int64 = 900_000
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP API listens on (e.g. :3000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address the gRPC server (health + interceptors) listens on.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the ledger DSN: postgres://... or sqlite3://path.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// LedgerTimeoutRaw bounds every ledger round trip (e.g. "2s").
	LedgerTimeoutRaw string `mapstructure:"LEDGER_TIMEOUT"`

	// JWTSecret is the HS256 signing secret. Required.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTIssuer is the iss claim set on every credential and required on verify.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTExpirationMillis is the session credential TTL in milliseconds.
	JWTExpirationMillis int64 `mapstructure:"JWT_EXPIRATION"`
	// JWTQRCodeExpirationMillis is the hand-off credential TTL in milliseconds.
	JWTQRCodeExpirationMillis int64 `mapstructure:"JWT_QRCODE_EXPIRATION"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// FrontendURL is the base of QR hand-off links.
	FrontendURL string `mapstructure:"APP_FRONTEND_URL"`
	// QRCodeWidth is the PNG edge size in pixels.
	QRCodeWidth int `mapstructure:"APP_QRCODE_WIDTH"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// OTLPEndpoint enables OpenTelemetry export when set.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// KafkaBrokers is a comma-separated list of brokers; security events are streamed when non-empty.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// SecurityEventsTopic is the Kafka topic for security events.
	SecurityEventsTopic string `mapstructure:"SECURITY_EVENTS_TOPIC"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored. Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":3000")
	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("LEDGER_TIMEOUT", "2s")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "rh360-auth")
	v.SetDefault("JWT_EXPIRATION", DefaultSessionTTLMillis)
	v.SetDefault("JWT_QRCODE_EXPIRATION", DefaultHandoffTTLMillis)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("APP_FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("APP_QRCODE_WIDTH", 300)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("SECURITY_EVENTS_TOPIC", "rh360-security-events")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("config: JWT_SECRET must be set")
	}
	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.GRPCAddr == "" {
		return nil, errors.New("config: GRPC_ADDR must be set")
	}
	if cfg.JWTExpirationMillis < 0 || cfg.JWTQRCodeExpirationMillis < 0 {
		return nil, errors.New("config: JWT_EXPIRATION and JWT_QRCODE_EXPIRATION must not be negative")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if cfg.QRCodeWidth <= 0 {
		cfg.QRCodeWidth = 300
	}

	return &cfg, nil
}

// SessionTTL converts JWTExpirationMillis to a duration truncated to whole seconds,
// which is the precision of the exp claim. Returns 24h if unset or below one second.
func (c *Config) SessionTTL() time.Duration {
	return millisToSeconds(c.JWTExpirationMillis, DefaultSessionTTLMillis)
}

// HandoffTTL converts JWTQRCodeExpirationMillis to whole seconds. Returns 15m if unset or below one second.
func (c *Config) HandoffTTL() time.Duration {
	return millisToSeconds(c.JWTQRCodeExpirationMillis, DefaultHandoffTTLMillis)
}

func millisToSeconds(ms, fallback int64) time.Duration {
	secs := ms / 1000
	if secs <= 0 {
		secs = fallback / 1000
	}
	return time.Duration(secs) * time.Second
}

// LedgerTimeout parses LedgerTimeoutRaw. Returns 2s if unset or invalid.
func (c *Config) LedgerTimeout() time.Duration {
	d, err := time.ParseDuration(c.LedgerTimeoutRaw)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// An empty list disables the security-event producer.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
