// Package handler reports readiness of the database and the policy engine over HTTP and gRPC health.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/yuriscavalcante/rh360/internal/logging"
)

// checkTimeout bounds one readiness probe.
const checkTimeout = 2 * time.Second

// Pinger is used to check database connectivity (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker is used to check that the policy engine can evaluate (e.g. OPA evaluator).
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Checker runs the readiness probes. Nil dependencies are skipped.
type Checker struct {
	pinger        Pinger
	policyChecker PolicyChecker
}

// NewChecker returns a Checker. pinger and policyChecker may be nil.
func NewChecker(pinger Pinger, policyChecker PolicyChecker) *Checker {
	return &Checker{pinger: pinger, policyChecker: policyChecker}
}

// Check returns nil when every configured dependency is ready.
func (c *Checker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if c.pinger != nil {
		if err := c.pinger.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if c.policyChecker != nil {
		if err := c.policyChecker.HealthCheck(ctx); err != nil {
			return fmt.Errorf("policy: %w", err)
		}
	}
	return nil
}

type statusBody struct {
	Status string `json:"status"`
}

// ServeHTTP answers 200 {"status":"ok"} or 503 {"status":"unavailable"}. Probe errors go to the log only.
func (c *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code, body := http.StatusOK, statusBody{Status: "ok"}
	if err := c.Check(r.Context()); err != nil {
		logging.Log().WithError(err).Warn("health: not ready")
		code, body = http.StatusServiceUnavailable, statusBody{Status: "unavailable"}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
