package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/sirupsen/logrus"

	"github.com/yuriscavalcante/rh360/internal/logging"
	userdomain "github.com/yuriscavalcante/rh360/internal/user/domain"
)

const issuanceQuery = "data.rh360.issuance.allow"

// DefaultIssuancePolicy allows active principals to hold either credential class.
const DefaultIssuancePolicy = `package rh360.issuance

default allow := false

allow if {
	input.principal.status == "active"
	input.class in {"session", "handoff"}
}
`

// OPAEvaluator evaluates the issuance policy with an in-process Rego engine.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

var _ Evaluator = (*OPAEvaluator)(nil)

// NewOPAEvaluator compiles module (package rh360.issuance, rule allow). An empty module uses DefaultIssuancePolicy.
func NewOPAEvaluator(ctx context.Context, module string) (*OPAEvaluator, error) {
	if module == "" {
		module = DefaultIssuancePolicy
	}
	q, err := rego.New(
		rego.Query(issuanceQuery),
		rego.Module("issuance.rego", module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile issuance policy: %w", err)
	}
	return &OPAEvaluator{query: q}, nil
}

// AllowIssue evaluates the policy for user and class. A nil user is denied without evaluation.
func (e *OPAEvaluator) AllowIssue(ctx context.Context, user *userdomain.User, class string) (bool, error) {
	if user == nil {
		return false, nil
	}
	rs, err := e.query.Eval(ctx, rego.EvalInput(buildInput(user, class)))
	if err != nil {
		return false, fmt.Errorf("eval issuance policy: %w", err)
	}
	allowed := rs.Allowed()
	if !allowed {
		logging.Log().WithFields(logrus.Fields{
			"principal_id": user.ID,
			"class":        class,
		}).Info("policy: issuance denied")
	}
	return allowed, nil
}

// HealthCheck evaluates the prepared policy against a minimal active principal. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	probe := &userdomain.User{ID: "health", Role: userdomain.DefaultRole, Status: userdomain.UserStatusActive}
	rs, err := e.query.Eval(ctx, rego.EvalInput(buildInput(probe, "session")))
	if err != nil {
		return fmt.Errorf("eval issuance policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return errors.New("policy query returned no result")
	}
	return nil
}

func buildInput(user *userdomain.User, class string) map[string]interface{} {
	return map[string]interface{}{
		"principal": map[string]interface{}{
			"id":     user.ID,
			"role":   user.Role,
			"status": string(user.Status),
		},
		"class": class,
	}
}
