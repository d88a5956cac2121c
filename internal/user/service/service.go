// Package service holds principal administration that spans the user table and the credential ledger.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yuriscavalcante/rh360/internal/audit"
	"github.com/yuriscavalcante/rh360/internal/logging"
)

// ErrSelfDisable is returned when a principal tries to disable itself.
var ErrSelfDisable = errors.New("user: cannot disable own account")

// Disabler marks a user disabled and deactivates its credentials in one transaction.
type Disabler interface {
	Disable(ctx context.Context, id string) error
}

// Service administers principals.
type Service struct {
	repo  Disabler
	audit audit.AuditLogger
}

// NewService returns a Service. auditLogger may be nil.
func NewService(repo Disabler, auditLogger audit.AuditLogger) *Service {
	return &Service{repo: repo, audit: auditLogger}
}

// Disable disables userID on behalf of actorID. Every credential the user holds stops validating at once.
// Returns repository.ErrUserNotFound (wrapped) for an unknown user.
func (s *Service) Disable(ctx context.Context, actorID, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("user: id is required")
	}
	if userID == actorID {
		return ErrSelfDisable
	}
	if err := s.repo.Disable(ctx, userID); err != nil {
		return fmt.Errorf("disable user: %w", err)
	}
	logging.Log().WithFields(logrus.Fields{
		"principal_id": userID,
		"actor_id":     actorID,
	}).Info("user: principal disabled")
	if s.audit != nil {
		s.audit.LogEvent(ctx, actorID, audit.ActionPrincipalDisabled, audit.ResourceUser, fmt.Sprintf(`{"principal_id":%q}`, userID))
	}
	return nil
}
