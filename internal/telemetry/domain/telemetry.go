package domain

import "time"

// Security event types.
const (
	EventLogin           = "credential.login"
	EventLogout          = "credential.logout"
	EventHandoffIssued   = "credential.handoff_issued"
	EventHandoffRedeemed = "credential.handoff_redeemed"
	EventRejected        = "credential.rejected"
	EventTamper          = "credential.tamper"
)

// SecurityEvent is one credential lifecycle event. Fingerprint replaces the raw token.
type SecurityEvent struct {
	Type        string            `json:"type"`
	PrincipalID string            `json:"principal_id,omitempty"`
	Class       string            `json:"class,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	Source      string            `json:"source"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}
