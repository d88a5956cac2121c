package domain

import "time"

// AuditLog is one recorded security-relevant action. UserID is empty when the actor is unknown
// (e.g. a failed login for an unregistered email).
type AuditLog struct {
	ID        string
	UserID    string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
