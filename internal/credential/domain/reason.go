package domain

// Reason says why a credential was rejected. ReasonNone means it was accepted.
// Reasons stay server-side; clients only ever see a generic rejection.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonMalformed
	ReasonInvalidSignature
	ReasonExpired
	ReasonClassMismatch
	ReasonNotFound
	ReasonInactive
	ReasonOwnerMismatch
)

var reasonNames = map[Reason]string{
	ReasonNone:             "none",
	ReasonMalformed:        "malformed",
	ReasonInvalidSignature: "invalid_signature",
	ReasonExpired:          "expired",
	ReasonClassMismatch:    "class_mismatch",
	ReasonNotFound:         "not_found",
	ReasonInactive:         "inactive",
	ReasonOwnerMismatch:    "owner_mismatch",
}

func (r Reason) String() string {
	if s, ok := reasonNames[r]; ok {
		return s
	}
	return "unknown"
}
