package domain

import "time"

// AuditRecordedEvent represents the payload for operator_auth.audit.recorded
// messages exported to the security event stream.
type AuditRecordedEvent struct {
	EventID    string
	ActorID    string
	Kind       AuditKind
	Detail     map[string]any
	IP         string
	UserAgent  *string
	RecordedAt time.Time
}

// SessionRevokedEvent represents the payload for operator_auth.session.revoked
// messages.
type SessionRevokedEvent struct {
	EventID    string
	SessionID  string
	OperatorID string
	Reason     string
	RevokedAt  time.Time
}

// OperatorLockedEvent represents the payload for operator_auth.operator.locked
// messages emitted when the failure threshold trips a lockout.
type OperatorLockedEvent struct {
	EventID     string
	OperatorID  string
	Attempts    int
	LockedUntil time.Time
	IP          string
	LockedAt    time.Time
}
