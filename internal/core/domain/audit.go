package domain

import "time"

// AuditActorSystem is the actor recorded for events that occur before any
// account could be identified (unknown email, forged tokens).
const AuditActorSystem = "system"

// AuditKind identifies the security event class of an audit entry.
type AuditKind string

const (
	AuditLoginSuccess     AuditKind = "login.success"
	AuditLoginFailure     AuditKind = "login.failure"
	AuditLoginLocked      AuditKind = "login.locked"
	AuditPasswordVerified AuditKind = "login.password_verified"
	AuditAccountLockout   AuditKind = "account.lockout"
	AuditMFASetup         AuditKind = "mfa.setup"
	AuditMFAEnabled       AuditKind = "mfa.enabled"
	AuditMFAFailure       AuditKind = "mfa.failure"
	AuditMFALoginSuccess  AuditKind = "mfa.login.success"
	AuditSessionRevoked   AuditKind = "session.revoked"
	AuditSessionForged    AuditKind = "session.token_forged"
	AuditEmergencyLogout  AuditKind = "session.emergency_logout"
	AuditOperatorCreated  AuditKind = "operator.created"
	AuditOperatorDisabled AuditKind = "operator.deactivated"
	AuditOperatorInactive AuditKind = "login.inactive_account"
)

// AuditEntry is an append-only security event record. Entries are created
// once and never mutated or deleted.
type AuditEntry struct {
	ID        string
	ActorID   string
	Kind      AuditKind
	Detail    map[string]any
	IP        string
	UserAgent *string
	CreatedAt time.Time
}
