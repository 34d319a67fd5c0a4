package domain

import "time"

// Session represents the authoritative server-side record for an issued
// bearer token. The token's embedded expiry claim is advisory; this record
// decides whether the token is usable.
type Session struct {
	ID           string
	OperatorID   string
	TokenHash    string
	IP           string
	UserAgent    *string
	IsActive     bool
	MFAVerified  bool
	LastActivity time.Time
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// Usable reports whether the session may authenticate requests at the
// supplied moment.
func (s Session) Usable(at time.Time) bool {
	return s.IsActive && s.ExpiresAt.After(at)
}

// SessionSummary is the compact session view returned on login.
type SessionSummary struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	MFAVerified bool      `json:"mfa_verified"`
}

// Summary returns the caller-facing projection of the session.
func (s Session) Summary() SessionSummary {
	return SessionSummary{
		ID:          s.ID,
		CreatedAt:   s.CreatedAt,
		ExpiresAt:   s.ExpiresAt,
		MFAVerified: s.MFAVerified,
	}
}
