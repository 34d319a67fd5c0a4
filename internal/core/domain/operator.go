package domain

import (
	"strings"
	"time"
)

// OperatorRole enumerates the privilege tiers for platform operators.
type OperatorRole string

const (
	RoleSuperAdmin OperatorRole = "SUPER_ADMIN"
	RoleAdmin      OperatorRole = "ADMIN"
	RoleSupport    OperatorRole = "SUPPORT"
	RoleBilling    OperatorRole = "BILLING"
)

// Valid reports whether the role is one of the known privilege tiers.
func (r OperatorRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleSupport, RoleBilling:
		return true
	}
	return false
}

// Operator mirrors the persisted representation in the admin.operators table.
// MFASecret is a credential: it is never serialized and never written to logs.
type Operator struct {
	ID                  string
	Email               string
	PasswordHash        string
	DisplayName         string
	Role                OperatorRole
	Department          *string
	IsActive            bool
	MFAEnabled          bool
	MFASecret           *string
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time
	CreatedAt           time.Time
}

// IsLocked reports whether the operator is inside an active lockout window.
func (o Operator) IsLocked(at time.Time) bool {
	return o.LockedUntil != nil && o.LockedUntil.After(at)
}

// NormalizeEmail lowercases and trims an email for case-insensitive lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// OperatorView is the sanitized representation returned to callers.
// It carries neither the password hash nor the MFA secret.
type OperatorView struct {
	ID          string       `json:"id"`
	Email       string       `json:"email"`
	DisplayName string       `json:"display_name"`
	Role        OperatorRole `json:"role"`
	Department  *string      `json:"department,omitempty"`
	IsActive    bool         `json:"is_active"`
	MFAEnabled  bool         `json:"mfa_enabled"`
	LastLoginAt *time.Time   `json:"last_login_at,omitempty"`
}

// View returns the sanitized projection of the operator.
func (o Operator) View() OperatorView {
	return OperatorView{
		ID:          o.ID,
		Email:       o.Email,
		DisplayName: o.DisplayName,
		Role:        o.Role,
		Department:  o.Department,
		IsActive:    o.IsActive,
		MFAEnabled:  o.MFAEnabled,
		LastLoginAt: o.LastLoginAt,
	}
}
