package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/platform-operator-auth/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// MFAVerifyRequest defines the payload for the MFA verification step.
type MFAVerifyRequest struct {
	OperatorID string `json:"operator_id" binding:"required"`
	Code       string `json:"code" binding:"required"`
}

// MFAEnableRequest defines the payload for enabling a provisioned secret.
type MFAEnableRequest struct {
	Code string `json:"code" binding:"required"`
}

// LoginResponse describes the response returned for a successful login.
type LoginResponse struct {
	Token     string                `json:"token"`
	TokenType string                `json:"token_type"`
	ExpiresAt time.Time             `json:"expires_at"`
	Operator  domain.OperatorView   `json:"operator"`
	Session   domain.SessionSummary `json:"session"`
}

// MFARequiredResponse is returned when a login needs a TOTP code before a
// session can be issued.
type MFARequiredResponse struct {
	RequiresMFA bool                `json:"requires_mfa"`
	Operator    domain.OperatorView `json:"operator"`
}

// MFAEnrollmentResponse carries the provisioned secret and enrollment URI.
type MFAEnrollmentResponse struct {
	Secret        string `json:"secret"`
	EnrollmentURI string `json:"enrollment_uri"`
}

// SessionResponse describes the current session and its operator.
type SessionResponse struct {
	Operator domain.OperatorView   `json:"operator"`
	Session  domain.SessionSummary `json:"session"`
}

// CreateOperatorRequest defines the payload for bootstrap operator creation.
type CreateOperatorRequest struct {
	Email       string  `json:"email" binding:"required,email"`
	Password    string  `json:"password" binding:"required"`
	DisplayName string  `json:"display_name" binding:"required"`
	Role        string  `json:"role" binding:"required"`
	Department  *string `json:"department,omitempty"`
}

// EmergencyLogoutResponse reports how many sessions were revoked.
type EmergencyLogoutResponse struct {
	SessionsRevoked int `json:"sessions_revoked"`
}

// HealthResponse describes the liveness payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse describes the readiness payload with per-dependency state.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
