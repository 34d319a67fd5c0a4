package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/platform-operator-auth/internal/repository"
	"github.com/arklim/platform-operator-auth/internal/transport/http/middleware"
	"github.com/arklim/platform-operator-auth/internal/usecase"
)

// MFAHandler exposes TOTP provisioning endpoints for authenticated operators.
type MFAHandler struct {
	auth *usecase.AuthService
	mfa  *usecase.MFAService
}

// NewMFAHandler constructs MFAHandler.
func NewMFAHandler(auth *usecase.AuthService, mfa *usecase.MFAService) *MFAHandler {
	return &MFAHandler{auth: auth, mfa: mfa}
}

// RegisterRoutes binds MFA provisioning routes behind bearer authentication.
func (h *MFAHandler) RegisterRoutes(r *gin.RouterGroup) {
	authed := r.Group("/mfa", middleware.RequireAuth(h.auth))
	authed.POST("/setup", h.setup)
	authed.POST("/enable", h.enable)
}

// setup handles POST /auth/mfa/setup. The response is the only moment the
// secret leaves the service; it is never returned again.
func (h *MFAHandler) setup(c *gin.Context) {
	operator, ok := middleware.GetAuthenticatedOperator(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	enrollment, err := h.mfa.SetupMFA(c.Request.Context(), operator.ID, c.ClientIP(), userAgentPtr(c))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "operator not found"},
			{Err: usecase.ErrAccountInactive, Status: http.StatusForbidden, Message: "account is not active"},
		}, http.StatusInternalServerError, "mfa setup failed")
		return
	}

	c.JSON(http.StatusOK, MFAEnrollmentResponse{
		Secret:        enrollment.Secret,
		EnrollmentURI: enrollment.EnrollmentURI,
	})
}

// enable handles POST /auth/mfa/enable.
func (h *MFAHandler) enable(c *gin.Context) {
	operator, ok := middleware.GetAuthenticatedOperator(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req MFAEnableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid mfa payload"))
		return
	}

	if err := h.mfa.EnableMFA(c.Request.Context(), operator.ID, req.Code, c.ClientIP(), userAgentPtr(c)); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "operator not found"},
			{Err: usecase.ErrAccountInactive, Status: http.StatusForbidden, Message: "account is not active"},
			{Err: usecase.ErrMFANotConfigured, Status: http.StatusBadRequest, Message: "mfa is not configured"},
			{Err: usecase.ErrMFAInvalidToken, Status: http.StatusUnauthorized, Message: "invalid mfa code"},
		}, http.StatusInternalServerError, "mfa enable failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "mfa enabled"})
}
