package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/platform-operator-auth/internal/core/domain"
	"github.com/arklim/platform-operator-auth/internal/infra/security"
	"github.com/arklim/platform-operator-auth/internal/repository"
	"github.com/arklim/platform-operator-auth/internal/transport/http/middleware"
	"github.com/arklim/platform-operator-auth/internal/usecase"
)

// OperatorHandler exposes administrative operator endpoints.
type OperatorHandler struct {
	auth         *usecase.AuthService
	registration *usecase.RegistrationService
}

// NewOperatorHandler constructs OperatorHandler.
func NewOperatorHandler(auth *usecase.AuthService, registration *usecase.RegistrationService) *OperatorHandler {
	return &OperatorHandler{auth: auth, registration: registration}
}

// RegisterRoutes binds operator management routes. All routes require a
// bearer session; mutation routes additionally require an admin role.
func (h *OperatorHandler) RegisterRoutes(r *gin.RouterGroup) {
	operators := r.Group("/operators", middleware.RequireAuth(h.auth))

	admin := operators.Group("", middleware.RequireRole(domain.RoleSuperAdmin, domain.RoleAdmin))
	admin.POST("", h.create)
	admin.POST("/:id/emergency-logout", h.emergencyLogout)
	admin.DELETE("/:id", h.deactivate)
}

// create handles POST /operators.
func (h *OperatorHandler) create(c *gin.Context) {
	var req CreateOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid operator payload"))
		return
	}

	role := domain.OperatorRole(req.Role)
	if !role.Valid() {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown role"))
		return
	}

	actor, _ := middleware.GetAuthenticatedOperator(c)

	view, err := h.registration.CreateOperator(c.Request.Context(), usecase.CreateOperatorInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        role,
		Department:  req.Department,
		ActorID:     actor.ID,
		IP:          c.ClientIP(),
		UserAgent:   userAgentPtr(c),
	})
	if err != nil {
		var validationErr *security.PasswordValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, validationErr.Error()))
			return
		}

		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrSuperAdminExists, Status: http.StatusConflict, Message: "super admin already exists"},
			{Err: usecase.ErrEmailTaken, Status: http.StatusConflict, Message: "email already registered"},
		}, http.StatusInternalServerError, "operator creation failed")
		return
	}

	c.JSON(http.StatusCreated, view)
}

// emergencyLogout handles POST /operators/:id/emergency-logout.
func (h *OperatorHandler) emergencyLogout(c *gin.Context) {
	targetID := c.Param("id")
	actor, _ := middleware.GetAuthenticatedOperator(c)

	count, err := h.auth.EmergencyLogoutAll(c.Request.Context(), targetID, actor.ID, c.ClientIP(), userAgentPtr(c))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "operator not found"},
		}, http.StatusInternalServerError, "emergency logout failed")
		return
	}

	c.JSON(http.StatusOK, EmergencyLogoutResponse{SessionsRevoked: count})
}

// deactivate handles DELETE /operators/:id. The account is flagged inactive
// and all of its sessions are revoked.
func (h *OperatorHandler) deactivate(c *gin.Context) {
	targetID := c.Param("id")
	actor, _ := middleware.GetAuthenticatedOperator(c)

	if err := h.registration.Deactivate(c.Request.Context(), targetID, actor.ID, c.ClientIP(), userAgentPtr(c)); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "operator not found"},
		}, http.StatusInternalServerError, "operator deactivation failed")
		return
	}

	if _, err := h.auth.EmergencyLogoutAll(c.Request.Context(), targetID, actor.ID, c.ClientIP(), userAgentPtr(c)); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "operator deactivated but session revocation failed"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "operator deactivated"})
}
