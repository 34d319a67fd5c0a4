package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/platform-operator-auth/internal/transport/http/middleware"
	"github.com/arklim/platform-operator-auth/internal/usecase"
)

// AuthHandler exposes the login, MFA verification, session, and logout endpoints.
type AuthHandler struct {
	auth *usecase.AuthService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRoutes binds authentication routes, applying optional middleware ahead of the login handler.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, loginMiddlewares ...gin.HandlerFunc) {
	if len(loginMiddlewares) > 0 {
		chain := append([]gin.HandlerFunc{}, loginMiddlewares...)
		chain = append(chain, h.login)
		r.POST("/login", chain...)
	} else {
		r.POST("/login", h.login)
	}

	r.POST("/mfa/verify", h.verifyMFA)
	r.POST("/logout", middleware.RequireAuth(h.auth), h.logout)
	r.GET("/session", middleware.RequireAuth(h.auth), h.session)
}

var loginErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
	{Err: usecase.ErrAccountInactive, Status: http.StatusForbidden, Message: "account is not active"},
	{Err: usecase.ErrAccountLocked, Status: http.StatusLocked, Message: "account temporarily locked"},
}

// login handles POST /auth/login.
func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IP:        c.ClientIP(),
		UserAgent: userAgentPtr(c),
	})
	if err != nil {
		RespondWithMappedError(c, err, loginErrorCases, http.StatusInternalServerError, "login failed")
		return
	}

	if result.RequiresMFA {
		c.JSON(http.StatusOK, MFARequiredResponse{RequiresMFA: true, Operator: result.Operator})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     result.Token,
		TokenType: "Bearer",
		ExpiresAt: result.Session.ExpiresAt,
		Operator:  result.Operator,
		Session:   *result.Session,
	})
}

var mfaVerifyErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
	{Err: usecase.ErrAccountInactive, Status: http.StatusForbidden, Message: "account is not active"},
	{Err: usecase.ErrMFAInvalidToken, Status: http.StatusUnauthorized, Message: "invalid mfa code"},
	{Err: usecase.ErrMFANotConfigured, Status: http.StatusBadRequest, Message: "mfa is not configured"},
}

// verifyMFA handles POST /auth/mfa/verify.
func (h *AuthHandler) verifyMFA(c *gin.Context) {
	var req MFAVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid mfa payload"))
		return
	}

	result, err := h.auth.VerifyMFA(c.Request.Context(), usecase.MFAVerifyInput{
		OperatorID: req.OperatorID,
		Code:       req.Code,
		IP:         c.ClientIP(),
		UserAgent:  userAgentPtr(c),
	})
	if err != nil {
		RespondWithMappedError(c, err, mfaVerifyErrorCases, http.StatusInternalServerError, "mfa verification failed")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     result.Token,
		TokenType: "Bearer",
		ExpiresAt: result.Session.ExpiresAt,
		Operator:  result.Operator,
		Session:   *result.Session,
	})
}

// session handles GET /auth/session for an authenticated bearer.
func (h *AuthHandler) session(c *gin.Context) {
	operator, ok := middleware.GetAuthenticatedOperator(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}
	session, ok := middleware.GetAuthenticatedSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	c.JSON(http.StatusOK, SessionResponse{Operator: operator, Session: session})
}

// logout handles POST /auth/logout for an authenticated bearer.
func (h *AuthHandler) logout(c *gin.Context) {
	token, ok := middleware.GetBearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), token, c.ClientIP(), userAgentPtr(c)); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrSessionInvalid, Status: http.StatusUnauthorized, Message: "invalid session"},
		}, http.StatusInternalServerError, "logout failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

func userAgentPtr(c *gin.Context) *string {
	if ua := c.Request.UserAgent(); ua != "" {
		return &ua
	}
	return nil
}
