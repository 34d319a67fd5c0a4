package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/platform-operator-auth/internal/core/domain"
	"github.com/arklim/platform-operator-auth/internal/usecase"
)

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// newErrorResponse creates an error response with trace ID
func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

const (
	operatorContextKey = "operator"
	sessionContextKey  = "session"
	tokenContextKey    = "bearer_token"
)

// RequireAuth resolves the Authorization bearer token against the session
// store. The token alone never authenticates a request; only a live session
// record does.
func RequireAuth(authService *usecase.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "invalid authorization format: expected 'Bearer <token>'"))
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing bearer token"))
			return
		}

		reqCtx := GetRequestContext(c)
		userAgent := userAgentPtr(c)

		validated, err := authService.ValidateSession(c.Request.Context(), token, c.ClientIP(), userAgent)
		if err != nil {
			if errors.Is(err, usecase.ErrSessionInvalid) {
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "invalid session"))
			} else {
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					newErrorResponse(c, "authentication failed"))
			}
			return
		}

		c.Set(OperatorIDKey, validated.Operator.ID)
		c.Set(operatorContextKey, validated.Operator)
		c.Set(sessionContextKey, validated.Session)
		c.Set(tokenContextKey, token)

		if reqCtx != nil {
			reqCtx.OperatorID = validated.Operator.ID
		}

		c.Next()
	}
}

// RequireRole checks that the authenticated operator holds one of the given roles.
func RequireRole(roles ...domain.OperatorRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator, ok := GetAuthenticatedOperator(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "authentication required"))
			return
		}

		for _, role := range roles {
			if operator.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden,
			newErrorResponse(c, "insufficient permissions"))
	}
}

// GetAuthenticatedOperator retrieves the sanitized operator view from context.
func GetAuthenticatedOperator(c *gin.Context) (domain.OperatorView, bool) {
	value, exists := c.Get(operatorContextKey)
	if !exists {
		return domain.OperatorView{}, false
	}

	operator, ok := value.(domain.OperatorView)
	return operator, ok
}

// GetAuthenticatedSession retrieves the session summary from context.
func GetAuthenticatedSession(c *gin.Context) (domain.SessionSummary, bool) {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return domain.SessionSummary{}, false
	}

	session, ok := value.(domain.SessionSummary)
	return session, ok
}

// GetBearerToken retrieves the raw bearer token from context.
func GetBearerToken(c *gin.Context) (string, bool) {
	value, exists := c.Get(tokenContextKey)
	if !exists {
		return "", false
	}

	token, ok := value.(string)
	return token, ok
}

func userAgentPtr(c *gin.Context) *string {
	if ua := c.Request.UserAgent(); ua != "" {
		return &ua
	}
	return nil
}
