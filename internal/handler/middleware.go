package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shoplistapp/auth-service/internal/domain"
	"github.com/shoplistapp/auth-service/internal/dto"
	"github.com/shoplistapp/auth-service/internal/service"
)

// principalKey is the request-scoped context key for the authenticated principal
const principalKey = "auth_principal"

// AuthMiddleware validates the bearer token and attaches the authenticated
// principal to the request context. Requests without a valid token are
// rejected with 401.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Authorization header is required",
			})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Invalid authorization header format",
			})
			c.Abort()
			return
		}

		principal, err := authService.ValidateAccessToken(c.Request.Context(), parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(principalKey, principal)

		c.Next()
	}
}

// RequireRole rejects authenticated requests whose principal lacks the role
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Request is not authenticated",
			})
			c.Abort()
			return
		}

		if !principal.HasRole(role) {
			c.JSON(http.StatusForbidden, dto.ErrorResponse{
				Error:   "Forbidden",
				Message: "Missing required role",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentPrincipal returns the authenticated principal attached to the
// request, if any
func CurrentPrincipal(c *gin.Context) (*domain.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}

	principal, ok := value.(*domain.Principal)
	return principal, ok
}
