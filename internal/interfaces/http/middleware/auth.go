package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vossync/internal/infrastructure/auth"
	"vossync/internal/shared/logger"
	"vossync/internal/shared/utils"
)

type AuthMiddleware struct {
	tokens *auth.TokenService
	logger logger.Interface
}

func NewAuthMiddleware(tokens *auth.TokenService, logger logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		logger: logger,
	}
}

// RequireAuth guards mutating routes with a bearer token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing authorization token")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := m.tokens.Verify(parts[1])
		if err != nil {
			m.logger.Warnw("failed to verify token", "error", err)
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set("operator", claims.Operator)
		c.Next()
	}
}
