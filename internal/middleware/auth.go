package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-schedule-api/internal/models"
	appErrors "github.com/noah-isme/class-schedule-api/pkg/errors"
	"github.com/noah-isme/class-schedule-api/pkg/response"
)

// ContextClaimsKey is the gin context key storing validated JWT claims.
const ContextClaimsKey = "claims"

type tokenValidator interface {
	Enabled() bool
	ValidateToken(token string) (*models.JWTClaims, error)
}

// RequireWrite guards mutating routes. When authentication is disabled every
// request passes; otherwise a bearer token carrying the write scope is required.
func RequireWrite(auth tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil || !auth.Enabled() {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or malformed authorization header"))
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// Claims returns the claims attached by RequireWrite, if any.
func Claims(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ContextClaimsKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.JWTClaims)
	return claims
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
