package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClaimsKey is where AuthMiddleware stores the verified claims map.
const ClaimsKey = "claims"

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": msg})
}

// AuthMiddleware verifies the Bearer token and stores its claims on the context.
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			unauthorized(c, "missing Authorization header")
			return
		}
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			unauthorized(c, "invalid Authorization header")
			return
		}

		verified, err := ver.Verify(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			unauthorized(c, "invalid token")
			return
		}

		var claims map[string]interface{}
		if err := verified.Claims(&claims); err != nil {
			unauthorized(c, "failed to parse claims")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// InstitutionScope rejects tokens issued for a different institution than
// the :institutionId route parameter.
func InstitutionScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claimString(c, "institutionId") != c.Param("institutionId") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "token not valid for this institution"})
			return
		}
		c.Next()
	}
}

func claimString(c *gin.Context, key string) string {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return ""
	}
	cm, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	s, _ := cm[key].(string)
	return s
}
