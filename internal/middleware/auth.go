package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/studymate/internal/auth"
)

// Context keys for claims stored in gin.Context.
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUsername = "username"
)

// AuthMiddleware validates the "Authorization: Bearer <token>" header and
// stores the caller's claims in the context.
//
// Handlers read the caller with GetUserID instead of trusting any id in the
// request body, so ownership checks always use the identity the token
// proves.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return authenticate(secret, false)
}

// WebSocketAuth is AuthMiddleware that also accepts ?token=. Browsers
// cannot set headers on a websocket handshake, so only the upgrade route
// uses it; everywhere else a token in the URL would end up in proxy and
// access logs.
func WebSocketAuth(secret string) gin.HandlerFunc {
	return authenticate(secret, true)
}

func authenticate(secret string, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c, allowQuery)
		if !ok {
			return
		}

		claims, err := auth.ParseToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUsername, claims.Username)
		c.Next()
	}
}

// bearerToken aborts with 401 and returns false when no token is present.
func bearerToken(c *gin.Context, allowQuery bool) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := c.Query("token"); allowQuery && token != "" {
			return token, true
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing authorization header",
		})
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid authorization format, expected: Bearer <token>",
		})
		return "", false
	}
	return parts[1], true
}

// GetUserID returns the authenticated caller, or "" outside AuthMiddleware.
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

func GetUsername(c *gin.Context) string {
	return c.GetString(ContextKeyUsername)
}
