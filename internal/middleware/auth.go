package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const addressKey = "caller_address"

// RequireAuth validates the bearer token and binds the subject claim as the
// caller address for downstream handlers. Key management and address
// verification live in the external identity provider; the token subject is
// trusted here.
func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "invalid token")
			return
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			abortUnauthorized(c, "token missing subject")
			return
		}

		c.Set(addressKey, subject)
		c.Next()
	}
}

// CallerAddress returns the authenticated address bound by RequireAuth.
func CallerAddress(c *gin.Context) string {
	return c.GetString(addressKey)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"kind":    "authorization",
			"message": message,
		},
	})
}
