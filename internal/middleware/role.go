package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAddress gates a route group to a fixed set of platform addresses.
// Services re-check the caller on every operation; this guard just fails the
// obvious cases at the router.
func RequireAddress(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CallerAddress(c)
		for _, address := range allowed {
			if caller == address {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": gin.H{
				"kind":    "authorization",
				"message": "caller is not permitted",
			},
		})
	}
}
