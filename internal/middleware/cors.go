package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS gates requests on their Origin before anything else runs: a
// disallowed cross-origin caller is rejected before auth or rate limiting
// spend any work. An empty allow-list means allow all.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		originOK := len(allowed) == 0 || allowed[origin]

		if originOK {
			if len(allowed) == 0 {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				// Echo the exact origin; responses now vary per caller
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
		}
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			if !originOK {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		if !originOK {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Origin not allowed",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
