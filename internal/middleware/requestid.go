package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Tags every request with a UUID for log correlation
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}
