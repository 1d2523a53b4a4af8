package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags every request with an id, honoring one the
// caller already sent. The id travels in the response header and the
// gin context so handlers can attach it to log lines.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestID returns the id assigned to the current request, or "" when
// the middleware is not installed.
func RequestID(c *gin.Context) string {
	return c.GetString("request_id")
}
