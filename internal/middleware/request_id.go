package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"go-timesheet/internal/shared/contextutil"
)

// RequestID assigns an X-Request-ID when the client did not send one and
// propagates it to the standard context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.New().String()
		}

		c.Set("request_id", rid)

		ctx := contextutil.WithRequestID(c.Request.Context(), rid)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", rid)
		c.Next()
	}
}
