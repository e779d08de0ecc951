package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ncastellan/pricewatch-backend-go/pkg/logger"
)

// RequestLogger logs every HTTP request through the service logger.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		log.Infof(c.Request.Context(), "%s %s %d %v %s %s",
			c.Request.Method,
			path,
			c.Writer.Status(),
			time.Since(start),
			c.ClientIP(),
			c.Errors.String(),
		)
	}
}
