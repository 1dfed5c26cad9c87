package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/class-schedule-api/pkg/errors"
	"github.com/noah-isme/class-schedule-api/pkg/logger"
	"github.com/noah-isme/class-schedule-api/pkg/response"
)

// Recovery turns handler panics into the standard 500 envelope.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.FromContext(c, log).Error("panic recovered",
					zap.String("route", c.FullPath()),
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)
				if c.Writer.Written() {
					c.Abort()
					return
				}
				response.Error(c, appErrors.Internal(fmt.Errorf("panic: %v", rec), "unexpected server error"))
				c.Abort()
			}
		}()
		c.Next()
	}
}
