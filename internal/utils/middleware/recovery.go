package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/botmarket/server/internal/utils/errors"
	"github.com/botmarket/server/internal/utils/logger"
)

// Recovery turns a handler panic into a 500 INTERNAL_ERROR response.
// A nil log falls back to the default logger.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.New(nil)
	}

	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			log.LogAttrs(c.Request.Context(), slog.LevelError, "panic recovered",
				slog.Any("panic", r),
				logger.String("method", c.Request.Method),
				logger.String("path", c.Request.URL.Path),
				logger.String(RequestIDKey, GetRequestID(c)),
				logger.String("stack", string(debug.Stack())),
			)

			appErr := errors.Internal("internal server error", fmt.Errorf("panic: %v", r))
			c.AbortWithStatusJSON(appErr.StatusCode, appErr.ToResponse())
		}()
		c.Next()
	}
}
