package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/botmarket/server/internal/utils/logger"
)

// Logging returns a middleware that writes one access log line per request.
// Requests to skipPaths are served without logging.
func Logging(log *logger.Logger, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []slog.Attr{
			logger.Int("status", status),
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			slog.Int64("latency_ms", time.Since(start).Milliseconds()),
			logger.String("client_ip", c.ClientIP()),
		}

		if q := c.Request.URL.RawQuery; q != "" {
			attrs = append(attrs, logger.String("query", q))
		}
		if id := GetRequestID(c); id != "" {
			attrs = append(attrs, logger.String(RequestIDKey, id))
		}
		if subject := GetSubject(c); subject != "" {
			attrs = append(attrs, logger.String("caller", subject))
		}
		if c.GetHeader(IdempotencyKeyHeader) != "" {
			attrs = append(attrs, slog.Bool("idempotent", true))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, logger.String("errors", c.Errors.String()))
		}

		log.LogAttrs(c.Request.Context(), levelForStatus(status), "request completed", attrs...)
	}
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
