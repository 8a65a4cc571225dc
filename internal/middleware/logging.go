package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avaguard/internal/observability"
)

// LoggingConfig holds configuration for the logging middleware.
type LoggingConfig struct {
	Logger observability.Logger

	// SkipPaths are exact paths that are never logged.
	SkipPaths []string

	// SkipOperational suppresses logs for successful requests to the
	// operational "/__" routes polled by load balancers.
	SkipOperational bool

	// ClientIP resolves the client address logged for each request.
	ClientIP *ClientIPExtractor
}

// Logging returns a middleware that logs HTTP requests.
func Logging(logger observability.Logger) gin.HandlerFunc {
	return LoggingWithConfig(LoggingConfig{Logger: logger})
}

// LoggingWithConfig returns a logging middleware with custom configuration.
func LoggingWithConfig(config LoggingConfig) gin.HandlerFunc {
	if config.Logger == nil {
		config.Logger = observability.NopLogger()
	}

	skipPaths := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		if skipPaths[path] {
			return
		}
		if config.SkipOperational && strings.HasPrefix(path, "/__") && status < http.StatusBadRequest {
			return
		}

		fields := []observability.Field{
			observability.String("method", c.Request.Method),
			observability.String("path", path),
			observability.String("query", c.Request.URL.RawQuery),
			observability.Int("status", status),
			observability.Duration("latency", time.Since(start)),
			observability.String("client_ip", config.ClientIP.Extract(c.Request)),
			observability.String("user_agent", c.Request.UserAgent()),
			observability.Int("body_size", c.Writer.Size()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, observability.String("errors", c.Errors.String()))
		}

		logRequestByStatus(config.Logger.WithContext(c.Request.Context()), status, fields)
	}
}

// logRequestByStatus logs the request with a level based on status code.
// 401 is logged at info: denials are reported by the auth middleware.
func logRequestByStatus(logger observability.Logger, status int, fields []observability.Field) {
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request completed", fields...)
	case status >= http.StatusBadRequest && status != http.StatusUnauthorized:
		logger.Warn("request completed", fields...)
	default:
		logger.Info("request completed", fields...)
	}
}
