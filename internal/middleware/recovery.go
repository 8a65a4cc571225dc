package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avaguard/internal/observability"
)

// Recovery returns a middleware that recovers from panics, logs them with
// a stack trace and answers 500 if nothing was written yet.
func Recovery(logger observability.Logger, metrics *observability.Metrics) gin.HandlerFunc {
	if logger == nil {
		logger = observability.NopLogger()
	}

	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}

				logger.WithContext(c.Request.Context()).Error("panic recovered",
					observability.String("path", c.Request.URL.Path),
					observability.String("method", c.Request.Method),
					observability.Any("error", err),
					observability.String("stack", string(debug.Stack())),
				)
				if metrics != nil {
					metrics.RecordPanic()
				}

				if !c.Writer.Written() {
					c.Data(http.StatusInternalServerError, "application/json", []byte(errInternalServer))
				}
				c.Abort()
			}
		}()

		c.Next()
	}
}
