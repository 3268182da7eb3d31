package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PanicRecoveryGin turns a handler panic into a 500 response. It must be
// registered after Gin so the log line carries the request id and span.
func PanicRecoveryGin() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				ctx := c.Request.Context()

				slog.ErrorContext(ctx, "panic recovered",
					slog.String("event", "app.panic"),
					slog.Any("error", rec),
					slog.String("stack", string(debug.Stack())),
				)

				span := trace.SpanFromContext(ctx)
				span.SetStatus(codes.Error, fmt.Sprint(rec))

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   "internal_error",
					"message": "an internal error occurred",
				})
			}
		}()

		c.Next()
	}
}
