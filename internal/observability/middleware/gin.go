package middleware

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/observability/logging"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/observability/metrics"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/observability/tracing"
)

const requestIDHeader = "x-request-id"

type GinConfig struct {
	// SkipPaths bypass logging, tracing and metrics (health checks, scrapes).
	SkipPaths      []string
	Module         logging.Module
	ModuleResolver func(*gin.Context) logging.Module
	TracerName     string
	HTTPMetrics    *metrics.HTTPMetrics
}

func Gin(cfg GinConfig) gin.HandlerFunc {
	skipSet := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skipSet[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, skip := skipSet[c.Request.URL.Path]; skip {
			c.Next()

			return
		}

		start := time.Now()

		requestID := logging.ValidateAndExtractRequestID(c.Request.Header.Get(requestIDHeader))
		ctx := logging.WithRequestID(c.Request.Context(), requestID)

		module := cfg.Module
		if cfg.ModuleResolver != nil {
			if m := cfg.ModuleResolver(c); m != "" {
				module = m
			}
		}

		if module != "" {
			ctx = logging.WithModule(ctx, module)
		}

		ctx = tracing.ExtractFromHTTPRequest(ctx, c.Request)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, span := otel.Tracer(cfg.TracerName).Start(ctx, fmt.Sprintf("%s %s", c.Request.Method, route),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Request.Method),
				attribute.String("http.route", route),
				attribute.String("request_id", requestID),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Header(requestIDHeader, requestID)

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		span.SetAttributes(attribute.Int("http.response.status_code", status))

		if status >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("status %d", status))
		}

		if cfg.HTTPMetrics != nil {
			cfg.HTTPMetrics.Record(ctx, c.Request.Method, route, status, duration)
		}

		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		}

		slog.LogAttrs(ctx, level, "request completed",
			slog.String("event", "http.request.finish"),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("route", route),
			slog.String("remote_addr", c.ClientIP()),
			slog.Int("status", status),
			slog.Duration("duration", duration),
		)
	}
}

// ModuleByRoute tags dispatch and suggestion routes with their own module.
func ModuleByRoute(c *gin.Context) logging.Module {
	switch c.FullPath() {
	case "/api/v1/reminders/dispatch":
		return logging.ModuleDispatch
	case "/api/v1/reminders/suggestions":
		return logging.ModuleSuggestion
	default:
		return ""
	}
}
