package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

type Environment string

const (
	EnvDev  Environment = "dev"
	EnvProd Environment = "prod"
)

type ServiceInfo struct {
	Name     string
	Version  string
	Revision string
}

type Config struct {
	Level         string
	Environment   Environment
	Service       ServiceInfo
	DefaultModule Module
}

// ContextHandler decorates records with the request id, module and trace ids
// found in the record's context.
type ContextHandler struct {
	inner         slog.Handler
	defaultModule Module
}

func NewContextHandler(inner slog.Handler, defaultModule Module) *ContextHandler {
	return &ContextHandler{inner: inner, defaultModule: defaultModule}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if id := RequestIDFromContext(ctx); id != "" {
			r.AddAttrs(slog.String("request_id", id))
		}

		module := ModuleFromContext(ctx)
		if module == "" {
			module = h.defaultModule
		}

		if module != "" {
			r.AddAttrs(slog.String("module", string(module)))
		}

		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			r.AddAttrs(
				slog.String("trace_id", sc.TraceID().String()),
				slog.String("span_id", sc.SpanID().String()),
				slog.Bool("trace_sampled", sc.IsSampled()),
			)
		}
	}

	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), defaultModule: h.defaultModule}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name), defaultModule: h.defaultModule}
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the service logger: JSON in prod, text in dev, with
// service attributes on every record.
func NewLogger(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var base slog.Handler
	if cfg.Environment == EnvDev {
		base = slog.NewTextHandler(w, opts)
	} else {
		base = slog.NewJSONHandler(w, opts)
	}

	attrs := []slog.Attr{slog.String("service", cfg.Service.Name)}
	if cfg.Service.Version != "" {
		attrs = append(attrs, slog.String("version", cfg.Service.Version))
	}

	if cfg.Service.Revision != "" {
		attrs = append(attrs, slog.String("revision", cfg.Service.Revision))
	}

	return slog.New(NewContextHandler(base.WithAttrs(attrs), cfg.DefaultModule))
}
