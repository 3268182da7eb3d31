package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/observability/logging"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/observability/metrics"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/observability/tracing"
)

type Config struct {
	ServiceInfo    logging.ServiceInfo
	Environment    logging.Environment
	LogLevel       string
	DefaultModule  logging.Module
	OTLPEndpoint   string
	SamplingRate   float64
	MetricsEnabled bool
}

type Resources struct {
	Tracing     *tracing.Provider
	Metrics     *metrics.Provider
	HTTPMetrics *metrics.HTTPMetrics
}

// Init installs the default logger, tracer provider and meter provider.
func Init(ctx context.Context, cfg Config) (*Resources, error) {
	slog.SetDefault(logging.NewLogger(os.Stdout, logging.Config{
		Level:         cfg.LogLevel,
		Environment:   cfg.Environment,
		Service:       cfg.ServiceInfo,
		DefaultModule: cfg.DefaultModule,
	}))

	tp, err := tracing.NewProvider(ctx, tracing.Config{
		ServiceName:    cfg.ServiceInfo.Name,
		ServiceVersion: cfg.ServiceInfo.Version,
		Environment:    string(cfg.Environment),
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplingRate:   cfg.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	tp.Install()

	mp, err := metrics.NewProvider(metrics.Config{
		ServiceName:    cfg.ServiceInfo.Name,
		ServiceVersion: cfg.ServiceInfo.Version,
		Environment:    string(cfg.Environment),
		Enabled:        cfg.MetricsEnabled,
	})
	if err != nil {
		_ = tp.Shutdown(ctx)

		return nil, fmt.Errorf("metrics: %w", err)
	}

	mp.Install()

	httpMetrics, err := metrics.NewHTTPMetrics(mp.Meter(cfg.ServiceInfo.Name))
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)

		return nil, fmt.Errorf("http metrics: %w", err)
	}

	slog.Info("observability initialized",
		slog.Bool("tracing_export", cfg.OTLPEndpoint != ""),
		slog.Bool("metrics_enabled", cfg.MetricsEnabled),
	)

	return &Resources{
		Tracing:     tp,
		Metrics:     mp,
		HTTPMetrics: httpMetrics,
	}, nil
}

func (r *Resources) Shutdown(ctx context.Context) error {
	return errors.Join(r.Tracing.Shutdown(ctx), r.Metrics.Shutdown(ctx))
}
