package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Enabled exposes metrics on a Prometheus registry. A disabled provider
	// still hands out working meters that never export.
	Enabled bool
}

type Provider struct {
	mp       *sdkmetric.MeterProvider
	registry *prometheus.Registry
}

func NewProvider(cfg Config) (*Provider, error) {
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
	)

	if !cfg.Enabled {
		return &Provider{mp: sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))}, nil
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)

	return &Provider{mp: mp, registry: registry}, nil
}

// Install makes the provider the process-wide default so instrumented
// packages that call otel.Meter report through it.
func (p *Provider) Install() {
	otel.SetMeterProvider(p.mp)
}

func (p *Provider) Meter(name string) metric.Meter {
	return p.mp.Meter(name)
}

// Handler serves the Prometheus scrape endpoint, or 404 when disabled.
func (p *Provider) Handler() http.Handler {
	if p.registry == nil {
		return http.NotFoundHandler()
	}

	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Provider) Shutdown(ctx context.Context) error {
	return p.mp.Shutdown(ctx)
}
