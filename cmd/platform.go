package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/app"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/config"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/infra/external"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/infra/handler"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/infra/pubsub"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/observability"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/observability/logging"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/observability/middleware"
)

const serviceName = "reminder-delivery"

func initObservability(ctx context.Context, cfg *config.Config) (*observability.Resources, error) {
	return observability.Init(ctx, observability.Config{
		ServiceInfo: logging.ServiceInfo{
			Name:     serviceName,
			Version:  Version,
			Revision: os.Getenv("REVISION"),
		},
		Environment:    logging.Environment(cfg.Log.Environment),
		LogLevel:       cfg.Log.Level,
		DefaultModule:  logging.ModuleReminder,
		OTLPEndpoint:   cfg.Observability.OTLPEndpoint,
		SamplingRate:   cfg.Observability.SamplingRate,
		MetricsEnabled: cfg.Observability.MetricsEnabled,
	})
}

func initDatabase(cfg config.DatabaseConfig, logLevel string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath + "?_busy_timeout=5000&_journal_mode=WAL")
	default:
		dialector = postgres.Open(cfg.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logging.NewGormLogger(cfg.SlowThreshold, logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if cfg.Driver == config.DriverSQLite {
		// sqlite serialises writers; one connection keeps claim updates atomic.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	slog.Info("database initialized", "driver", cfg.Driver)

	return db, nil
}

func initPublisher(ctx context.Context, cfg *config.Config) (message.Publisher, error) {
	if cfg.PubSub.NatsURL == "" {
		slog.Warn("NATS_URL not set, reminders will be marked sent without reaching any channel worker")

		local := pubsub.NewLocalPubSub()
		if err := pubsub.NewLogSink(local, nil).Start(ctx); err != nil {
			_ = local.Close()

			return nil, err
		}

		return local, nil
	}

	publisher, err := pubsub.NewNATSPublisherWithStream(ctx, pubsub.NATSPublisherConfig{
		URL: cfg.PubSub.NatsURL,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("NATS publisher initialized", "url", cfg.PubSub.NatsURL)

	return publisher, nil
}

// initEnrichment returns nil services for providers without a configured URL;
// the scheduler then skips that enrichment.
func initEnrichment(cfg config.EnrichmentConfig) (app.TravelTimeService, app.WeatherService, error) {
	var (
		travel  app.TravelTimeService
		weather app.WeatherService
	)

	if cfg.TravelAPIURL != "" {
		client, err := external.NewTravelClient(external.ClientConfig{
			BaseURL:    cfg.TravelAPIURL,
			APIKey:     cfg.TravelAPIKey,
			RatePerSec: cfg.RatePerSec,
			Timeout:    cfg.Timeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("travel provider: %w", err)
		}

		travel = client
	}

	if cfg.WeatherAPIURL != "" {
		client, err := external.NewWeatherClient(external.ClientConfig{
			BaseURL:    cfg.WeatherAPIURL,
			APIKey:     cfg.WeatherAPIKey,
			RatePerSec: cfg.RatePerSec,
			Timeout:    cfg.Timeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("weather provider: %w", err)
		}

		weather = client
	}

	slog.Info("enrichment providers configured",
		"traffic", travel != nil,
		"weather", weather != nil,
	)

	return travel, weather, nil
}

func setupRouter(reminderHandler *handler.ReminderHandler, obs *observability.Resources) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Gin(middleware.GinConfig{
			SkipPaths:      []string{"/ping", "/metrics"},
			Module:         logging.ModuleReminder,
			ModuleResolver: middleware.ModuleByRoute,
			TracerName:     serviceName,
			HTTPMetrics:    obs.HTTPMetrics,
		}),
		middleware.PanicRecoveryGin(),
	)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router.GET("/metrics", gin.WrapH(obs.Metrics.Handler()))

	v1 := router.Group("/api/v1")
	reminderHandler.RegisterRoutes(v1)

	return router
}
