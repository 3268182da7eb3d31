package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Log           LogConfig
	PubSub        PubSubConfig
	Dispatch      DispatchConfig
	Enrichment    EnrichmentConfig
	Observability ObservabilityConfig
}

type LogConfig struct {
	Level       string
	Environment string
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	SlowThreshold   time.Duration
}

type PubSubConfig struct {
	// NatsURL empty selects the in-process pub/sub.
	NatsURL string
}

type DispatchConfig struct {
	Schedule        string
	BatchSize       int
	Workers         int
	StaleClaimAfter time.Duration
	SendTimeout     time.Duration
	PublicBaseURL   string
}

type EnrichmentConfig struct {
	Timeout       time.Duration
	TravelAPIURL  string
	TravelAPIKey  string
	WeatherAPIURL string
	WeatherAPIKey string
	RatePerSec    int
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	OTLPEndpoint   string
	SamplingRate   float64
}

func Load() (*Config, error) {
	serverPort, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	readTimeout, err := time.ParseDuration(getEnv("SERVER_READ_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := time.ParseDuration(getEnv("SERVER_WRITE_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT: %w", err)
	}

	db, err := loadDatabase()
	if err != nil {
		return nil, err
	}

	dispatch, err := loadDispatch()
	if err != nil {
		return nil, err
	}

	enrichment, err := loadEnrichment()
	if err != nil {
		return nil, err
	}

	metricsEnabled, err := strconv.ParseBool(getEnv("METRICS_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_ENABLED: %w", err)
	}

	samplingRate, err := strconv.ParseFloat(getEnv("OTEL_SAMPLING_RATE", "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid OTEL_SAMPLING_RATE: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         serverPort,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		Database:   db,
		Dispatch:   dispatch,
		Enrichment: enrichment,
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Environment: getEnv("ENV", "prod"),
		},
		PubSub: PubSubConfig{
			NatsURL: os.Getenv("NATS_URL"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: metricsEnabled,
			OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			SamplingRate:   samplingRate,
		},
	}, nil
}

func loadDatabase() (DatabaseConfig, error) {
	maxOpenConns, err := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25"))
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}

	maxIdleConns, err := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "25"))
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}

	connMaxLifetime, err := time.ParseDuration(getEnv("DB_CONN_MAX_LIFETIME", "5m"))
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}

	slowThreshold, err := time.ParseDuration(getEnv("DB_SLOW_THRESHOLD", "200ms"))
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid DB_SLOW_THRESHOLD: %w", err)
	}

	cfg := DatabaseConfig{
		Driver:          strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DSN:             os.Getenv("POSTGRES_DSN"),
		SQLitePath:      getEnv("SQLITE_PATH", "reminders.db"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: connMaxLifetime,
		SlowThreshold:   slowThreshold,
	}

	switch cfg.Driver {
	case DriverPostgres:
		if cfg.DSN == "" {
			return DatabaseConfig{}, errors.New("POSTGRES_DSN environment variable is required")
		}
	case DriverSQLite:
	default:
		return DatabaseConfig{}, fmt.Errorf("invalid DB_DRIVER %q: want %s or %s", cfg.Driver, DriverPostgres, DriverSQLite)
	}

	return cfg, nil
}

func loadDispatch() (DispatchConfig, error) {
	batchSize, err := strconv.Atoi(getEnv("DISPATCH_BATCH_SIZE", "100"))
	if err != nil || batchSize < 1 {
		return DispatchConfig{}, fmt.Errorf("invalid DISPATCH_BATCH_SIZE: %q", os.Getenv("DISPATCH_BATCH_SIZE"))
	}

	workers, err := strconv.Atoi(getEnv("DISPATCH_WORKERS", "4"))
	if err != nil || workers < 1 {
		return DispatchConfig{}, fmt.Errorf("invalid DISPATCH_WORKERS: %q", os.Getenv("DISPATCH_WORKERS"))
	}

	staleAfter, err := time.ParseDuration(getEnv("DISPATCH_STALE_CLAIM_AFTER", "10m"))
	if err != nil {
		return DispatchConfig{}, fmt.Errorf("invalid DISPATCH_STALE_CLAIM_AFTER: %w", err)
	}

	sendTimeout, err := time.ParseDuration(getEnv("CHANNEL_SEND_TIMEOUT", "10s"))
	if err != nil {
		return DispatchConfig{}, fmt.Errorf("invalid CHANNEL_SEND_TIMEOUT: %w", err)
	}

	return DispatchConfig{
		Schedule:        getEnv("DISPATCH_SCHEDULE", "@every 1m"),
		BatchSize:       batchSize,
		Workers:         workers,
		StaleClaimAfter: staleAfter,
		SendTimeout:     sendTimeout,
		PublicBaseURL:   os.Getenv("PUBLIC_BASE_URL"),
	}, nil
}

func loadEnrichment() (EnrichmentConfig, error) {
	timeout, err := time.ParseDuration(getEnv("ENRICHMENT_TIMEOUT", "5s"))
	if err != nil {
		return EnrichmentConfig{}, fmt.Errorf("invalid ENRICHMENT_TIMEOUT: %w", err)
	}

	ratePerSec, err := strconv.Atoi(getEnv("PROVIDER_RATE_PER_SEC", "5"))
	if err != nil {
		return EnrichmentConfig{}, fmt.Errorf("invalid PROVIDER_RATE_PER_SEC: %w", err)
	}

	return EnrichmentConfig{
		Timeout:       timeout,
		TravelAPIURL:  os.Getenv("TRAVEL_API_URL"),
		TravelAPIKey:  os.Getenv("TRAVEL_API_KEY"),
		WeatherAPIURL: os.Getenv("WEATHER_API_URL"),
		WeatherAPIKey: os.Getenv("WEATHER_API_KEY"),
		RatePerSec:    ratePerSec,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
