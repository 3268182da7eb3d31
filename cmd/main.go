package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/app"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/config"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/infra/handler"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/infra/pubsub"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/infra/repository"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/infra/trigger"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)

		return 1
	}

	ctx := context.Background()

	obs, err := initObservability(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize observability", "error", err)

		return 1
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to flush telemetry", "error", err)
		}
	}()

	db, err := initDatabase(cfg.Database, cfg.Log.Level)
	if err != nil {
		slog.Error("failed to initialize database", "error", err)

		return 1
	}

	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("failed to get underlying sql.DB", "error", err)

		return 1
	}

	if err := repository.AutoMigrate(db); err != nil {
		slog.Error("failed to migrate database", "error", err)

		return 1
	}

	publisher, err := initPublisher(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize publisher", "error", err)

		return 1
	}

	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Warn("failed to close publisher", "error", err)
		}
	}()

	travel, weather, err := initEnrichment(cfg.Enrichment)
	if err != nil {
		slog.Error("failed to initialize enrichment providers", "error", err)

		return 1
	}

	reminderRepo := repository.NewReminderRepository(db)
	events := repository.NewEventSource(db)
	users := repository.NewUserDirectory(db)
	senders := pubsub.NewChannelPublisher(publisher)
	lifecycle := pubsub.NewEventPublisher(publisher)

	dispatcher := app.NewDispatcher(reminderRepo, events, users,
		app.Channels{Push: senders, Email: senders, SMS: senders},
		lifecycle,
		app.DispatcherConfig{
			BatchSize:     cfg.Dispatch.BatchSize,
			Workers:       cfg.Dispatch.Workers,
			SendTimeout:   cfg.Dispatch.SendTimeout,
			LookupTimeout: cfg.Enrichment.Timeout,
			PublicBaseURL: cfg.Dispatch.PublicBaseURL,
		},
	)

	reminderUseCase := app.NewReminderUseCase(app.ReminderUseCaseDeps{
		Repo:       reminderRepo,
		Events:     events,
		Users:      users,
		Scheduler:  app.NewIntelligentScheduler(travel, weather, cfg.Enrichment.Timeout),
		Dispatcher: dispatcher,
		Publisher:  lifecycle,
	})

	runner, err := trigger.NewRunner(dispatcher, dispatcher, trigger.Config{
		DispatchSchedule: cfg.Dispatch.Schedule,
		StaleClaimAfter:  cfg.Dispatch.StaleClaimAfter,
	})
	if err != nil {
		slog.Error("failed to configure dispatch trigger", "error", err)

		return 1
	}

	router := setupRouter(handler.NewReminderHandler(reminderUseCase), obs)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	runner.Start()

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "address", cfg.Server.Address(), "version", Version)
		serverErr <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server exited with error", "error", err)

			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)

		exitCode = 1
	}

	if err := runner.Stop(shutdownCtx); err != nil {
		slog.Error("failed to stop dispatch trigger", "error", err)

		exitCode = 1
	}

	if err := sqlDB.Close(); err != nil {
		slog.Error("failed to close database connection", "error", err)
	}

	slog.Info("server exited", "code", exitCode)

	return exitCode
}
