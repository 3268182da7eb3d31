package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/app"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/observability/logging"
)

const (
	DefaultDispatchSchedule = "@every 1m"
	DefaultRecoverySchedule = "@every 1m"
	defaultJobTimeout       = 5 * time.Minute
	defaultStaleClaimAfter  = 10 * time.Minute
)

type DueReminderRunner interface {
	RunDueReminders(ctx context.Context) (app.BatchReport, error)
}

type StaleClaimRecoverer interface {
	RecoverStaleClaims(ctx context.Context, olderThan time.Duration) (int64, error)
}

type Config struct {
	DispatchSchedule string
	RecoverySchedule string
	StaleClaimAfter  time.Duration
	JobTimeout       time.Duration
}

// Runner drives the periodic dispatch and stale-claim recovery jobs.
// A job still running when its next tick fires is skipped for that tick.
type Runner struct {
	cron       *cron.Cron
	dispatcher DueReminderRunner
	recoverer  StaleClaimRecoverer
	cfg        Config

	baseCtx context.Context
	cancel  context.CancelFunc
}

func NewRunner(dispatcher DueReminderRunner, recoverer StaleClaimRecoverer, cfg Config) (*Runner, error) {
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}

	if cfg.DispatchSchedule == "" {
		cfg.DispatchSchedule = DefaultDispatchSchedule
	}

	if cfg.RecoverySchedule == "" {
		cfg.RecoverySchedule = DefaultRecoverySchedule
	}

	if cfg.StaleClaimAfter <= 0 {
		cfg.StaleClaimAfter = defaultStaleClaimAfter
	}

	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = defaultJobTimeout
	}

	logger := cronLogger{}
	baseCtx, cancel := context.WithCancel(context.Background())

	r := &Runner{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		dispatcher: dispatcher,
		recoverer:  recoverer,
		cfg:        cfg,
		baseCtx:    baseCtx,
		cancel:     cancel,
	}

	if _, err := r.cron.AddFunc(cfg.DispatchSchedule, r.DispatchJob); err != nil {
		cancel()

		return nil, fmt.Errorf("invalid dispatch schedule %q: %w", cfg.DispatchSchedule, err)
	}

	if recoverer != nil {
		if _, err := r.cron.AddFunc(cfg.RecoverySchedule, r.RecoveryJob); err != nil {
			cancel()

			return nil, fmt.Errorf("invalid recovery schedule %q: %w", cfg.RecoverySchedule, err)
		}
	}

	return r, nil
}

func (r *Runner) Start() {
	r.cron.Start()

	slog.Info("reminder trigger started",
		slog.String("dispatch_schedule", r.cfg.DispatchSchedule),
		slog.String("recovery_schedule", r.cfg.RecoverySchedule),
	)
}

// Stop halts scheduling, cancels in-flight jobs and waits for them to return
// or for ctx to expire.
func (r *Runner) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	r.cancel()

	select {
	case <-done.Done():
		slog.Info("reminder trigger stopped")

		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running jobs: %w", ctx.Err())
	}
}

func (r *Runner) DispatchJob() {
	ctx, cancel := context.WithTimeout(logging.WithModule(r.baseCtx, logging.ModuleDispatch), r.cfg.JobTimeout)
	defer cancel()

	report, err := r.dispatcher.RunDueReminders(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "scheduled dispatch failed",
			slog.String("error", err.Error()),
		)

		return
	}

	slog.DebugContext(ctx, "scheduled dispatch finished",
		slog.Int("attempted", report.Attempted),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		slog.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
}

func (r *Runner) RecoveryJob() {
	if r.recoverer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(logging.WithModule(r.baseCtx, logging.ModuleTrigger), r.cfg.JobTimeout)
	defer cancel()

	released, err := r.recoverer.RecoverStaleClaims(ctx, r.cfg.StaleClaimAfter)
	if err != nil {
		slog.ErrorContext(ctx, "stale claim recovery failed",
			slog.String("error", err.Error()),
		)

		return
	}

	slog.DebugContext(ctx, "stale claim recovery finished",
		slog.Int64("released", released),
		slog.Duration("older_than", r.cfg.StaleClaimAfter),
	)
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
