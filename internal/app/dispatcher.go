package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/domain"
)

const meterName = "github.com/KasumiMercury/primind-reminder-delivery/internal/app"

var (
	ErrChannelUnavailable = errors.New("delivery channel not configured")
	ErrNoRecipient        = errors.New("no recipient address for channel")
)

type DispatcherConfig struct {
	BatchSize     int
	Workers       int
	SendTimeout   time.Duration
	LookupTimeout time.Duration
	PublicBaseURL string
	Now           func() time.Time
}

// Channels groups the per-channel senders. A nil sender fails deliveries on
// that channel without affecting the others.
type Channels struct {
	Push  PushSender
	Email EmailSender
	SMS   SMSSender
}

// DeliveryOutcome is the per-reminder line of a BatchReport.
type DeliveryOutcome struct {
	ReminderID  string
	UserID      string
	Channel     string
	Status      string
	Error       string
	SuccessorID string
	Duration    time.Duration
}

type BatchReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Attempted  int
	Succeeded  int
	Failed     int
	Details    []DeliveryOutcome
}

type dispatchMetrics struct {
	attempted metric.Int64Counter
	succeeded metric.Int64Counter
	failed    metric.Int64Counter
	duration  metric.Float64Histogram
}

func newDispatchMetrics() dispatchMetrics {
	meter := otel.Meter(meterName)

	var m dispatchMetrics
	var err error

	if m.attempted, err = meter.Int64Counter("reminder.dispatch.attempted",
		metric.WithDescription("Reminders claimed for delivery"),
	); err != nil {
		slog.Warn("failed to create metric", "name", "reminder.dispatch.attempted", "error", err)
	}

	if m.succeeded, err = meter.Int64Counter("reminder.dispatch.succeeded",
		metric.WithDescription("Reminders delivered"),
	); err != nil {
		slog.Warn("failed to create metric", "name", "reminder.dispatch.succeeded", "error", err)
	}

	if m.failed, err = meter.Int64Counter("reminder.dispatch.failed",
		metric.WithDescription("Reminders whose delivery failed"),
	); err != nil {
		slog.Warn("failed to create metric", "name", "reminder.dispatch.failed", "error", err)
	}

	if m.duration, err = meter.Float64Histogram("reminder.dispatch.batch.duration",
		metric.WithDescription("Wall time of one dispatch batch"),
		metric.WithUnit("s"),
	); err != nil {
		slog.Warn("failed to create metric", "name", "reminder.dispatch.batch.duration", "error", err)
	}

	return m
}

func (m dispatchMetrics) record(ctx context.Context, report BatchReport) {
	if m.attempted != nil {
		m.attempted.Add(ctx, int64(report.Attempted))
	}

	if m.duration != nil {
		m.duration.Record(ctx, report.FinishedAt.Sub(report.StartedAt).Seconds())
	}

	for _, d := range report.Details {
		attrs := metric.WithAttributes(attribute.String("channel", d.Channel))

		if d.Status == string(domain.StatusSent) {
			if m.succeeded != nil {
				m.succeeded.Add(ctx, 1, attrs)
			}
		} else if m.failed != nil {
			m.failed.Add(ctx, 1, attrs)
		}
	}
}

type Dispatcher struct {
	repo      domain.ReminderRepository
	events    EventSource
	users     UserDirectory
	channels  Channels
	publisher LifecyclePublisher
	cfg       DispatcherConfig
	metrics   dispatchMetrics
}

func NewDispatcher(
	repo domain.ReminderRepository,
	events EventSource,
	users UserDirectory,
	channels Channels,
	publisher LifecyclePublisher,
	cfg DispatcherConfig,
) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}

	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Dispatcher{
		repo:      repo,
		events:    events,
		users:     users,
		channels:  channels,
		publisher: publisher,
		cfg:       cfg,
		metrics:   newDispatchMetrics(),
	}
}

// RunDueReminders claims every due reminder (up to the batch size) and
// delivers each one independently. Only a failure to claim is returned as an
// error; per-reminder failures are reported in the batch details.
func (d *Dispatcher) RunDueReminders(ctx context.Context) (BatchReport, error) {
	report := BatchReport{StartedAt: d.cfg.Now()}
	claimToken := uuid.NewString()

	slog.Debug("claiming due reminders",
		"limit", d.cfg.BatchSize,
		"claim_token", claimToken,
	)

	claimed, err := d.repo.ClaimDue(ctx, report.StartedAt, d.cfg.BatchSize, claimToken)
	if err != nil {
		slog.Error("failed to claim due reminders", "error", err)

		return report, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	report.Attempted = len(claimed)
	report.Details = make([]DeliveryOutcome, len(claimed))

	var g errgroup.Group
	g.SetLimit(d.cfg.Workers)

	for i, r := range claimed {
		g.Go(func() error {
			report.Details[i] = d.process(ctx, r)

			return nil
		})
	}

	_ = g.Wait()

	for _, outcome := range report.Details {
		if outcome.Status == string(domain.StatusSent) {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	report.FinishedAt = d.cfg.Now()
	d.metrics.record(ctx, report)

	if report.Attempted > 0 {
		slog.Info("dispatch batch finished",
			"attempted", report.Attempted,
			"succeeded", report.Succeeded,
			"failed", report.Failed,
			"duration", report.FinishedAt.Sub(report.StartedAt).String(),
		)
	}

	return report, nil
}

// RecoverStaleClaims returns reminders stuck in PROCESSING for longer than
// olderThan to PENDING so the next batch delivers them again.
func (d *Dispatcher) RecoverStaleClaims(ctx context.Context, olderThan time.Duration) (int64, error) {
	released, err := d.repo.ReleaseStaleClaims(ctx, d.cfg.Now().Add(-olderThan))
	if err != nil {
		slog.Error("failed to release stale claims", "error", err)

		return 0, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if released > 0 {
		slog.Warn("released stale reminder claims", "count", released)
	}

	return released, nil
}

func (d *Dispatcher) process(ctx context.Context, r *domain.Reminder) (outcome DeliveryOutcome) {
	started := time.Now()

	outcome = DeliveryOutcome{
		ReminderID: r.ID().String(),
		UserID:     r.UserID().String(),
		Channel:    string(r.Channel()),
	}

	defer func() {
		if rec := recover(); rec != nil {
			reason := fmt.Sprintf("panic: %v", rec)

			slog.Error("panic while dispatching reminder",
				"reminder_id", outcome.ReminderID,
				"panic", rec,
			)

			d.failAfterPanic(ctx, r, reason)

			outcome.Status = string(domain.StatusFailed)
			outcome.Error = reason
			outcome.SuccessorID = ""
		}

		outcome.Duration = time.Since(started)
	}()

	profile := d.profileOf(ctx, r)
	sendErr := d.deliver(ctx, r, profile)
	now := d.cfg.Now()

	if sendErr != nil {
		slog.Warn("reminder delivery failed",
			"reminder_id", outcome.ReminderID,
			"channel", outcome.Channel,
			"error", sendErr,
		)

		if err := r.MarkFailed(sendErr.Error(), now); err != nil {
			outcome.Status = string(domain.StatusFailed)
			outcome.Error = err.Error()

			return outcome
		}
	} else if err := r.MarkSent(now); err != nil {
		outcome.Status = string(domain.StatusFailed)
		outcome.Error = err.Error()

		return outcome
	}

	successor := d.successorOf(r, profile.TimeLocation(), now)

	err := d.repo.WithTx(ctx, func(tx domain.ReminderRepository) error {
		if err := tx.Transition(ctx, r, domain.StatusProcessing); err != nil {
			return err
		}

		if successor == nil {
			return nil
		}

		created, err := tx.SaveSuccessor(ctx, successor)
		if err != nil {
			return fmt.Errorf("save successor: %w", err)
		}

		if !created {
			successor = nil
		}

		return nil
	})
	if err != nil {
		slog.Error("failed to record delivery outcome",
			"reminder_id", outcome.ReminderID,
			"status", string(r.Status()),
			"error", err,
		)

		outcome.Status = string(domain.StatusFailed)
		outcome.Error = "record outcome: " + err.Error()

		return outcome
	}

	outcome.Status = string(r.Status())
	if sendErr != nil {
		outcome.Error = sendErr.Error()
	}

	if successor != nil {
		outcome.SuccessorID = successor.ID().String()

		slog.Info("scheduled next occurrence",
			"reminder_id", outcome.ReminderID,
			"successor_id", outcome.SuccessorID,
			"scheduled_for", successor.ScheduledFor(),
		)
	}

	if r.Status() == domain.StatusSent {
		d.publishSent(ctx, r, outcome.SuccessorID)
	}

	return outcome
}

// failAfterPanic records FAILED for a reminder whose processing panicked,
// unless its outcome was already persisted.
func (d *Dispatcher) failAfterPanic(ctx context.Context, r *domain.Reminder, reason string) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic while recording failed reminder",
				"reminder_id", r.ID().String(),
				"panic", rec,
			)
		}
	}()

	if r.Status() != domain.StatusProcessing {
		return
	}

	if err := r.MarkFailed(reason, d.cfg.Now()); err != nil {
		return
	}

	if err := d.repo.Transition(ctx, r, domain.StatusProcessing); err != nil {
		slog.Error("failed to record failed reminder",
			"reminder_id", r.ID().String(),
			"error", err,
		)
	}
}

// successorOf evaluates the recurrence on the user's calendar.
func (d *Dispatcher) successorOf(r *domain.Reminder, loc *time.Location, now time.Time) *domain.Reminder {
	if r.Status() != domain.StatusSent || !r.IsRecurring() {
		return nil
	}

	next, err := r.NextInChain(loc, now)
	if err != nil {
		slog.Warn("recurrence could not be evaluated, chain ends",
			"reminder_id", r.ID().String(),
			"recurrence_rule", r.RecurrenceRule(),
			"error", err,
		)

		return nil
	}

	if next == nil {
		slog.Debug("recurrence chain reached its end",
			"reminder_id", r.ID().String(),
		)
	}

	return next
}

func (d *Dispatcher) deliver(ctx context.Context, r *domain.Reminder, profile domain.UserProfile) error {
	switch r.Channel() {
	case domain.ChannelPush:
		if d.channels.Push == nil {
			return ErrChannelUnavailable
		}

		msg := PushMessage{
			UserID:   r.UserID().String(),
			Title:    r.Title(),
			Body:     d.body(ctx, r, profile.TimeLocation()),
			LinkURL:  d.linkURL(r),
			DedupKey: r.DedupKey(),
		}

		_, err := callWithTimeout(ctx, d.cfg.SendTimeout, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, d.channels.Push.SendPush(ctx, msg)
		})

		return err

	case domain.ChannelEmail:
		if d.channels.Email == nil {
			return ErrChannelUnavailable
		}

		if strings.TrimSpace(profile.Email) == "" {
			return fmt.Errorf("%w: email", ErrNoRecipient)
		}

		body := d.body(ctx, r, profile.TimeLocation())
		msg := EmailMessage{
			To:       profile.Email,
			Subject:  r.Title(),
			HTMLBody: toHTML(body),
			TextBody: body,
			DedupKey: r.DedupKey(),
		}

		_, err := callWithTimeout(ctx, d.cfg.SendTimeout, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, d.channels.Email.SendEmail(ctx, msg)
		})

		return err

	case domain.ChannelSMS:
		if d.channels.SMS == nil {
			return ErrChannelUnavailable
		}

		if strings.TrimSpace(profile.Phone) == "" {
			return fmt.Errorf("%w: sms", ErrNoRecipient)
		}

		msg := SMSMessage{
			To:       profile.Phone,
			Text:     d.body(ctx, r, profile.TimeLocation()),
			DedupKey: r.DedupKey(),
		}

		_, err := callWithTimeout(ctx, d.cfg.SendTimeout, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, d.channels.SMS.SendSMS(ctx, msg)
		})

		return err

	default:
		return fmt.Errorf("%w: %s", domain.ErrInvalidChannel, r.Channel())
	}
}

// profileOf returns an empty profile when the directory cannot answer; the
// channel decides whether that is fatal.
func (d *Dispatcher) profileOf(ctx context.Context, r *domain.Reminder) domain.UserProfile {
	if d.users == nil {
		return domain.UserProfile{UserID: r.UserID()}
	}

	profile, err := callWithTimeout(ctx, d.cfg.LookupTimeout, func(ctx context.Context) (domain.UserProfile, error) {
		return d.users.GetProfile(ctx, r.UserID())
	})
	if err != nil {
		slog.Warn("user profile lookup failed",
			"reminder_id", r.ID().String(),
			"user_id", r.UserID().String(),
			"error", err,
		)

		return domain.UserProfile{UserID: r.UserID()}
	}

	return profile
}

// body prefers the message composed at creation time and falls back to one
// built from the stored snapshots.
func (d *Dispatcher) body(ctx context.Context, r *domain.Reminder, loc *time.Location) string {
	if r.Message() != "" {
		return r.Message()
	}

	var event *domain.Event

	if !r.CalendarEventID().IsZero() && d.events != nil {
		ev, err := callWithTimeout(ctx, d.cfg.LookupTimeout, func(ctx context.Context) (domain.Event, error) {
			return d.events.GetEvent(ctx, r.CalendarEventID())
		})
		if err != nil {
			slog.Debug("event lookup failed, composing without event details",
				"reminder_id", r.ID().String(),
				"event_id", r.CalendarEventID().String(),
				"error", err,
			)
		} else {
			event = &ev
		}
	}

	return joinSections(
		headline(r.Title(), event, loc),
		trafficSection(r.Traffic(), time.Time{}, loc),
		weatherSection(r.Weather()),
	)
}

func (d *Dispatcher) linkURL(r *domain.Reminder) string {
	if d.cfg.PublicBaseURL == "" {
		return ""
	}

	return strings.TrimRight(d.cfg.PublicBaseURL, "/") + "/reminders/" + r.ID().String()
}

func (d *Dispatcher) publishSent(ctx context.Context, r *domain.Reminder, successorID string) {
	if d.publisher == nil {
		return
	}

	event := ReminderSentEvent{
		ReminderID:  r.ID().String(),
		UserID:      r.UserID().String(),
		Channel:     string(r.Channel()),
		SuccessorID: successorID,
	}
	if r.SentAt() != nil {
		event.SentAt = *r.SentAt()
	}

	if err := d.publisher.PublishReminderSent(ctx, event); err != nil {
		slog.Warn("failed to publish reminder sent event",
			"reminder_id", event.ReminderID,
			"error", err,
		)
	}
}
