package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/domain"
)

type ReminderUseCaseDeps struct {
	Repo        domain.ReminderRepository
	Events      EventSource
	Users       UserDirectory
	Scheduler   *IntelligentScheduler
	Suggestions *SuggestionEngine
	Dispatcher  *Dispatcher
	Publisher   LifecyclePublisher
	Now         func() time.Time
}

type reminderUseCaseImpl struct {
	repo        domain.ReminderRepository
	events      EventSource
	users       UserDirectory
	scheduler   *IntelligentScheduler
	suggestions *SuggestionEngine
	dispatcher  *Dispatcher
	publisher   LifecyclePublisher
	now         func() time.Time
}

func NewReminderUseCase(deps ReminderUseCaseDeps) ReminderUseCase {
	uc := &reminderUseCaseImpl{
		repo:        deps.Repo,
		events:      deps.Events,
		users:       deps.Users,
		scheduler:   deps.Scheduler,
		suggestions: deps.Suggestions,
		dispatcher:  deps.Dispatcher,
		publisher:   deps.Publisher,
		now:         deps.Now,
	}

	if uc.now == nil {
		uc.now = time.Now
	}

	if uc.scheduler == nil {
		uc.scheduler = NewIntelligentScheduler(nil, nil, 0)
	}

	if uc.suggestions == nil {
		uc.suggestions = NewSuggestionEngine(uc.repo, uc.events, uc.users, uc.now)
	}

	return uc
}

func (uc *reminderUseCaseImpl) CreateReminder(ctx context.Context, input CreateReminderInput) (ReminderOutput, error) {
	slog.Debug("creating reminder",
		"user_id", input.UserID,
		"calendar_event_id", input.CalendarEventID,
		"channel", input.Channel,
	)

	userID, err := domain.UserIDFromString(input.UserID)
	if err != nil {
		return ReminderOutput{}, NewValidationError("user_id", err.Error())
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return ReminderOutput{}, NewValidationError("title", domain.ErrEmptyTitle.Error())
	}

	channel := domain.ChannelPush
	if input.Channel != "" {
		if channel, err = domain.NewChannel(strings.ToUpper(input.Channel)); err != nil {
			return ReminderOutput{}, NewValidationError("channel", err.Error())
		}
	}

	var recurrence *domain.RecurrenceRule
	var recurrenceEnd *time.Time

	if input.Recurrence != nil {
		rule, err := domain.NewRecurrenceRule(input.Recurrence.Type, input.Recurrence.Interval)
		if err != nil {
			return ReminderOutput{}, NewValidationError("recurrence", err.Error())
		}

		recurrence = &rule
		recurrenceEnd = input.Recurrence.EndsAt
	}

	eventID, event, err := uc.resolveEvent(ctx, userID, input)
	if err != nil {
		return ReminderOutput{}, err
	}

	now := uc.now()

	var scheduledFor time.Time

	switch {
	case input.ScheduledFor != nil:
		scheduledFor = *input.ScheduledFor
	case input.OffsetMinutes != nil:
		if event == nil {
			return ReminderOutput{}, NewValidationError("calendar_event_id", "offset_minutes requires calendar_event_id")
		}
	default:
		return ReminderOutput{}, NewValidationError("scheduled_for", "scheduled_for or calendar_event_id with offset_minutes is required")
	}

	params := domain.NewReminderParams{
		UserID:          userID,
		CalendarEventID: eventID,
		Title:           title,
		Message:         input.Message,
		Channel:         channel,
		ScheduledFor:    scheduledFor,
		IncludeTraffic:  input.IncludeTraffic,
		IncludeWeather:  input.IncludeWeather,
		Recurrence:      recurrence,
		RecurrenceEnd:   recurrenceEnd,
	}

	if event != nil {
		offset := 0
		if input.OffsetMinutes != nil {
			if *input.OffsetMinutes < 0 {
				return ReminderOutput{}, NewValidationError("offset_minutes", "must not be negative")
			}

			offset = *input.OffsetMinutes
		}

		profile := uc.profileOf(ctx, userID)

		result := uc.scheduler.ComputeSchedule(ctx, ScheduleRequest{
			Title:       title,
			Event:       *event,
			BaseOffset:  time.Duration(offset) * time.Minute,
			WantTraffic: input.IncludeTraffic,
			WantWeather: input.IncludeWeather,
			Origin:      profile.Origin,
			Location:    profile.TimeLocation(),
		})

		params.Traffic = result.Traffic
		params.Weather = result.Weather

		if input.ScheduledFor == nil {
			params.ScheduledFor = result.RecommendedSendTime

			// A long travel estimate may already have passed the leave-by time;
			// the reminder then goes out at once instead of being rejected.
			baseline := event.Start.Add(-time.Duration(offset) * time.Minute)
			if params.ScheduledFor.Before(now) && !baseline.Before(now) {
				slog.Info("travel-adjusted send time already passed, sending immediately",
					"calendar_event_id", input.CalendarEventID,
					"recommended", params.ScheduledFor,
					"baseline", baseline,
				)

				params.ScheduledFor = now
			}
		}

		if strings.TrimSpace(params.Message) == "" {
			params.Message = result.ComposedMessage
		}
	}

	reminder, err := domain.NewReminder(params, now)
	if err != nil {
		if verr := validationFromDomain(err); verr != nil {
			return ReminderOutput{}, verr
		}

		return ReminderOutput{}, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := uc.repo.Save(ctx, reminder); err != nil {
		slog.Error("failed to save reminder",
			"error", err,
			"reminder_id", reminder.ID().String(),
			"user_id", input.UserID,
		)

		return ReminderOutput{}, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	slog.Info("reminder created",
		"reminder_id", reminder.ID().String(),
		"user_id", input.UserID,
		"scheduled_for", reminder.ScheduledFor(),
		"traffic", reminder.Traffic() != nil,
		"weather", reminder.Weather() != nil,
	)

	return FromEntity(reminder), nil
}

// resolveEvent loads the referenced calendar event. An unreachable event
// source only fails the request when the event is needed to derive the time;
// otherwise the reminder keeps the link without event context.
func (uc *reminderUseCaseImpl) resolveEvent(ctx context.Context, userID domain.UserID, input CreateReminderInput) (domain.EventID, *domain.Event, error) {
	if strings.TrimSpace(input.CalendarEventID) == "" {
		return domain.EventID{}, nil, nil
	}

	eventID, err := domain.EventIDFromString(input.CalendarEventID)
	if err != nil {
		return domain.EventID{}, nil, NewValidationError("calendar_event_id", err.Error())
	}

	if uc.events == nil {
		if input.ScheduledFor != nil {
			return eventID, nil, nil
		}

		return domain.EventID{}, nil, fmt.Errorf("%w: event source not configured", ErrUnavailable)
	}

	event, err := uc.events.GetEvent(ctx, eventID)
	switch {
	case errors.Is(err, domain.ErrEventNotFound):
		return domain.EventID{}, nil, NewValidationError("calendar_event_id", err.Error())
	case err != nil:
		slog.Warn("calendar event lookup failed",
			"calendar_event_id", input.CalendarEventID,
			"error", err,
		)

		if input.ScheduledFor != nil {
			return eventID, nil, nil
		}

		return domain.EventID{}, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if !event.UserID.IsZero() && !event.UserID.Equals(userID) {
		return domain.EventID{}, nil, NewValidationError("calendar_event_id", "event belongs to another user")
	}

	return eventID, &event, nil
}

func (uc *reminderUseCaseImpl) profileOf(ctx context.Context, userID domain.UserID) domain.UserProfile {
	if uc.users == nil {
		return domain.UserProfile{UserID: userID}
	}

	profile, err := uc.users.GetProfile(ctx, userID)
	if err != nil {
		slog.Debug("user profile unavailable, scheduling without origin",
			"user_id", userID.String(),
			"error", err,
		)

		return domain.UserProfile{UserID: userID}
	}

	return profile
}

func validationFromDomain(err error) *ValidationError {
	switch {
	case errors.Is(err, domain.ErrEmptyTitle), errors.Is(err, domain.ErrTitleTooLong):
		return NewValidationError("title", err.Error())
	case errors.Is(err, domain.ErrInvalidChannel):
		return NewValidationError("channel", err.Error())
	case errors.Is(err, domain.ErrMissingScheduleTime), errors.Is(err, domain.ErrPastScheduleTime):
		return NewValidationError("scheduled_for", err.Error())
	case errors.Is(err, domain.ErrInvalidRecurrenceRule):
		return NewValidationError("recurrence", err.Error())
	case errors.Is(err, domain.ErrInvalidRecurrenceEnd):
		return NewValidationError("recurrence.ends_at", err.Error())
	default:
		return nil
	}
}

func (uc *reminderUseCaseImpl) GetReminder(ctx context.Context, input GetReminderInput) (ReminderOutput, error) {
	slog.Debug("getting reminder",
		"reminder_id", input.ID,
	)

	reminderID, err := domain.ReminderIDFromString(input.ID)
	if err != nil {
		return ReminderOutput{}, NewValidationError("id", err.Error())
	}

	reminder, err := uc.findReminder(ctx, reminderID)
	if err != nil {
		return ReminderOutput{}, err
	}

	return FromEntity(reminder), nil
}

func (uc *reminderUseCaseImpl) findReminder(ctx context.Context, id domain.ReminderID) (*domain.Reminder, error) {
	reminder, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrReminderNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}

		slog.Error("failed to find reminder",
			"error", err,
			"reminder_id", id.String(),
		)

		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return reminder, nil
}

func (uc *reminderUseCaseImpl) ListReminders(ctx context.Context, input ListRemindersInput) (RemindersOutput, error) {
	slog.Debug("listing reminders",
		"user_id", input.UserID,
		"status", input.Status,
		"calendar_event_id", input.CalendarEventID,
	)

	userID, err := domain.UserIDFromString(input.UserID)
	if err != nil {
		return RemindersOutput{}, NewValidationError("user_id", err.Error())
	}

	var filter domain.ReminderFilter

	if input.Status != "" {
		status, err := domain.NewStatus(strings.ToUpper(input.Status))
		if err != nil {
			return RemindersOutput{}, NewValidationError("status", err.Error())
		}

		filter.Status = status
	}

	if input.CalendarEventID != "" {
		eventID, err := domain.EventIDFromString(input.CalendarEventID)
		if err != nil {
			return RemindersOutput{}, NewValidationError("calendar_event_id", err.Error())
		}

		filter.CalendarEventID = eventID
	}

	reminders, err := uc.repo.FindByUser(ctx, userID, filter)
	if err != nil {
		slog.Error("failed to list reminders",
			"error", err,
			"user_id", input.UserID,
		)

		return RemindersOutput{}, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	slog.Debug("reminders retrieved",
		"user_id", input.UserID,
		"count", len(reminders),
	)

	return FromEntities(reminders), nil
}

func (uc *reminderUseCaseImpl) CancelReminder(ctx context.Context, input CancelReminderInput) (ReminderOutput, error) {
	slog.Debug("cancelling reminder",
		"reminder_id", input.ID,
	)

	reminderID, err := domain.ReminderIDFromString(input.ID)
	if err != nil {
		return ReminderOutput{}, NewValidationError("id", err.Error())
	}

	reminder, err := uc.findReminder(ctx, reminderID)
	if err != nil {
		return ReminderOutput{}, err
	}

	if reminder.Status() == domain.StatusCancelled {
		slog.Info("reminder already cancelled (idempotency)",
			"reminder_id", input.ID,
		)

		return FromEntity(reminder), nil
	}

	now := uc.now()

	if err := reminder.Cancel(now); err != nil {
		return ReminderOutput{}, fmt.Errorf("%w: %v", ErrConflict, err)
	}

	if err := uc.repo.Transition(ctx, reminder, domain.StatusPending); err != nil {
		if errors.Is(err, domain.ErrStaleTransition) {
			slog.Info("reminder left pending before cancellation",
				"reminder_id", input.ID,
			)

			return ReminderOutput{}, fmt.Errorf("%w: %v", ErrConflict, domain.ErrNotCancellable)
		}

		slog.Error("failed to cancel reminder",
			"error", err,
			"reminder_id", input.ID,
		)

		return ReminderOutput{}, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if uc.publisher != nil {
		event := ReminderCancelledEvent{
			ReminderID:   reminder.ID().String(),
			UserID:       reminder.UserID().String(),
			ScheduledFor: reminder.ScheduledFor(),
			CancelledAt:  now,
		}
		if !reminder.CalendarEventID().IsZero() {
			event.CalendarEventID = reminder.CalendarEventID().String()
		}

		if pubErr := uc.publisher.PublishReminderCancelled(ctx, event); pubErr != nil {
			slog.Error("failed to publish reminder cancelled event",
				"reminder_id", input.ID,
				"error", pubErr.Error(),
			)
		}
	}

	slog.Info("reminder cancelled",
		"reminder_id", input.ID,
		"user_id", reminder.UserID().String(),
	)

	return FromEntity(reminder), nil
}

func (uc *reminderUseCaseImpl) ListSuggestions(ctx context.Context, input ListSuggestionsInput) (SuggestionsOutput, error) {
	slog.Debug("listing suggestions",
		"user_id", input.UserID,
		"horizon_days", input.HorizonDays,
	)

	userID, err := domain.UserIDFromString(input.UserID)
	if err != nil {
		return SuggestionsOutput{}, NewValidationError("user_id", err.Error())
	}

	horizon := input.HorizonDays
	if horizon == 0 {
		horizon = DefaultHorizonDays
	}

	if horizon < 1 || horizon > MaxHorizonDays {
		return SuggestionsOutput{}, NewValidationError("horizon_days", fmt.Sprintf("must be between 1 and %d", MaxHorizonDays))
	}

	if uc.events == nil {
		return SuggestionsOutput{}, fmt.Errorf("%w: event source not configured", ErrUnavailable)
	}

	seq, err := uc.suggestions.Suggest(ctx, userID, horizon)
	if err != nil {
		slog.Error("failed to compute suggestions",
			"error", err,
			"user_id", input.UserID,
		)

		return SuggestionsOutput{}, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	out := SuggestionsOutput{Suggestions: []SuggestionOutput{}}
	for s := range seq {
		out.Suggestions = append(out.Suggestions, FromSuggestion(s))
	}

	out.Count = int32(len(out.Suggestions)) //nolint:gosec

	return out, nil
}

func (uc *reminderUseCaseImpl) RunDueReminders(ctx context.Context) (BatchReport, error) {
	if uc.dispatcher == nil {
		return BatchReport{}, fmt.Errorf("%w: dispatcher not configured", ErrInternalError)
	}

	return uc.dispatcher.RunDueReminders(ctx)
}
