package app

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/domain"
)

const (
	DefaultHorizonDays = 7
	MaxHorizonDays     = 90
)

type SuggestionEngine struct {
	repo   domain.ReminderRepository
	events EventSource
	users  UserDirectory
	now    func() time.Time
}

func NewSuggestionEngine(repo domain.ReminderRepository, events EventSource, users UserDirectory, now func() time.Time) *SuggestionEngine {
	if now == nil {
		now = time.Now
	}

	return &SuggestionEngine{
		repo:   repo,
		events: events,
		users:  users,
		now:    now,
	}
}

// Suggest loads the user's upcoming events and returns a sequence of offset
// proposals for those without a pending reminder. The sequence is computed
// lazily and can be ranged over once; call Suggest again for fresh results.
func (e *SuggestionEngine) Suggest(ctx context.Context, userID domain.UserID, horizonDays int) (iter.Seq[domain.Suggestion], error) {
	if horizonDays < 1 || horizonDays > MaxHorizonDays {
		return nil, fmt.Errorf("%w: horizon_days must be between 1 and %d", ErrValidation, MaxHorizonDays)
	}

	now := e.now()

	events, err := e.events.ListUpcoming(ctx, userID, now, now.AddDate(0, 0, horizonDays))
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}

	pending, err := e.repo.FindByUser(ctx, userID, domain.ReminderFilter{Status: domain.StatusPending})
	if err != nil {
		return nil, fmt.Errorf("list pending reminders: %w", err)
	}

	covered := make(map[string]struct{}, len(pending))
	for _, r := range pending {
		if !r.CalendarEventID().IsZero() {
			covered[r.CalendarEventID().String()] = struct{}{}
		}
	}

	loc := time.UTC
	if e.users != nil {
		profile, err := e.users.GetProfile(ctx, userID)
		if err != nil {
			slog.Debug("profile unavailable, using UTC for suggestions",
				"user_id", userID.String(),
				"error", err,
			)
		} else {
			loc = profile.TimeLocation()
		}
	}

	slices.SortStableFunc(events, func(a, b domain.Event) int {
		return a.Start.Compare(b.Start)
	})

	var consumed atomic.Bool

	return func(yield func(domain.Suggestion) bool) {
		if consumed.Swap(true) {
			return
		}

		for _, ev := range events {
			if _, ok := covered[ev.ID.String()]; ok {
				continue
			}

			offsets := domain.SuggestOffsets(ev, now, loc)
			if len(offsets) == 0 {
				continue
			}

			s := domain.Suggestion{
				EventID:        ev.ID,
				EventTitle:     ev.Title,
				EventStart:     ev.Start,
				HasLocation:    ev.HasLocation(),
				OffsetsMinutes: offsets,
			}

			if !yield(s) {
				return
			}
		}
	}, nil
}
