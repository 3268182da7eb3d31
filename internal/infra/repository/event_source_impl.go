package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/domain"
)

type EventSource struct {
	db *gorm.DB
}

func NewEventSource(db *gorm.DB) *EventSource {
	return &EventSource{db: db}
}

func (s *EventSource) GetEvent(ctx context.Context, id domain.EventID) (domain.Event, error) {
	var m CalendarEventModel

	result := s.db.WithContext(ctx).Where("id = ?", id.String()).First(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return domain.Event{}, domain.ErrEventNotFound
		}

		slog.Error("failed to find calendar event",
			"calendar_event_id", id.String(),
			"error", result.Error,
		)

		return domain.Event{}, result.Error
	}

	return m.ToEntity()
}

func (s *EventSource) ListUpcoming(ctx context.Context, userID domain.UserID, from, to time.Time) ([]domain.Event, error) {
	var models []CalendarEventModel

	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND starts_at >= ? AND starts_at < ?", userID.String(), from.UTC(), to.UTC()).
		Order("starts_at ASC").
		Find(&models).Error; err != nil {
		slog.Error("failed to list upcoming calendar events",
			"user_id", userID.String(),
			"error", err,
		)

		return nil, err
	}

	events := make([]domain.Event, 0, len(models))
	for _, m := range models {
		ev, err := m.ToEntity()
		if err != nil {
			slog.Warn("skipping malformed calendar event",
				"calendar_event_id", m.ID,
				"error", err,
			)

			continue
		}

		events = append(events, ev)
	}

	return events, nil
}

// Upsert writes an event snapshot as delivered by calendar sync.
func (s *EventSource) Upsert(ctx context.Context, event domain.Event) error {
	return s.db.WithContext(ctx).Save(FromEvent(event)).Error
}
