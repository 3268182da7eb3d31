package pubsub

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/app"
)

type ReminderCancelledPayload struct {
	ReminderID      string    `json:"reminder_id"`
	UserID          string    `json:"user_id"`
	CalendarEventID string    `json:"calendar_event_id,omitempty"`
	ScheduledFor    time.Time `json:"scheduled_for"`
	CancelledAt     time.Time `json:"cancelled_at"`
}

type ReminderSentPayload struct {
	ReminderID  string    `json:"reminder_id"`
	UserID      string    `json:"user_id"`
	Channel     string    `json:"channel"`
	SentAt      time.Time `json:"sent_at"`
	SuccessorID string    `json:"successor_id,omitempty"`
}

// EventPublisher announces reminder lifecycle changes to downstream services.
type EventPublisher struct {
	publisher message.Publisher
}

var _ app.LifecyclePublisher = (*EventPublisher)(nil)

func NewEventPublisher(publisher message.Publisher) *EventPublisher {
	return &EventPublisher{publisher: publisher}
}

func (p *EventPublisher) PublishReminderCancelled(ctx context.Context, ev app.ReminderCancelledEvent) error {
	return publishJSON(ctx, p.publisher, TopicReminderCancelled, watermill.NewUUID(), ReminderCancelledPayload{
		ReminderID:      ev.ReminderID,
		UserID:          ev.UserID,
		CalendarEventID: ev.CalendarEventID,
		ScheduledFor:    ev.ScheduledFor.UTC(),
		CancelledAt:     ev.CancelledAt.UTC(),
	}, map[string]string{
		"event_type":  "reminder.cancelled",
		"reminder_id": ev.ReminderID,
		"user_id":     ev.UserID,
	})
}

func (p *EventPublisher) PublishReminderSent(ctx context.Context, ev app.ReminderSentEvent) error {
	return publishJSON(ctx, p.publisher, TopicReminderSent, watermill.NewUUID(), ReminderSentPayload{
		ReminderID:  ev.ReminderID,
		UserID:      ev.UserID,
		Channel:     ev.Channel,
		SentAt:      ev.SentAt.UTC(),
		SuccessorID: ev.SuccessorID,
	}, map[string]string{
		"event_type":  "reminder.sent",
		"reminder_id": ev.ReminderID,
		"user_id":     ev.UserID,
	})
}
