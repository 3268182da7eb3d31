package app

//go:generate mockgen -source=ports.go -destination=ports_mock.go -package=app

import (
	"context"
	"time"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/domain"
)

// EventSource resolves calendar events owned by another service.
type EventSource interface {
	GetEvent(ctx context.Context, id domain.EventID) (domain.Event, error)
	// ListUpcoming returns the user's events starting in [from, to), ordered by start.
	ListUpcoming(ctx context.Context, userID domain.UserID, from, to time.Time) ([]domain.Event, error)
}

type UserDirectory interface {
	GetProfile(ctx context.Context, userID domain.UserID) (domain.UserProfile, error)
}

type TravelTimeService interface {
	EstimateTravel(ctx context.Context, origin domain.GeoPoint, destination string) (domain.TrafficInfo, error)
}

type WeatherService interface {
	CurrentWeather(ctx context.Context, at domain.GeoPoint) (domain.WeatherInfo, error)
}

type PushMessage struct {
	UserID   string
	Title    string
	Body     string
	LinkURL  string
	DedupKey string
}

type EmailMessage struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	DedupKey string
}

type SMSMessage struct {
	To       string
	Text     string
	DedupKey string
}

type PushSender interface {
	SendPush(ctx context.Context, msg PushMessage) error
}

type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, msg SMSMessage) error
}

type ReminderCancelledEvent struct {
	ReminderID      string
	UserID          string
	CalendarEventID string
	ScheduledFor    time.Time
	CancelledAt     time.Time
}

type ReminderSentEvent struct {
	ReminderID  string
	UserID      string
	Channel     string
	SentAt      time.Time
	SuccessorID string
}

// LifecyclePublisher announces reminder state changes to other services.
type LifecyclePublisher interface {
	PublishReminderCancelled(ctx context.Context, event ReminderCancelledEvent) error
	PublishReminderSent(ctx context.Context, event ReminderSentEvent) error
}
