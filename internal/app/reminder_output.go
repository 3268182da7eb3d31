package app

import (
	"time"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/domain"
)

type ReminderOutput struct {
	ID               string
	UserID           string
	CalendarEventID  string
	Title            string
	Message          string
	Channel          string
	ScheduledFor     time.Time
	Status           string
	IncludeTraffic   bool
	IncludeWeather   bool
	Traffic          *TrafficOutput
	Weather          *WeatherOutput
	IsRecurring      bool
	RecurrenceRule   string
	RecurrenceEnd    *time.Time
	ParentReminderID string
	SentAt           *time.Time
	LastError        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type TrafficOutput struct {
	DurationMinutes int
	DistanceKm      float64
	Congestion      string
	CapturedAt      time.Time
}

type WeatherOutput struct {
	TemperatureC float64
	Description  string
	CapturedAt   time.Time
}

type RemindersOutput struct {
	Reminders []ReminderOutput
	Count     int32
}

type SuggestionOutput struct {
	EventID        string
	EventTitle     string
	EventStart     time.Time
	HasLocation    bool
	OffsetsMinutes []int
}

type SuggestionsOutput struct {
	Suggestions []SuggestionOutput
	Count       int32
}

func FromEntity(r *domain.Reminder) ReminderOutput {
	out := ReminderOutput{
		ID:             r.ID().String(),
		UserID:         r.UserID().String(),
		Title:          r.Title(),
		Message:        r.Message(),
		Channel:        string(r.Channel()),
		ScheduledFor:   r.ScheduledFor(),
		Status:         string(r.Status()),
		IncludeTraffic: r.IncludeTraffic(),
		IncludeWeather: r.IncludeWeather(),
		IsRecurring:    r.IsRecurring(),
		RecurrenceRule: r.RecurrenceRule(),
		RecurrenceEnd:  r.RecurrenceEnd(),
		SentAt:         r.SentAt(),
		LastError:      r.LastError(),
		CreatedAt:      r.CreatedAt(),
		UpdatedAt:      r.UpdatedAt(),
	}

	if !r.CalendarEventID().IsZero() {
		out.CalendarEventID = r.CalendarEventID().String()
	}

	if !r.ParentID().IsZero() {
		out.ParentReminderID = r.ParentID().String()
	}

	if t := r.Traffic(); t != nil {
		out.Traffic = &TrafficOutput{
			DurationMinutes: t.DurationMinutes,
			DistanceKm:      t.DistanceKm,
			Congestion:      string(t.Congestion),
			CapturedAt:      t.CapturedAt,
		}
	}

	if w := r.Weather(); w != nil {
		out.Weather = &WeatherOutput{
			TemperatureC: w.TemperatureC,
			Description:  w.Description,
			CapturedAt:   w.CapturedAt,
		}
	}

	return out
}

func FromEntities(reminders []*domain.Reminder) RemindersOutput {
	outputs := make([]ReminderOutput, 0, len(reminders))
	for _, r := range reminders {
		outputs = append(outputs, FromEntity(r))
	}

	return RemindersOutput{
		Reminders: outputs,
		Count:     int32(len(outputs)), //nolint:gosec
	}
}

func FromSuggestion(s domain.Suggestion) SuggestionOutput {
	return SuggestionOutput{
		EventID:        s.EventID.String(),
		EventTitle:     s.EventTitle,
		EventStart:     s.EventStart,
		HasLocation:    s.HasLocation,
		OffsetsMinutes: s.OffsetsMinutes,
	}
}
