package handler

import (
	"time"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/app"
)

type ReminderResponse struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user_id"`
	CalendarEventID  string           `json:"calendar_event_id,omitempty"`
	Title            string           `json:"title"`
	Message          string           `json:"message,omitempty"`
	Channel          string           `json:"channel"`
	ScheduledFor     time.Time        `json:"scheduled_for"`
	Status           string           `json:"status"`
	IncludeTraffic   bool             `json:"include_traffic"`
	IncludeWeather   bool             `json:"include_weather"`
	Traffic          *TrafficResponse `json:"traffic,omitempty"`
	Weather          *WeatherResponse `json:"weather,omitempty"`
	IsRecurring      bool             `json:"is_recurring"`
	RecurrenceRule   string           `json:"recurrence_rule,omitempty"`
	RecurrenceEnd    *time.Time       `json:"recurrence_end,omitempty"`
	ParentReminderID string           `json:"parent_reminder_id,omitempty"`
	SentAt           *time.Time       `json:"sent_at,omitempty"`
	LastError        string           `json:"last_error,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

type TrafficResponse struct {
	DurationMinutes int       `json:"duration_minutes"`
	DistanceKm      float64   `json:"distance_km"`
	Congestion      string    `json:"congestion"`
	CapturedAt      time.Time `json:"captured_at"`
}

type WeatherResponse struct {
	TemperatureC float64   `json:"temperature_c"`
	Description  string    `json:"description"`
	CapturedAt   time.Time `json:"captured_at"`
}

type RemindersResponse struct {
	Reminders []ReminderResponse `json:"reminders"`
	Count     int32              `json:"count"`
}

type SuggestionResponse struct {
	EventID        string    `json:"event_id"`
	EventTitle     string    `json:"event_title"`
	EventStart     time.Time `json:"event_start"`
	HasLocation    bool      `json:"has_location"`
	OffsetsMinutes []int     `json:"offsets_minutes"`
}

type SuggestionsResponse struct {
	Suggestions []SuggestionResponse `json:"suggestions"`
	Count       int32                `json:"count"`
}

type DeliveryOutcomeResponse struct {
	ReminderID  string `json:"reminder_id"`
	UserID      string `json:"user_id"`
	Channel     string `json:"channel"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	SuccessorID string `json:"successor_id,omitempty"`
	DurationMs  int64  `json:"duration_ms"`
}

type DispatchResponse struct {
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt time.Time                 `json:"finished_at"`
	Attempted  int                       `json:"attempted"`
	Succeeded  int                       `json:"succeeded"`
	Failed     int                       `json:"failed"`
	Details    []DeliveryOutcomeResponse `json:"details"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func FromDTO(output app.ReminderOutput) ReminderResponse {
	resp := ReminderResponse{
		ID:               output.ID,
		UserID:           output.UserID,
		CalendarEventID:  output.CalendarEventID,
		Title:            output.Title,
		Message:          output.Message,
		Channel:          output.Channel,
		ScheduledFor:     output.ScheduledFor,
		Status:           output.Status,
		IncludeTraffic:   output.IncludeTraffic,
		IncludeWeather:   output.IncludeWeather,
		IsRecurring:      output.IsRecurring,
		RecurrenceRule:   output.RecurrenceRule,
		RecurrenceEnd:    output.RecurrenceEnd,
		ParentReminderID: output.ParentReminderID,
		SentAt:           output.SentAt,
		LastError:        output.LastError,
		CreatedAt:        output.CreatedAt,
		UpdatedAt:        output.UpdatedAt,
	}

	if t := output.Traffic; t != nil {
		resp.Traffic = &TrafficResponse{
			DurationMinutes: t.DurationMinutes,
			DistanceKm:      t.DistanceKm,
			Congestion:      t.Congestion,
			CapturedAt:      t.CapturedAt,
		}
	}

	if w := output.Weather; w != nil {
		resp.Weather = &WeatherResponse{
			TemperatureC: w.TemperatureC,
			Description:  w.Description,
			CapturedAt:   w.CapturedAt,
		}
	}

	return resp
}

func FromDTOs(output app.RemindersOutput) RemindersResponse {
	reminders := make([]ReminderResponse, 0, len(output.Reminders))
	for _, r := range output.Reminders {
		reminders = append(reminders, FromDTO(r))
	}

	return RemindersResponse{
		Reminders: reminders,
		Count:     output.Count,
	}
}

func FromSuggestionsDTO(output app.SuggestionsOutput) SuggestionsResponse {
	suggestions := make([]SuggestionResponse, 0, len(output.Suggestions))
	for _, s := range output.Suggestions {
		suggestions = append(suggestions, SuggestionResponse{
			EventID:        s.EventID,
			EventTitle:     s.EventTitle,
			EventStart:     s.EventStart,
			HasLocation:    s.HasLocation,
			OffsetsMinutes: s.OffsetsMinutes,
		})
	}

	return SuggestionsResponse{
		Suggestions: suggestions,
		Count:       output.Count,
	}
}

func FromBatchReport(report app.BatchReport) DispatchResponse {
	details := make([]DeliveryOutcomeResponse, 0, len(report.Details))
	for _, d := range report.Details {
		details = append(details, DeliveryOutcomeResponse{
			ReminderID:  d.ReminderID,
			UserID:      d.UserID,
			Channel:     d.Channel,
			Status:      d.Status,
			Error:       d.Error,
			SuccessorID: d.SuccessorID,
			DurationMs:  d.Duration.Milliseconds(),
		})
	}

	return DispatchResponse{
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Attempted:  report.Attempted,
		Succeeded:  report.Succeeded,
		Failed:     report.Failed,
		Details:    details,
	}
}
