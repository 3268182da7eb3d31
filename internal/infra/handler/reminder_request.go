package handler

import "time"

type CreateReminderRequest struct {
	UserID          string             `json:"user_id" binding:"required,uuid"`
	CalendarEventID string             `json:"calendar_event_id"`
	Title           string             `json:"title" binding:"required"`
	Message         string             `json:"message"`
	Channel         string             `json:"channel"`
	ScheduledFor    *time.Time         `json:"scheduled_for"`
	OffsetMinutes   *int               `json:"offset_minutes"`
	IncludeTraffic  bool               `json:"include_traffic"`
	IncludeWeather  bool               `json:"include_weather"`
	Recurrence      *RecurrenceRequest `json:"recurrence"`
}

type RecurrenceRequest struct {
	Type string `json:"type" binding:"required"`
	// Interval defaults to 1 when omitted.
	Interval int        `json:"interval" binding:"omitempty,min=1"`
	EndsAt   *time.Time `json:"ends_at"`
}

type ListRemindersRequest struct {
	UserID  string `form:"user_id" binding:"required,uuid"`
	Status  string `form:"status"`
	EventID string `form:"event_id"`
}

type ListSuggestionsRequest struct {
	UserID      string `form:"user_id" binding:"required,uuid"`
	HorizonDays int    `form:"horizon_days" binding:"omitempty,min=1"`
}
