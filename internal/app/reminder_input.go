package app

import "time"

type CreateReminderInput struct {
	UserID          string
	CalendarEventID string
	Title           string
	Message         string
	Channel         string
	// ScheduledFor wins over OffsetMinutes when both are given.
	ScheduledFor   *time.Time
	OffsetMinutes  *int
	IncludeTraffic bool
	IncludeWeather bool
	Recurrence     *RecurrenceInput
}

type RecurrenceInput struct {
	Type     string
	Interval int
	EndsAt   *time.Time
}

type GetReminderInput struct {
	ID string
}

type ListRemindersInput struct {
	UserID          string
	Status          string
	CalendarEventID string
}

type CancelReminderInput struct {
	ID string
}

type ListSuggestionsInput struct {
	UserID      string
	HorizonDays int
}
