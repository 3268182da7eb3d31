package domain

import "errors"

var (
	ErrReminderNotFound = errors.New("reminder not found")
	ErrEventNotFound    = errors.New("calendar event not found")
	ErrProfileNotFound  = errors.New("user profile not found")

	ErrEmptyTitle          = errors.New("title cannot be empty")
	ErrTitleTooLong        = errors.New("title must not exceed 200 characters")
	ErrMissingScheduleTime = errors.New("schedule time is required")
	ErrPastScheduleTime    = errors.New("schedule time cannot be in the past")
	ErrInvalidChannel      = errors.New("invalid channel")
	ErrInvalidStatus       = errors.New("invalid reminder status")

	ErrInvalidRecurrenceRule = errors.New("invalid recurrence rule")
	ErrInvalidRecurrenceEnd  = errors.New("recurrence end must not be before the schedule time")

	ErrInvalidTransition = errors.New("invalid reminder status transition")
	ErrNotCancellable    = errors.New("only pending reminders can be cancelled")
	ErrStaleTransition   = errors.New("reminder status changed concurrently")

	ErrInvalidReminderID = errors.New("invalid reminder ID")
)
