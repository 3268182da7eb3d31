package domain

import (
	"context"
	"time"
)

// ReminderFilter narrows a per-user listing. Zero fields match everything.
type ReminderFilter struct {
	Status          Status
	CalendarEventID EventID
}

type ReminderRepository interface {
	Save(ctx context.Context, reminder *Reminder) error
	// SaveSuccessor stores a recurrence successor. It reports false when the
	// chain already holds an occurrence at the same time.
	SaveSuccessor(ctx context.Context, reminder *Reminder) (bool, error)
	FindByID(ctx context.Context, id ReminderID) (*Reminder, error)
	FindByUser(ctx context.Context, userID UserID, filter ReminderFilter) ([]*Reminder, error)
	// ClaimDue atomically moves up to limit due PENDING reminders to PROCESSING
	// under the given claim token and returns them.
	ClaimDue(ctx context.Context, now time.Time, limit int, claimToken string) ([]*Reminder, error)
	// Transition persists the reminder's current state only if the stored status
	// still equals from (and, for PROCESSING, the claim token still matches).
	Transition(ctx context.Context, reminder *Reminder, from Status) error
	ReleaseStaleClaims(ctx context.Context, claimedBefore time.Time) (int64, error)
	WithTx(ctx context.Context, fn func(repo ReminderRepository) error) error
}
