package app

//go:generate mockgen -source=reminder_usecase.go -destination=reminder_usecase_mock.go -package=app

import (
	"context"
)

type ReminderUseCase interface {
	CreateReminder(ctx context.Context, input CreateReminderInput) (ReminderOutput, error)
	GetReminder(ctx context.Context, input GetReminderInput) (ReminderOutput, error)
	ListReminders(ctx context.Context, input ListRemindersInput) (RemindersOutput, error)
	CancelReminder(ctx context.Context, input CancelReminderInput) (ReminderOutput, error)
	ListSuggestions(ctx context.Context, input ListSuggestionsInput) (SuggestionsOutput, error)
	RunDueReminders(ctx context.Context) (BatchReport, error)
}
