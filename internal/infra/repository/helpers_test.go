package repository_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/domain"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/testutil"
)

func forEachBackend(t *testing.T, fn func(t *testing.T, tdb *testutil.TestDB)) {
	t.Helper()

	t.Run("sqlite", func(t *testing.T) {
		fn(t, testutil.SetupSQLiteDB(t))
	})

	t.Run("postgres", func(t *testing.T) {
		if testing.Short() {
			t.Skip("skipping integration test in short mode")
		}

		tdb := testutil.SetupTestDB(t)
		defer tdb.TeardownTestDB(t)

		fn(t, tdb)
	})
}

func createValidUserID(t *testing.T) domain.UserID {
	t.Helper()

	id, err := domain.UserIDFromUUID(uuid.Must(uuid.NewV7()))
	require.NoError(t, err)

	return id
}

func baseTime() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

type reminderOpt func(p *domain.ReconstituteParams)

func withStatus(s domain.Status) reminderOpt {
	return func(p *domain.ReconstituteParams) { p.Status = s }
}

func withEvent(id string) reminderOpt {
	return func(p *domain.ReconstituteParams) {
		eventID, err := domain.EventIDFromString(id)
		if err != nil {
			panic(err)
		}

		p.CalendarEventID = eventID
	}
}

func withParent(id domain.ReminderID) reminderOpt {
	return func(p *domain.ReconstituteParams) { p.ParentID = id }
}

func createReminder(t *testing.T, userID domain.UserID, scheduledFor time.Time, opts ...reminderOpt) *domain.Reminder {
	t.Helper()

	now := baseTime()
	p := domain.ReconstituteParams{
		ID:           domain.NewReminderID(),
		UserID:       userID,
		Title:        "Stand-up",
		Channel:      domain.ChannelPush,
		ScheduledFor: scheduledFor,
		Status:       domain.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for _, opt := range opts {
		opt(&p)
	}

	return domain.Reconstitute(p)
}
