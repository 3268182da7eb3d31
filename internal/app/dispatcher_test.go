package app_test

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/app"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/domain"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/infra/repository"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/testutil"
)

type dispatchFixture struct {
	now        time.Time
	userID     domain.UserID
	repo       domain.ReminderRepository
	events     *repository.EventSource
	users      *repository.UserDirectory
	push       *app.MockPushSender
	email      *app.MockEmailSender
	sms        *app.MockSMSSender
	publisher  *app.MockLifecyclePublisher
	dispatcher *app.Dispatcher
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()

	tdb := testutil.SetupSQLiteDB(t)
	ctrl := gomock.NewController(t)

	f := &dispatchFixture{
		now:       time.Now().UTC().Truncate(time.Second),
		userID:    createValidUserID(t),
		repo:      repository.NewReminderRepository(tdb.DB),
		events:    repository.NewEventSource(tdb.DB),
		users:     repository.NewUserDirectory(tdb.DB),
		push:      app.NewMockPushSender(ctrl),
		email:     app.NewMockEmailSender(ctrl),
		sms:       app.NewMockSMSSender(ctrl),
		publisher: app.NewMockLifecyclePublisher(ctrl),
	}

	f.publisher.EXPECT().PublishReminderSent(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	require.NoError(t, f.users.Upsert(context.Background(), domain.UserProfile{
		UserID: f.userID,
		Email:  "owner@example.com",
		Phone:  "+15550100",
	}))

	f.dispatcher = app.NewDispatcher(
		f.repo,
		f.events,
		f.users,
		app.Channels{Push: f.push, Email: f.email, SMS: f.sms},
		f.publisher,
		app.DispatcherConfig{
			BatchSize:     50,
			Workers:       4,
			SendTimeout:   200 * time.Millisecond,
			LookupTimeout: time.Second,
			PublicBaseURL: "https://app.example.com/",
			Now:           func() time.Time { return f.now },
		},
	)

	return f
}

type seedParams struct {
	channel        domain.Channel
	title          string
	message        string
	eventID        string
	traffic        *domain.TrafficInfo
	recurrenceRule string
	recurrenceEnd  *time.Time
	parentID       domain.ReminderID
	userID         domain.UserID
	scheduledFor   time.Time
}

func (f *dispatchFixture) seed(t *testing.T, p seedParams) *domain.Reminder {
	t.Helper()

	if p.channel == "" {
		p.channel = domain.ChannelPush
	}

	if p.title == "" {
		p.title = "Reminder " + uuid.NewString()[:8]
	}

	if p.userID.IsZero() {
		p.userID = f.userID
	}

	if p.scheduledFor.IsZero() {
		p.scheduledFor = f.now.Add(-time.Minute)
	}

	params := domain.ReconstituteParams{
		ID:             domain.NewReminderID(),
		UserID:         p.userID,
		Title:          p.title,
		Message:        p.message,
		Channel:        p.channel,
		ScheduledFor:   p.scheduledFor.UTC(),
		Status:         domain.StatusPending,
		Traffic:        p.traffic,
		IsRecurring:    p.recurrenceRule != "",
		RecurrenceRule: p.recurrenceRule,
		RecurrenceEnd:  p.recurrenceEnd,
		ParentID:       p.parentID,
		CreatedAt:      f.now.Add(-time.Hour),
		UpdatedAt:      f.now.Add(-time.Hour),
	}

	if p.eventID != "" {
		eventID, err := domain.EventIDFromString(p.eventID)
		require.NoError(t, err)

		params.CalendarEventID = eventID
	}

	r := domain.Reconstitute(params)
	require.NoError(t, f.repo.Save(context.Background(), r))

	return r
}

func (f *dispatchFixture) status(t *testing.T, id domain.ReminderID) *domain.Reminder {
	t.Helper()

	r, err := f.repo.FindByID(context.Background(), id)
	require.NoError(t, err)

	return r
}

func outcomeFor(t *testing.T, report app.BatchReport, id domain.ReminderID) app.DeliveryOutcome {
	t.Helper()

	for _, d := range report.Details {
		if d.ReminderID == id.String() {
			return d
		}
	}

	t.Fatalf("no outcome for reminder %s", id.String())

	return app.DeliveryOutcome{}
}

func TestRunDueRemindersDeliversEveryChannel(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()

	push := f.seed(t, seedParams{channel: domain.ChannelPush, title: "Stretch", message: "Time to stretch"})
	email := f.seed(t, seedParams{channel: domain.ChannelEmail, title: "Invoice", message: "Send <invoice> & receipt"})
	sms := f.seed(t, seedParams{channel: domain.ChannelSMS, title: "Pick up", message: "Pick up the kids"})

	f.push.EXPECT().SendPush(gomock.Any(), app.PushMessage{
		UserID:   f.userID.String(),
		Title:    "Stretch",
		Body:     "Time to stretch",
		LinkURL:  "https://app.example.com/reminders/" + push.ID().String(),
		DedupKey: push.DedupKey(),
	}).Return(nil)

	f.email.EXPECT().SendEmail(gomock.Any(), app.EmailMessage{
		To:       "owner@example.com",
		Subject:  "Invoice",
		HTMLBody: "<p>Send &lt;invoice&gt; &amp; receipt</p>",
		TextBody: "Send <invoice> & receipt",
		DedupKey: email.DedupKey(),
	}).Return(nil)

	f.sms.EXPECT().SendSMS(gomock.Any(), app.SMSMessage{
		To:       "+15550100",
		Text:     "Pick up the kids",
		DedupKey: sms.DedupKey(),
	}).Return(nil)

	report, err := f.dispatcher.RunDueReminders(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Len(t, report.Details, 3)

	for _, r := range []*domain.Reminder{push, email, sms} {
		stored := f.status(t, r.ID())
		assert.Equal(t, domain.StatusSent, stored.Status())
		require.NotNil(t, stored.SentAt())
		assert.True(t, f.now.Equal(*stored.SentAt()))
	}
}

func TestRunDueRemindersIsolatesFailures(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()

	ok1 := f.seed(t, seedParams{message: "first"})
	failing := f.seed(t, seedParams{message: "second"})
	panicking := f.seed(t, seedParams{message: "third"})
	ok2 := f.seed(t, seedParams{message: "fourth"})

	f.push.EXPECT().
		SendPush(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg app.PushMessage) error {
			switch msg.DedupKey {
			case failing.DedupKey():
				return errors.New("gateway down")
			case panicking.DedupKey():
				panic("sender bug")
			}

			return nil
		}).
		Times(4)

	report, err := f.dispatcher.RunDueReminders(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Attempted)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 2, report.Failed)

	for _, r := range []*domain.Reminder{ok1, ok2} {
		assert.Equal(t, string(domain.StatusSent), outcomeFor(t, report, r.ID()).Status)
		assert.Equal(t, domain.StatusSent, f.status(t, r.ID()).Status())
	}

	failed := outcomeFor(t, report, failing.ID())
	assert.Equal(t, string(domain.StatusFailed), failed.Status)
	assert.Contains(t, failed.Error, "gateway down")

	stored := f.status(t, failing.ID())
	assert.Equal(t, domain.StatusFailed, stored.Status())
	assert.Equal(t, "gateway down", stored.LastError())
	assert.Nil(t, stored.SentAt())

	panicked := outcomeFor(t, report, panicking.ID())
	assert.Equal(t, string(domain.StatusFailed), panicked.Status)
	assert.Contains(t, panicked.Error, "sender bug")
	assert.Equal(t, domain.StatusFailed, f.status(t, panicking.ID()).Status())
}

func TestRunDueRemindersSendTimeout(t *testing.T) {
	f := newDispatchFixture(t)

	slow := f.seed(t, seedParams{message: "slow"})

	f.push.EXPECT().
		SendPush(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ app.PushMessage) error {
			<-ctx.Done()

			return ctx.Err()
		})

	report, err := f.dispatcher.RunDueReminders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)

	stored := f.status(t, slow.ID())
	assert.Equal(t, domain.StatusFailed, stored.Status())
	assert.Contains(t, stored.LastError(), "deadline exceeded")
}

func TestRunDueRemindersRecurrence(t *testing.T) {
	chainRoot := domain.NewReminderID()

	tests := []struct {
		name          string
		rule          string
		endOffset     *time.Duration
		parentID      domain.ReminderID
		wantSuccessor bool
		wantParent    func(sent *domain.Reminder) domain.ReminderID
		wantNext      time.Duration
	}{
		{
			name:          "open ended daily rule spawns one successor",
			rule:          "FREQ=DAILY;INTERVAL=1",
			wantSuccessor: true,
			wantParent:    func(sent *domain.Reminder) domain.ReminderID { return sent.ID() },
			wantNext:      24 * time.Hour,
		},
		{
			name:          "end after next occurrence spawns successor",
			rule:          "FREQ=WEEKLY;INTERVAL=1",
			endOffset:     durationPtr(30 * 24 * time.Hour),
			wantSuccessor: true,
			wantParent:    func(sent *domain.Reminder) domain.ReminderID { return sent.ID() },
			wantNext:      7 * 24 * time.Hour,
		},
		{
			name:          "successor keeps the original chain parent",
			rule:          "FREQ=DAILY;INTERVAL=2",
			parentID:      chainRoot,
			wantSuccessor: true,
			wantParent:    func(*domain.Reminder) domain.ReminderID { return chainRoot },
			wantNext:      48 * time.Hour,
		},
		{
			name:      "end before next occurrence stops the chain",
			rule:      "FREQ=DAILY;INTERVAL=1",
			endOffset: durationPtr(time.Hour),
		},
		{
			name: "malformed rule stops the chain",
			rule: "FREQ=FORTNIGHTLY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDispatchFixture(t)
			ctx := context.Background()

			var end *time.Time
			if tt.endOffset != nil {
				e := f.now.Add(*tt.endOffset)
				end = &e
			}

			sent := f.seed(t, seedParams{
				message:        "recurring",
				recurrenceRule: tt.rule,
				recurrenceEnd:  end,
				parentID:       tt.parentID,
			})

			f.push.EXPECT().SendPush(gomock.Any(), gomock.Any()).Return(nil)

			report, err := f.dispatcher.RunDueReminders(ctx)
			require.NoError(t, err)

			outcome := outcomeFor(t, report, sent.ID())
			assert.Equal(t, string(domain.StatusSent), outcome.Status)
			assert.Equal(t, domain.StatusSent, f.status(t, sent.ID()).Status())

			pending, err := f.repo.FindByUser(ctx, f.userID, domain.ReminderFilter{Status: domain.StatusPending})
			require.NoError(t, err)

			if !tt.wantSuccessor {
				assert.Empty(t, pending)
				assert.Empty(t, outcome.SuccessorID)

				return
			}

			require.Len(t, pending, 1)

			successor := pending[0]
			assert.Equal(t, successor.ID().String(), outcome.SuccessorID)
			assert.Equal(t, tt.wantParent(sent), successor.ParentID())
			assert.True(t, sent.ScheduledFor().Add(tt.wantNext).Equal(successor.ScheduledFor()))
			assert.Equal(t, sent.Title(), successor.Title())
			assert.Equal(t, sent.RecurrenceRule(), successor.RecurrenceRule())
			assert.Nil(t, successor.SentAt())
		})
	}
}

func TestRunDueRemindersRecurrenceUsesUserTimeZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name     string
		loc      *time.Location
		rule     string
		anchor   time.Time
		wantNext time.Time
	}{
		{
			name:     "monthly rule clamps on the user's month end",
			loc:      tokyo,
			rule:     "FREQ=MONTHLY;INTERVAL=1",
			anchor:   time.Date(2024, 3, 31, 8, 0, 0, 0, tokyo),
			wantNext: time.Date(2024, 4, 30, 8, 0, 0, 0, tokyo),
		},
		{
			name:     "daily rule keeps wall clock across DST start",
			loc:      newYork,
			rule:     "FREQ=DAILY;INTERVAL=1",
			anchor:   time.Date(2024, 3, 9, 9, 0, 0, 0, newYork),
			wantNext: time.Date(2024, 3, 10, 9, 0, 0, 0, newYork),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDispatchFixture(t)
			ctx := context.Background()

			require.NoError(t, f.users.Upsert(ctx, domain.UserProfile{
				UserID:   f.userID,
				Email:    "owner@example.com",
				Location: tt.loc,
			}))

			sent := f.seed(t, seedParams{
				message:        "recurring",
				recurrenceRule: tt.rule,
				scheduledFor:   tt.anchor,
			})

			f.push.EXPECT().SendPush(gomock.Any(), gomock.Any()).Return(nil)

			report, err := f.dispatcher.RunDueReminders(ctx)
			require.NoError(t, err)

			outcome := outcomeFor(t, report, sent.ID())
			require.Equal(t, string(domain.StatusSent), outcome.Status)

			pending, err := f.repo.FindByUser(ctx, f.userID, domain.ReminderFilter{Status: domain.StatusPending})
			require.NoError(t, err)
			require.Len(t, pending, 1)

			got := pending[0].ScheduledFor()
			assert.True(t, tt.wantNext.Equal(got), "got %s, want %s", got.In(tt.loc), tt.wantNext)
		})
	}
}

func TestRunDueRemindersFailedRecurringDoesNotSpawn(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()

	r := f.seed(t, seedParams{message: "recurring", recurrenceRule: "FREQ=DAILY;INTERVAL=1"})

	f.push.EXPECT().SendPush(gomock.Any(), gomock.Any()).Return(errors.New("token expired"))

	report, err := f.dispatcher.RunDueReminders(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, domain.StatusFailed, f.status(t, r.ID()).Status())

	pending, err := f.repo.FindByUser(ctx, f.userID, domain.ReminderFilter{Status: domain.StatusPending})
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRunDueRemindersIdempotent(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()

	sent := f.seed(t, seedParams{message: "once"})
	failed := f.seed(t, seedParams{message: "fails once"})

	f.push.EXPECT().
		SendPush(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg app.PushMessage) error {
			if msg.DedupKey == failed.DedupKey() {
				return errors.New("rejected")
			}

			return nil
		}).
		Times(2)

	first, err := f.dispatcher.RunDueReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Attempted)

	second, err := f.dispatcher.RunDueReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Attempted)
	assert.Empty(t, second.Details)

	assert.Equal(t, domain.StatusSent, f.status(t, sent.ID()).Status())
	assert.Equal(t, domain.StatusFailed, f.status(t, failed.ID()).Status())
}

func TestRunDueRemindersMissingRecipient(t *testing.T) {
	f := newDispatchFixture(t)

	stranger := createValidUserID(t)
	r := f.seed(t, seedParams{channel: domain.ChannelEmail, message: "hello", userID: stranger})

	report, err := f.dispatcher.RunDueReminders(context.Background())
	require.NoError(t, err)

	outcome := outcomeFor(t, report, r.ID())
	assert.Equal(t, string(domain.StatusFailed), outcome.Status)
	assert.Contains(t, outcome.Error, app.ErrNoRecipient.Error())
	assert.Equal(t, domain.StatusFailed, f.status(t, r.ID()).Status())
}

func TestRunDueRemindersUnconfiguredChannel(t *testing.T) {
	f := newDispatchFixture(t)

	dispatcher := app.NewDispatcher(f.repo, f.events, f.users,
		app.Channels{Push: f.push},
		nil,
		app.DispatcherConfig{Now: func() time.Time { return f.now }},
	)

	smsReminder := f.seed(t, seedParams{channel: domain.ChannelSMS, message: "text me"})
	pushReminder := f.seed(t, seedParams{channel: domain.ChannelPush, message: "push me"})

	f.push.EXPECT().SendPush(gomock.Any(), gomock.Any()).Return(nil)

	report, err := dispatcher.RunDueReminders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Contains(t, outcomeFor(t, report, smsReminder.ID()).Error, app.ErrChannelUnavailable.Error())
	assert.Equal(t, string(domain.StatusSent), outcomeFor(t, report, pushReminder.ID()).Status)
}

func TestRunDueRemindersFallbackBody(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()

	eventStart := time.Date(2031, 4, 7, 9, 30, 0, 0, time.UTC)
	eventID, err := domain.EventIDFromString("evt-dentist")
	require.NoError(t, err)

	require.NoError(t, f.events.Upsert(ctx, domain.Event{
		ID:       eventID,
		UserID:   f.userID,
		Title:    "Dentist",
		Location: "12 Elm St",
		Start:    eventStart,
		End:      eventStart.Add(time.Hour),
	}))

	withEvent := f.seed(t, seedParams{
		title:   "Dentist appointment",
		eventID: "evt-dentist",
		traffic: &domain.TrafficInfo{DurationMinutes: 25, DistanceKm: 9.5},
	})
	missingEvent := f.seed(t, seedParams{title: "Orphan", eventID: "evt-deleted"})

	bodies := make(chan app.PushMessage, 2)

	f.push.EXPECT().
		SendPush(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg app.PushMessage) error {
			bodies <- msg

			return nil
		}).
		Times(2)

	report, err := f.dispatcher.RunDueReminders(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, report.Succeeded)

	close(bodies)

	got := map[string]string{}
	for msg := range bodies {
		got[msg.DedupKey] = msg.Body
	}

	assert.Equal(t,
		"Dentist appointment\nDentist starts Mon Apr 7 09:30 at 12 Elm St.\nTravel time about 25 min (9.5 km).",
		got[withEvent.DedupKey()],
	)
	assert.Equal(t, "Orphan", got[missingEvent.DedupKey()])
}

func TestRecoverStaleClaims(t *testing.T) {
	f := newDispatchFixture(t)
	ctx := context.Background()

	r := f.seed(t, seedParams{message: "stuck"})

	claimed, err := f.repo.ClaimDue(ctx, f.now.Add(-30*time.Second), 10, "crashed-worker")
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	report, err := f.dispatcher.RunDueReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Attempted)

	f.now = f.now.Add(15 * time.Minute)

	released, err := f.dispatcher.RecoverStaleClaims(ctx, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), released)

	f.push.EXPECT().SendPush(gomock.Any(), gomock.Any()).Return(nil)

	report, err = f.dispatcher.RunDueReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, domain.StatusSent, f.status(t, r.ID()).Status())
}

func durationPtr(d time.Duration) *time.Duration {
	return &d
}
