package repository_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/domain"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/infra/repository"
)

func TestFromEntityToEntityRoundTripSuccess(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	scheduled := time.Date(2025, 3, 10, 9, 0, 0, 0, tokyo)
	end := scheduled.AddDate(0, 1, 0)
	sentAt := scheduled.Add(time.Minute)

	tests := []struct {
		name   string
		params func(userID domain.UserID) domain.ReconstituteParams
	}{
		{
			name: "one-off reminder without snapshots",
			params: func(userID domain.UserID) domain.ReconstituteParams {
				return domain.ReconstituteParams{
					ID:           domain.NewReminderID(),
					UserID:       userID,
					Title:        "Call back",
					Channel:      domain.ChannelSMS,
					ScheduledFor: scheduled,
					Status:       domain.StatusPending,
					CreatedAt:    scheduled.Add(-time.Hour),
					UpdatedAt:    scheduled.Add(-time.Hour),
				}
			},
		},
		{
			name: "sent recurring reminder with snapshots",
			params: func(userID domain.UserID) domain.ReconstituteParams {
				eventID, _ := domain.EventIDFromString("evt-42")

				return domain.ReconstituteParams{
					ID:              domain.NewReminderID(),
					UserID:          userID,
					CalendarEventID: eventID,
					Title:           "Dentist",
					Message:         "Dentist\nLeave by 08:20.",
					Channel:         domain.ChannelEmail,
					ScheduledFor:    scheduled,
					Status:          domain.StatusSent,
					IncludeTraffic:  true,
					IncludeWeather:  true,
					Traffic: &domain.TrafficInfo{
						DurationMinutes: 25,
						DistanceKm:      8.3,
						Congestion:      domain.CongestionModerate,
						CapturedAt:      scheduled.Add(-2 * time.Hour),
					},
					Weather: &domain.WeatherInfo{
						TemperatureC: 4,
						Description:  "light rain",
						CapturedAt:   scheduled.Add(-2 * time.Hour),
					},
					IsRecurring:    true,
					RecurrenceRule: "FREQ=MONTHLY;INTERVAL=1",
					RecurrenceEnd:  &end,
					ParentID:       domain.NewReminderID(),
					SentAt:         &sentAt,
					ClaimToken:     "claim-1",
					CreatedAt:      scheduled.Add(-time.Hour),
					UpdatedAt:      sentAt,
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := domain.Reconstitute(tt.params(createValidUserID(t)))

			m := repository.FromEntity(original)
			assert.Equal(t, time.UTC, m.ScheduledFor.Location())

			restored, err := m.ToEntity()
			require.NoError(t, err)

			assert.Equal(t, original.ID(), restored.ID())
			assert.Equal(t, original.UserID(), restored.UserID())
			assert.Equal(t, original.CalendarEventID(), restored.CalendarEventID())
			assert.Equal(t, original.Title(), restored.Title())
			assert.Equal(t, original.Message(), restored.Message())
			assert.Equal(t, original.Channel(), restored.Channel())
			assert.True(t, original.ScheduledFor().Equal(restored.ScheduledFor()))
			assert.Equal(t, original.Status(), restored.Status())
			assert.Equal(t, original.IsRecurring(), restored.IsRecurring())
			assert.Equal(t, original.RecurrenceRule(), restored.RecurrenceRule())
			assert.Equal(t, original.ParentID(), restored.ParentID())
			assert.Equal(t, original.ClaimToken(), restored.ClaimToken())

			if original.Traffic() == nil {
				assert.Nil(t, restored.Traffic())
			} else {
				require.NotNil(t, restored.Traffic())
				assert.Equal(t, original.Traffic().DurationMinutes, restored.Traffic().DurationMinutes)
				assert.Equal(t, original.Traffic().Congestion, restored.Traffic().Congestion)
			}

			if original.Weather() == nil {
				assert.Nil(t, restored.Weather())
			} else {
				require.NotNil(t, restored.Weather())
				assert.Equal(t, original.Weather().Description, restored.Weather().Description)
			}
		})
	}
}

func TestToEntityError(t *testing.T) {
	valid := repository.FromEntity(createReminder(t, createValidUserID(t), baseTime()))

	tests := []struct {
		name   string
		mutate func(m *repository.ReminderModel)
	}{
		{
			name:   "invalid reminder id",
			mutate: func(m *repository.ReminderModel) { m.ID = "not-a-uuid" },
		},
		{
			name:   "invalid user id",
			mutate: func(m *repository.ReminderModel) { m.UserID = "not-a-uuid" },
		},
		{
			name:   "unknown channel",
			mutate: func(m *repository.ReminderModel) { m.Channel = "PIGEON" },
		},
		{
			name:   "unknown status",
			mutate: func(m *repository.ReminderModel) { m.Status = "LOST" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := *valid
			tt.mutate(&m)

			_, err := m.ToEntity()

			assert.Error(t, err)
		})
	}
}

func TestJSONColumnScan(t *testing.T) {
	tests := []struct {
		name      string
		value     interface{}
		wantNil   bool
		wantMins  int
		expectErr bool
	}{
		{name: "null", value: nil, wantNil: true},
		{name: "json null literal", value: []byte("null"), wantNil: true},
		{name: "bytes", value: []byte(`{"duration_minutes":20}`), wantMins: 20},
		{name: "string", value: `{"duration_minutes":35}`, wantMins: 35},
		{name: "unsupported type", value: 42, expectErr: true},
		{name: "malformed json", value: "{", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var col repository.JSONColumn[repository.TrafficJSON]

			err := col.Scan(tt.value)

			if tt.expectErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)

			if tt.wantNil {
				assert.Nil(t, col.V)

				return
			}

			require.NotNil(t, col.V)
			assert.Equal(t, tt.wantMins, col.V.DurationMinutes)
		})
	}
}

func TestJSONColumnValue(t *testing.T) {
	var empty repository.JSONColumn[repository.WeatherJSON]

	v, err := empty.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	filled := repository.JSONColumn[repository.WeatherJSON]{
		V: &repository.WeatherJSON{TemperatureC: 12, Description: "cloudy"},
	}

	v, err = filled.Value()
	require.NoError(t, err)
	assert.Contains(t, v, `"description":"cloudy"`)
}
