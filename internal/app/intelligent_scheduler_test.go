package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/app"
	"github.com/KasumiMercury/primind-reminder-delivery/internal/domain"
)

var meetingStart = time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)

func meetingEvent(t *testing.T, location string) domain.Event {
	t.Helper()

	id, err := domain.EventIDFromString("evt-client-meeting")
	require.NoError(t, err)

	return domain.Event{
		ID:       id,
		Title:    "Client meeting",
		Location: location,
		Start:    meetingStart,
		End:      meetingStart.Add(time.Hour),
	}
}

func TestComputeScheduleTraffic(t *testing.T) {
	origin := &domain.GeoPoint{Lat: 35.68, Lng: 139.76}

	tests := []struct {
		name        string
		location    string
		origin      *domain.GeoPoint
		setupMock   func(m *app.MockTravelTimeService)
		wantSend    time.Time
		wantTraffic bool
	}{
		{
			name:     "travel estimate replaces the base offset",
			location: "Shibuya Station",
			origin:   origin,
			setupMock: func(m *app.MockTravelTimeService) {
				m.EXPECT().
					EstimateTravel(gomock.Any(), *origin, "Shibuya Station").
					Return(domain.TrafficInfo{DurationMinutes: 20, DistanceKm: 8.3, Congestion: domain.CongestionModerate}, nil)
			},
			wantSend:    meetingStart.Add(-30 * time.Minute),
			wantTraffic: true,
		},
		{
			name:     "travel failure keeps the baseline",
			location: "Shibuya Station",
			origin:   origin,
			setupMock: func(m *app.MockTravelTimeService) {
				m.EXPECT().
					EstimateTravel(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(domain.TrafficInfo{}, errors.New("upstream unavailable"))
			},
			wantSend: meetingStart.Add(-15 * time.Minute),
		},
		{
			name:     "travel timeout keeps the baseline",
			location: "Shibuya Station",
			origin:   origin,
			setupMock: func(m *app.MockTravelTimeService) {
				m.EXPECT().
					EstimateTravel(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, _ domain.GeoPoint, _ string) (domain.TrafficInfo, error) {
						<-ctx.Done()

						return domain.TrafficInfo{}, ctx.Err()
					})
			},
			wantSend: meetingStart.Add(-15 * time.Minute),
		},
		{
			name:     "negative travel duration is ignored",
			location: "Shibuya Station",
			origin:   origin,
			setupMock: func(m *app.MockTravelTimeService) {
				m.EXPECT().
					EstimateTravel(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(domain.TrafficInfo{DurationMinutes: -5}, nil)
			},
			wantSend: meetingStart.Add(-15 * time.Minute),
		},
		{
			name:      "no origin skips the lookup",
			location:  "Shibuya Station",
			origin:    nil,
			setupMock: func(m *app.MockTravelTimeService) {},
			wantSend:  meetingStart.Add(-15 * time.Minute),
		},
		{
			name:      "no location skips the lookup",
			location:  "",
			origin:    origin,
			setupMock: func(m *app.MockTravelTimeService) {},
			wantSend:  meetingStart.Add(-15 * time.Minute),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			travel := app.NewMockTravelTimeService(ctrl)
			tt.setupMock(travel)

			scheduler := app.NewIntelligentScheduler(travel, nil, 50*time.Millisecond)

			result := scheduler.ComputeSchedule(context.Background(), app.ScheduleRequest{
				Event:       meetingEvent(t, tt.location),
				BaseOffset:  15 * time.Minute,
				WantTraffic: true,
				Origin:      tt.origin,
			})

			assert.True(t, tt.wantSend.Equal(result.RecommendedSendTime),
				"want %s, got %s", tt.wantSend, result.RecommendedSendTime)

			if tt.wantTraffic {
				require.NotNil(t, result.Traffic)
				assert.Equal(t, 20, result.Traffic.DurationMinutes)
				assert.Contains(t, result.ComposedMessage, "Leave by 13:40. Travel time about 20 min (8.3 km), moderate traffic.")
			} else {
				assert.Nil(t, result.Traffic)
				assert.NotContains(t, result.ComposedMessage, "Travel time")
			}
		})
	}
}

func TestComputeScheduleWeather(t *testing.T) {
	origin := &domain.GeoPoint{Lat: 35.68, Lng: 139.76}

	tests := []struct {
		name          string
		origin        *domain.GeoPoint
		setupMock     func(m *app.MockWeatherService)
		wantWeather   bool
		wantFragments []string
	}{
		{
			name:   "rainy and cold",
			origin: origin,
			setupMock: func(m *app.MockWeatherService) {
				m.EXPECT().
					CurrentWeather(gomock.Any(), *origin).
					Return(domain.WeatherInfo{TemperatureC: 6, Description: "light rain"}, nil)
			},
			wantWeather: true,
			wantFragments: []string{
				"Weather: 6°C, light rain.",
				"It is cold, wear a warm jacket.",
				"Take an umbrella.",
			},
		},
		{
			name:   "weather failure is omitted",
			origin: origin,
			setupMock: func(m *app.MockWeatherService) {
				m.EXPECT().
					CurrentWeather(gomock.Any(), gomock.Any()).
					Return(domain.WeatherInfo{}, errors.New("quota exceeded"))
			},
		},
		{
			name:      "no origin skips the lookup",
			origin:    nil,
			setupMock: func(m *app.MockWeatherService) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			weather := app.NewMockWeatherService(ctrl)
			tt.setupMock(weather)

			scheduler := app.NewIntelligentScheduler(nil, weather, time.Second)

			result := scheduler.ComputeSchedule(context.Background(), app.ScheduleRequest{
				Event:       meetingEvent(t, "Shibuya Station"),
				BaseOffset:  time.Hour,
				WantWeather: true,
				WantTraffic: true,
				Origin:      tt.origin,
			})

			assert.True(t, meetingStart.Add(-time.Hour).Equal(result.RecommendedSendTime))
			assert.Nil(t, result.Traffic)

			if !tt.wantWeather {
				assert.Nil(t, result.Weather)
				assert.NotContains(t, result.ComposedMessage, "Weather:")

				return
			}

			require.NotNil(t, result.Weather)

			for _, fragment := range tt.wantFragments {
				assert.Contains(t, result.ComposedMessage, fragment)
			}
		})
	}
}

func TestComputeScheduleMessageHeadline(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		location  string
		wantLines []string
	}{
		{
			name:     "reminder title with event location",
			title:    "Leave for the client",
			location: "Shibuya Station",
			wantLines: []string{
				"Leave for the client",
				"Client meeting starts Mon Jun 2 14:00 at Shibuya Station.",
			},
		},
		{
			name:     "event title when no reminder title",
			title:    "",
			location: "",
			wantLines: []string{
				"Client meeting",
				"Client meeting starts Mon Jun 2 14:00.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scheduler := app.NewIntelligentScheduler(nil, nil, time.Second)

			result := scheduler.ComputeSchedule(context.Background(), app.ScheduleRequest{
				Title:      tt.title,
				Event:      meetingEvent(t, tt.location),
				BaseOffset: 10 * time.Minute,
			})

			assert.Equal(t, tt.wantLines, strings.Split(result.ComposedMessage, "\n"))
		})
	}
}
