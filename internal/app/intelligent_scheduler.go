package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/domain"
)

// SafetyBuffer is added on top of the estimated travel time.
const SafetyBuffer = 10 * time.Minute

type ScheduleRequest struct {
	// Title heads the composed message; the event title is used when empty.
	Title       string
	Event       domain.Event
	BaseOffset  time.Duration
	WantTraffic bool
	WantWeather bool
	// Origin is where the user travels from. Without it no enrichment runs.
	Origin   *domain.GeoPoint
	Location *time.Location
}

type ScheduleResult struct {
	RecommendedSendTime time.Time
	Traffic             *domain.TrafficInfo
	Weather             *domain.WeatherInfo
	ComposedMessage     string
}

type IntelligentScheduler struct {
	travel  TravelTimeService
	weather WeatherService
	timeout time.Duration
}

// NewIntelligentScheduler accepts nil services; the matching enrichment is
// then never attempted.
func NewIntelligentScheduler(travel TravelTimeService, weather WeatherService, timeout time.Duration) *IntelligentScheduler {
	return &IntelligentScheduler{
		travel:  travel,
		weather: weather,
		timeout: timeout,
	}
}

// ComputeSchedule never fails. Enrichment that cannot be resolved in time is
// left out and the baseline send time is kept.
func (s *IntelligentScheduler) ComputeSchedule(ctx context.Context, req ScheduleRequest) ScheduleResult {
	result := ScheduleResult{
		RecommendedSendTime: req.Event.Start.Add(-req.BaseOffset),
	}

	if req.WantTraffic {
		if traffic, ok := s.resolveTraffic(ctx, req); ok {
			result.Traffic = &traffic
			travel := time.Duration(traffic.DurationMinutes) * time.Minute
			result.RecommendedSendTime = req.Event.Start.Add(-travel - SafetyBuffer)
		}
	}

	if req.WantWeather {
		if weather, ok := s.resolveWeather(ctx, req); ok {
			result.Weather = &weather
		}
	}

	var leaveBy time.Time
	if result.Traffic != nil {
		leaveBy = req.Event.Start.Add(-time.Duration(result.Traffic.DurationMinutes) * time.Minute)
	}

	title := req.Title
	if title == "" {
		title = req.Event.Title
	}

	result.ComposedMessage = joinSections(
		headline(title, &req.Event, req.Location),
		trafficSection(result.Traffic, leaveBy, req.Location),
		weatherSection(result.Weather),
	)

	return result
}

func (s *IntelligentScheduler) resolveTraffic(ctx context.Context, req ScheduleRequest) (domain.TrafficInfo, bool) {
	if s.travel == nil || req.Origin == nil || !req.Event.HasLocation() {
		return domain.TrafficInfo{}, false
	}

	origin := *req.Origin

	traffic, err := callWithTimeout(ctx, s.timeout, func(ctx context.Context) (domain.TrafficInfo, error) {
		return s.travel.EstimateTravel(ctx, origin, req.Event.Location)
	})
	if err != nil {
		slog.Warn("travel estimate unavailable, keeping baseline send time",
			"event_id", req.Event.ID.String(),
			"error", err,
		)

		return domain.TrafficInfo{}, false
	}

	if traffic.DurationMinutes < 0 {
		slog.Warn("travel estimate rejected",
			"event_id", req.Event.ID.String(),
			"duration_minutes", traffic.DurationMinutes,
		)

		return domain.TrafficInfo{}, false
	}

	return traffic, true
}

func (s *IntelligentScheduler) resolveWeather(ctx context.Context, req ScheduleRequest) (domain.WeatherInfo, bool) {
	if s.weather == nil || req.Origin == nil {
		return domain.WeatherInfo{}, false
	}

	origin := *req.Origin

	weather, err := callWithTimeout(ctx, s.timeout, func(ctx context.Context) (domain.WeatherInfo, error) {
		return s.weather.CurrentWeather(ctx, origin)
	})
	if err != nil {
		slog.Warn("weather lookup unavailable",
			"event_id", req.Event.ID.String(),
			"error", err,
		)

		return domain.WeatherInfo{}, false
	}

	return weather, true
}
