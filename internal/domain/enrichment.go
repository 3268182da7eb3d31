package domain

import (
	"fmt"
	"strings"
	"time"
)

type CongestionLevel string

const (
	CongestionUnknown  CongestionLevel = "unknown"
	CongestionLow      CongestionLevel = "low"
	CongestionModerate CongestionLevel = "moderate"
	CongestionHeavy    CongestionLevel = "heavy"
)

func NewCongestionLevel(s string) CongestionLevel {
	switch CongestionLevel(strings.ToLower(strings.TrimSpace(s))) {
	case CongestionLow:
		return CongestionLow
	case CongestionModerate:
		return CongestionModerate
	case CongestionHeavy:
		return CongestionHeavy
	default:
		return CongestionUnknown
	}
}

// TrafficInfo is the travel snapshot captured when a reminder is scheduled.
// It is never refreshed afterwards.
type TrafficInfo struct {
	DurationMinutes int
	DistanceKm      float64
	Congestion      CongestionLevel
	CapturedAt      time.Time
}

func (t TrafficInfo) Summary() string {
	s := fmt.Sprintf("Travel time about %d min (%.1f km)", t.DurationMinutes, t.DistanceKm)
	if t.Congestion != CongestionUnknown && t.Congestion != "" {
		s += fmt.Sprintf(", %s traffic", t.Congestion)
	}

	return s + "."
}

// WeatherInfo is the weather snapshot captured when a reminder is scheduled.
type WeatherInfo struct {
	TemperatureC float64
	Description  string
	CapturedAt   time.Time
}

func (w WeatherInfo) Summary() string {
	if w.Description == "" {
		return fmt.Sprintf("Weather: %.0f°C.", w.TemperatureC)
	}

	return fmt.Sprintf("Weather: %.0f°C, %s.", w.TemperatureC, w.Description)
}

// Guidance returns clothing and precipitation hints for the snapshot.
func (w WeatherInfo) Guidance() []string {
	hints := []string{clothingHint(w.TemperatureC)}

	if hint := precipitationHint(w.Description); hint != "" {
		hints = append(hints, hint)
	}

	return hints
}

func clothingHint(tempC float64) string {
	switch {
	case tempC < 0:
		return "It is freezing, wear a heavy coat and gloves."
	case tempC < 10:
		return "It is cold, wear a warm jacket."
	case tempC < 18:
		return "A light jacket is recommended."
	case tempC >= 28:
		return "It is hot, dress lightly and bring water."
	default:
		return "Regular clothing should be comfortable."
	}
}

func precipitationHint(description string) string {
	d := strings.ToLower(description)

	switch {
	case strings.Contains(d, "snow"), strings.Contains(d, "sleet"):
		return "Snow expected, allow extra time."
	case strings.Contains(d, "rain"), strings.Contains(d, "drizzle"),
		strings.Contains(d, "shower"), strings.Contains(d, "storm"), strings.Contains(d, "thunder"):
		return "Take an umbrella."
	default:
		return ""
	}
}
