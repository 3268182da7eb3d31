package domain

import (
	"slices"
	"time"
)

const (
	OffsetDayBefore = 1440
	morningHour     = 9
)

type Suggestion struct {
	EventID        EventID
	EventTitle     string
	EventStart     time.Time
	HasLocation    bool
	OffsetsMinutes []int
}

// SuggestOffsets returns the reminder offsets, in minutes before start, proposed
// for an event. Events that already started get none. The morning check uses
// the event's local hour in loc.
func SuggestOffsets(event Event, now time.Time, loc *time.Location) []int {
	until := event.Start.Sub(now)
	if until <= 0 {
		return nil
	}

	var offsets []int

	if event.HasLocation() {
		switch {
		case until > 24*time.Hour:
			offsets = []int{1440, 60}
		case until > 2*time.Hour:
			offsets = []int{60}
		default:
			offsets = []int{15}
		}
	} else {
		switch {
		case until > 24*time.Hour:
			offsets = []int{1440, 30}
		case until > time.Hour:
			offsets = []int{30}
		default:
			offsets = []int{15}
		}
	}

	if loc == nil {
		loc = time.UTC
	}

	if event.Start.In(loc).Hour() < morningHour && !slices.Contains(offsets, OffsetDayBefore) {
		offsets = append([]int{OffsetDayBefore}, offsets...)
	}

	return offsets
}
