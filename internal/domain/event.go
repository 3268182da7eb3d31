package domain

import (
	"strings"
	"time"
)

// Event is a read-only view of a calendar event.
type Event struct {
	ID       EventID
	UserID   UserID
	Title    string
	Location string
	Start    time.Time
	End      time.Time
}

func (e Event) HasLocation() bool {
	return strings.TrimSpace(e.Location) != ""
}

type GeoPoint struct {
	Lat float64
	Lng float64
}

// UserProfile holds what delivery and enrichment need to know about a user.
type UserProfile struct {
	UserID   UserID
	Origin   *GeoPoint
	Email    string
	Phone    string
	Location *time.Location
}

// TimeLocation returns the user's time zone, UTC when unknown.
func (p UserProfile) TimeLocation() *time.Location {
	if p.Location == nil {
		return time.UTC
	}

	return p.Location
}
