package domain

import (
	"errors"
	"strings"
)

// EventID identifies a calendar event owned by the calendar sync service.
// The format is provider specific, so only emptiness and length are checked.
type EventID struct {
	value string
}

const maxEventIDLength = 255

var ErrInvalidEventID = errors.New("invalid calendar event ID")

func EventIDFromString(s string) (EventID, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxEventIDLength {
		return EventID{}, ErrInvalidEventID
	}

	return EventID{value: s}, nil
}

func (e EventID) String() string {
	return e.value
}

func (e EventID) IsZero() bool {
	return e.value == ""
}

func (e EventID) Equals(other EventID) bool {
	return e.value == other.value
}
