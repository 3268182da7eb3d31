package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidUserID is returned for user ids that are not account-service ids.
// Accounts are keyed by time-ordered UUIDv7 values.
var ErrInvalidUserID = errors.New("invalid user id")

// UserID identifies the owner of reminders, calendar events and profiles.
type UserID struct {
	value uuid.UUID
}

// UserIDFromString accepts the canonical text form, tolerating surrounding
// whitespace and upper case as sent by some clients.
func UserIDFromString(s string) (UserID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return UserID{}, fmt.Errorf("%w: empty", ErrInvalidUserID)
	}

	if len(s) != 36 {
		return UserID{}, fmt.Errorf("%w: %q is not a canonical UUID", ErrInvalidUserID, s)
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("%w: %q is not a canonical UUID", ErrInvalidUserID, s)
	}

	return UserIDFromUUID(id)
}

func UserIDFromUUID(id uuid.UUID) (UserID, error) {
	if id.Variant() != uuid.RFC4122 || id.Version() != 7 {
		return UserID{}, fmt.Errorf("%w: want UUIDv7, got version %d", ErrInvalidUserID, id.Version())
	}

	return UserID{value: id}, nil
}

func (u UserID) String() string {
	return u.value.String()
}

func (u UserID) UUID() uuid.UUID {
	return u.value
}

func (u UserID) IsZero() bool {
	return u.value == uuid.Nil
}

func (u UserID) Equals(other UserID) bool {
	return u.value == other.value
}
