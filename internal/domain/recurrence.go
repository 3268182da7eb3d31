package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type RecurrenceType string

const (
	RecurrenceDaily   RecurrenceType = "DAILY"
	RecurrenceWeekly  RecurrenceType = "WEEKLY"
	RecurrenceMonthly RecurrenceType = "MONTHLY"
	RecurrenceYearly  RecurrenceType = "YEARLY"
)

// RecurrenceRule is an immutable period type plus interval.
// Its encoded form is "FREQ=<TYPE>;INTERVAL=<n>".
type RecurrenceRule struct {
	recurrenceType RecurrenceType
	interval       int
}

func NewRecurrenceRule(recurrenceType string, interval int) (RecurrenceRule, error) {
	t := RecurrenceType(strings.ToUpper(strings.TrimSpace(recurrenceType)))
	switch t {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
	default:
		return RecurrenceRule{}, fmt.Errorf("%w: unknown type %q", ErrInvalidRecurrenceRule, recurrenceType)
	}

	if interval < 1 {
		return RecurrenceRule{}, fmt.Errorf("%w: interval must be at least 1", ErrInvalidRecurrenceRule)
	}

	return RecurrenceRule{recurrenceType: t, interval: interval}, nil
}

func ParseRecurrenceRule(encoded string) (RecurrenceRule, error) {
	var (
		freq     string
		interval = 1
	)

	for _, part := range strings.Split(strings.TrimSpace(encoded), ";") {
		if part == "" {
			continue
		}

		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return RecurrenceRule{}, fmt.Errorf("%w: malformed part %q", ErrInvalidRecurrenceRule, part)
		}

		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "FREQ":
			freq = strings.TrimSpace(value)
		case "INTERVAL":
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return RecurrenceRule{}, fmt.Errorf("%w: interval %q", ErrInvalidRecurrenceRule, value)
			}

			interval = n
		default:
			return RecurrenceRule{}, fmt.Errorf("%w: unsupported key %q", ErrInvalidRecurrenceRule, key)
		}
	}

	if freq == "" {
		return RecurrenceRule{}, fmt.Errorf("%w: FREQ is required", ErrInvalidRecurrenceRule)
	}

	return NewRecurrenceRule(freq, interval)
}

func (r RecurrenceRule) Type() RecurrenceType {
	return r.recurrenceType
}

func (r RecurrenceRule) Interval() int {
	return r.interval
}

func (r RecurrenceRule) IsZero() bool {
	return r.recurrenceType == ""
}

func (r RecurrenceRule) String() string {
	return fmt.Sprintf("FREQ=%s;INTERVAL=%d", r.recurrenceType, r.interval)
}

// NextOccurrence returns the occurrence following anchor. Wall-clock time of day
// is preserved in the anchor's location. Monthly and yearly rules clamp the day
// of month to the last day of the target month.
func NextOccurrence(anchor time.Time, rule RecurrenceRule) (time.Time, error) {
	if rule.interval < 1 {
		return time.Time{}, fmt.Errorf("%w: interval must be at least 1", ErrInvalidRecurrenceRule)
	}

	switch rule.recurrenceType {
	case RecurrenceDaily:
		return anchor.AddDate(0, 0, rule.interval), nil
	case RecurrenceWeekly:
		return anchor.AddDate(0, 0, 7*rule.interval), nil
	case RecurrenceMonthly:
		return addMonthsClamped(anchor, rule.interval), nil
	case RecurrenceYearly:
		return addMonthsClamped(anchor, 12*rule.interval), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unknown type %q", ErrInvalidRecurrenceRule, rule.recurrenceType)
	}
}

func addMonthsClamped(anchor time.Time, months int) time.Time {
	year, month, day := anchor.Date()
	hour, minute, sec := anchor.Clock()

	// time.Date normalizes month overflow into the year.
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, anchor.Location())
	lastDay := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month())
	if day > lastDay {
		day = lastDay
	}

	return time.Date(
		firstOfTarget.Year(), firstOfTarget.Month(), day,
		hour, minute, sec, anchor.Nanosecond(),
		anchor.Location(),
	)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
