package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const maxTitleLength = 200

type Reminder struct {
	id              ReminderID
	userID          UserID
	calendarEventID EventID
	title           string
	message         string
	channel         Channel
	scheduledFor    time.Time
	status          Status
	includeTraffic  bool
	includeWeather  bool
	traffic         *TrafficInfo
	weather         *WeatherInfo
	isRecurring     bool
	recurrenceRule  string
	recurrenceEnd   *time.Time
	parentID        ReminderID
	sentAt          *time.Time
	lastError       string
	claimToken      string
	createdAt       time.Time
	updatedAt       time.Time
}

type NewReminderParams struct {
	UserID          UserID
	CalendarEventID EventID
	Title           string
	Message         string
	Channel         Channel
	ScheduledFor    time.Time
	IncludeTraffic  bool
	IncludeWeather  bool
	Traffic         *TrafficInfo
	Weather         *WeatherInfo
	Recurrence      *RecurrenceRule
	RecurrenceEnd   *time.Time
}

func NewReminder(p NewReminderParams, now time.Time) (*Reminder, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, ErrTitleTooLong
	}

	if _, err := NewChannel(string(p.Channel)); err != nil {
		return nil, err
	}

	if p.ScheduledFor.IsZero() {
		return nil, ErrMissingScheduleTime
	}

	if p.ScheduledFor.Before(now) {
		return nil, ErrPastScheduleTime
	}

	r := &Reminder{
		id:              NewReminderID(),
		userID:          p.UserID,
		calendarEventID: p.CalendarEventID,
		title:           title,
		message:         strings.TrimSpace(p.Message),
		channel:         p.Channel,
		scheduledFor:    p.ScheduledFor,
		status:          StatusPending,
		includeTraffic:  p.IncludeTraffic,
		includeWeather:  p.IncludeWeather,
		traffic:         p.Traffic,
		weather:         p.Weather,
		createdAt:       now,
		updatedAt:       now,
	}

	if p.Recurrence != nil {
		if p.Recurrence.IsZero() {
			return nil, ErrInvalidRecurrenceRule
		}

		if p.RecurrenceEnd != nil && p.RecurrenceEnd.Before(p.ScheduledFor) {
			return nil, ErrInvalidRecurrenceEnd
		}

		r.isRecurring = true
		r.recurrenceRule = p.Recurrence.String()
		r.recurrenceEnd = p.RecurrenceEnd
	}

	return r, nil
}

type ReconstituteParams struct {
	ID              ReminderID
	UserID          UserID
	CalendarEventID EventID
	Title           string
	Message         string
	Channel         Channel
	ScheduledFor    time.Time
	Status          Status
	IncludeTraffic  bool
	IncludeWeather  bool
	Traffic         *TrafficInfo
	Weather         *WeatherInfo
	IsRecurring     bool
	RecurrenceRule  string
	RecurrenceEnd   *time.Time
	ParentID        ReminderID
	SentAt          *time.Time
	LastError       string
	ClaimToken      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Reconstitute rebuilds a reminder from storage without validation.
// The encoded recurrence rule is kept verbatim so malformed legacy rules
// surface only when the next occurrence is computed.
func Reconstitute(p ReconstituteParams) *Reminder {
	return &Reminder{
		id:              p.ID,
		userID:          p.UserID,
		calendarEventID: p.CalendarEventID,
		title:           p.Title,
		message:         p.Message,
		channel:         p.Channel,
		scheduledFor:    p.ScheduledFor,
		status:          p.Status,
		includeTraffic:  p.IncludeTraffic,
		includeWeather:  p.IncludeWeather,
		traffic:         p.Traffic,
		weather:         p.Weather,
		isRecurring:     p.IsRecurring,
		recurrenceRule:  p.RecurrenceRule,
		recurrenceEnd:   p.RecurrenceEnd,
		parentID:        p.ParentID,
		sentAt:          p.SentAt,
		lastError:       p.LastError,
		claimToken:      p.ClaimToken,
		createdAt:       p.CreatedAt,
		updatedAt:       p.UpdatedAt,
	}
}

func (r *Reminder) transition(next Status, now time.Time) error {
	if !r.status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}

	r.status = next
	r.updatedAt = now

	return nil
}

func (r *Reminder) Cancel(now time.Time) error {
	if r.status != StatusPending {
		return ErrNotCancellable
	}

	return r.transition(StatusCancelled, now)
}

func (r *Reminder) MarkSent(now time.Time) error {
	if err := r.transition(StatusSent, now); err != nil {
		return err
	}

	sentAt := now
	r.sentAt = &sentAt
	r.lastError = ""

	return nil
}

func (r *Reminder) MarkFailed(reason string, now time.Time) error {
	if err := r.transition(StatusFailed, now); err != nil {
		return err
	}

	r.lastError = reason

	return nil
}

// Rule parses the stored recurrence rule. ok is false for one-off reminders.
func (r *Reminder) Rule() (rule RecurrenceRule, ok bool, err error) {
	if !r.isRecurring || r.recurrenceRule == "" {
		return RecurrenceRule{}, false, nil
	}

	rule, err = ParseRecurrenceRule(r.recurrenceRule)
	if err != nil {
		return RecurrenceRule{}, false, err
	}

	return rule, true, nil
}

// NextInChain builds the successor of a sent recurring reminder.
// The occurrence is computed on the wall clock of loc, so time-of-day and
// month-end clamping follow the user's calendar; a nil loc keeps the stored
// location. It returns nil when the reminder does not recur or the chain has
// ended. The receiver is never modified.
func (r *Reminder) NextInChain(loc *time.Location, now time.Time) (*Reminder, error) {
	if r.status != StatusSent {
		return nil, ErrInvalidTransition
	}

	rule, ok, err := r.Rule()
	if err != nil || !ok {
		return nil, err
	}

	anchor := r.scheduledFor
	if loc != nil {
		anchor = anchor.In(loc)
	}

	next, err := NextOccurrence(anchor, rule)
	if err != nil {
		return nil, err
	}

	if r.recurrenceEnd != nil && next.After(*r.recurrenceEnd) {
		return nil, nil
	}

	parentID := r.parentID
	if parentID.IsZero() {
		parentID = r.id
	}

	return &Reminder{
		id:              NewReminderID(),
		userID:          r.userID,
		calendarEventID: r.calendarEventID,
		title:           r.title,
		message:         r.message,
		channel:         r.channel,
		scheduledFor:    next,
		status:          StatusPending,
		includeTraffic:  r.includeTraffic,
		includeWeather:  r.includeWeather,
		traffic:         r.traffic,
		weather:         r.weather,
		isRecurring:     r.isRecurring,
		recurrenceRule:  r.recurrenceRule,
		recurrenceEnd:   r.recurrenceEnd,
		parentID:        parentID,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// DedupKey identifies one delivery attempt of one occurrence across retries.
func (r *Reminder) DedupKey() string {
	return r.id.String() + ":" + r.scheduledFor.UTC().Format(time.RFC3339)
}

func (r *Reminder) ID() ReminderID {
	return r.id
}

func (r *Reminder) UserID() UserID {
	return r.userID
}

func (r *Reminder) CalendarEventID() EventID {
	return r.calendarEventID
}

func (r *Reminder) Title() string {
	return r.title
}

func (r *Reminder) Message() string {
	return r.message
}

func (r *Reminder) Channel() Channel {
	return r.channel
}

func (r *Reminder) ScheduledFor() time.Time {
	return r.scheduledFor
}

func (r *Reminder) Status() Status {
	return r.status
}

func (r *Reminder) IncludeTraffic() bool {
	return r.includeTraffic
}

func (r *Reminder) IncludeWeather() bool {
	return r.includeWeather
}

func (r *Reminder) Traffic() *TrafficInfo {
	return r.traffic
}

func (r *Reminder) Weather() *WeatherInfo {
	return r.weather
}

func (r *Reminder) IsRecurring() bool {
	return r.isRecurring
}

func (r *Reminder) RecurrenceRule() string {
	return r.recurrenceRule
}

func (r *Reminder) RecurrenceEnd() *time.Time {
	return r.recurrenceEnd
}

func (r *Reminder) ParentID() ReminderID {
	return r.parentID
}

func (r *Reminder) SentAt() *time.Time {
	return r.sentAt
}

func (r *Reminder) LastError() string {
	return r.lastError
}

func (r *Reminder) ClaimToken() string {
	return r.claimToken
}

func (r *Reminder) CreatedAt() time.Time {
	return r.createdAt
}

func (r *Reminder) UpdatedAt() time.Time {
	return r.updatedAt
}
