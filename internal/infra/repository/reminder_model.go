package repository

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/domain"
)

// JSONColumn stores an optional value as JSON. A nil V maps to NULL.
type JSONColumn[T any] struct {
	V *T
}

func (c *JSONColumn[T]) Scan(value interface{}) error {
	var raw []byte

	switch v := value.(type) {
	case nil:
		c.V = nil

		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to scan JSON column: unexpected type %T", value)
	}

	if len(raw) == 0 || string(raw) == "null" {
		c.V = nil

		return nil
	}

	var decoded T
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}

	c.V = &decoded

	return nil
}

func (c JSONColumn[T]) Value() (driver.Value, error) {
	if c.V == nil {
		return nil, nil //nolint:nilnil
	}

	b, err := json.Marshal(c.V)
	if err != nil {
		return nil, err
	}

	return string(b), nil
}

func (JSONColumn[T]) GormDataType() string {
	return "json"
}

func (JSONColumn[T]) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "jsonb"
	default:
		return "JSON"
	}
}

type TrafficJSON struct {
	DurationMinutes int       `json:"duration_minutes"`
	DistanceKm      float64   `json:"distance_km"`
	Congestion      string    `json:"congestion"`
	CapturedAt      time.Time `json:"captured_at"`
}

type WeatherJSON struct {
	TemperatureC float64   `json:"temperature_c"`
	Description  string    `json:"description"`
	CapturedAt   time.Time `json:"captured_at"`
}

type ReminderModel struct {
	ID               string                  `gorm:"column:id;size:36;primaryKey"`
	UserID           string                  `gorm:"column:user_id;size:36;not null;index:idx_reminders_user_status,priority:1"`
	CalendarEventID  *string                 `gorm:"column:calendar_event_id;size:255;index:idx_reminders_calendar_event_id"`
	Title            string                  `gorm:"column:title;size:255;not null"`
	Message          string                  `gorm:"column:message;type:text;not null"`
	Channel          string                  `gorm:"column:channel;size:16;not null"`
	ScheduledFor     time.Time               `gorm:"column:scheduled_for;not null;index:idx_reminders_status_scheduled_for,priority:2;uniqueIndex:idx_reminders_parent_scheduled_for,priority:2"`
	Status           string                  `gorm:"column:status;size:16;not null;index:idx_reminders_status_scheduled_for,priority:1;index:idx_reminders_user_status,priority:2"`
	IncludeTraffic   bool                    `gorm:"column:include_traffic;not null;default:false"`
	IncludeWeather   bool                    `gorm:"column:include_weather;not null;default:false"`
	TrafficInfo      JSONColumn[TrafficJSON] `gorm:"column:traffic_info"`
	WeatherInfo      JSONColumn[WeatherJSON] `gorm:"column:weather_info"`
	IsRecurring      bool                    `gorm:"column:is_recurring;not null;default:false"`
	RecurrenceRule   *string                 `gorm:"column:recurrence_rule;size:64"`
	RecurrenceEnd    *time.Time              `gorm:"column:recurrence_end"`
	ParentReminderID *string                 `gorm:"column:parent_reminder_id;size:36;uniqueIndex:idx_reminders_parent_scheduled_for,priority:1"`
	SentAt           *time.Time              `gorm:"column:sent_at"`
	LastError        string                  `gorm:"column:last_error;type:text;not null"`
	ClaimToken       *string                 `gorm:"column:claim_token;size:36;index:idx_reminders_claim_token"`
	ClaimedAt        *time.Time              `gorm:"column:claimed_at"`
	CreatedAt        time.Time               `gorm:"column:created_at;not null"`
	UpdatedAt        time.Time               `gorm:"column:updated_at;not null"`
}

func (ReminderModel) TableName() string {
	return "reminders"
}

func (m *ReminderModel) ToEntity() (*domain.Reminder, error) {
	reminderID, err := domain.ReminderIDFromString(m.ID)
	if err != nil {
		return nil, err
	}

	userID, err := domain.UserIDFromString(m.UserID)
	if err != nil {
		return nil, err
	}

	var eventID domain.EventID
	if m.CalendarEventID != nil {
		if eventID, err = domain.EventIDFromString(*m.CalendarEventID); err != nil {
			return nil, err
		}
	}

	var parentID domain.ReminderID
	if m.ParentReminderID != nil {
		if parentID, err = domain.ReminderIDFromString(*m.ParentReminderID); err != nil {
			return nil, err
		}
	}

	channel, err := domain.NewChannel(m.Channel)
	if err != nil {
		return nil, err
	}

	status, err := domain.NewStatus(m.Status)
	if err != nil {
		return nil, err
	}

	var traffic *domain.TrafficInfo
	if t := m.TrafficInfo.V; t != nil {
		traffic = &domain.TrafficInfo{
			DurationMinutes: t.DurationMinutes,
			DistanceKm:      t.DistanceKm,
			Congestion:      domain.NewCongestionLevel(t.Congestion),
			CapturedAt:      t.CapturedAt,
		}
	}

	var weather *domain.WeatherInfo
	if w := m.WeatherInfo.V; w != nil {
		weather = &domain.WeatherInfo{
			TemperatureC: w.TemperatureC,
			Description:  w.Description,
			CapturedAt:   w.CapturedAt,
		}
	}

	return domain.Reconstitute(domain.ReconstituteParams{
		ID:              reminderID,
		UserID:          userID,
		CalendarEventID: eventID,
		Title:           m.Title,
		Message:         m.Message,
		Channel:         channel,
		ScheduledFor:    m.ScheduledFor,
		Status:          status,
		IncludeTraffic:  m.IncludeTraffic,
		IncludeWeather:  m.IncludeWeather,
		Traffic:         traffic,
		Weather:         weather,
		IsRecurring:     m.IsRecurring,
		RecurrenceRule:  deref(m.RecurrenceRule),
		RecurrenceEnd:   m.RecurrenceEnd,
		ParentID:        parentID,
		SentAt:          m.SentAt,
		LastError:       m.LastError,
		ClaimToken:      deref(m.ClaimToken),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}), nil
}

// FromEntity maps a reminder onto its row. Times are stored in UTC so that
// range predicates compare correctly on every supported driver.
func FromEntity(e *domain.Reminder) *ReminderModel {
	m := &ReminderModel{
		ID:             e.ID().String(),
		UserID:         e.UserID().String(),
		Title:          e.Title(),
		Message:        e.Message(),
		Channel:        string(e.Channel()),
		ScheduledFor:   e.ScheduledFor().UTC(),
		Status:         string(e.Status()),
		IncludeTraffic: e.IncludeTraffic(),
		IncludeWeather: e.IncludeWeather(),
		IsRecurring:    e.IsRecurring(),
		RecurrenceRule: optional(e.RecurrenceRule()),
		RecurrenceEnd:  utcPtr(e.RecurrenceEnd()),
		SentAt:         utcPtr(e.SentAt()),
		LastError:      e.LastError(),
		ClaimToken:     optional(e.ClaimToken()),
		CreatedAt:      e.CreatedAt().UTC(),
		UpdatedAt:      e.UpdatedAt().UTC(),
	}

	if !e.CalendarEventID().IsZero() {
		m.CalendarEventID = optional(e.CalendarEventID().String())
	}

	if !e.ParentID().IsZero() {
		m.ParentReminderID = optional(e.ParentID().String())
	}

	if t := e.Traffic(); t != nil {
		m.TrafficInfo.V = &TrafficJSON{
			DurationMinutes: t.DurationMinutes,
			DistanceKm:      t.DistanceKm,
			Congestion:      string(t.Congestion),
			CapturedAt:      t.CapturedAt.UTC(),
		}
	}

	if w := e.Weather(); w != nil {
		m.WeatherInfo.V = &WeatherJSON{
			TemperatureC: w.TemperatureC,
			Description:  w.Description,
			CapturedAt:   w.CapturedAt.UTC(),
		}
	}

	return m
}

func optional(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	u := t.UTC()

	return &u
}
