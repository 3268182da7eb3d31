package repository

import (
	"time"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/domain"
)

// CalendarEventModel is a read model filled by the calendar sync service.
type CalendarEventModel struct {
	ID        string    `gorm:"column:id;size:255;primaryKey"`
	UserID    string    `gorm:"column:user_id;size:36;not null;index:idx_calendar_events_user_start,priority:1"`
	Title     string    `gorm:"column:title;size:255;not null"`
	Location  string    `gorm:"column:location;size:512;not null"`
	StartsAt  time.Time `gorm:"column:starts_at;not null;index:idx_calendar_events_user_start,priority:2"`
	EndsAt    time.Time `gorm:"column:ends_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (CalendarEventModel) TableName() string {
	return "calendar_events"
}

func (m *CalendarEventModel) ToEntity() (domain.Event, error) {
	eventID, err := domain.EventIDFromString(m.ID)
	if err != nil {
		return domain.Event{}, err
	}

	userID, err := domain.UserIDFromString(m.UserID)
	if err != nil {
		return domain.Event{}, err
	}

	return domain.Event{
		ID:       eventID,
		UserID:   userID,
		Title:    m.Title,
		Location: m.Location,
		Start:    m.StartsAt,
		End:      m.EndsAt,
	}, nil
}

func FromEvent(e domain.Event) *CalendarEventModel {
	return &CalendarEventModel{
		ID:        e.ID.String(),
		UserID:    e.UserID.String(),
		Title:     e.Title,
		Location:  e.Location,
		StartsAt:  e.Start.UTC(),
		EndsAt:    e.End.UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}
