package repository

import (
	"log/slog"
	"time"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/domain"
)

type UserProfileModel struct {
	UserID    string    `gorm:"column:user_id;size:36;primaryKey"`
	OriginLat *float64  `gorm:"column:origin_lat"`
	OriginLng *float64  `gorm:"column:origin_lng"`
	Email     string    `gorm:"column:email;size:320;not null"`
	Phone     string    `gorm:"column:phone;size:32;not null"`
	TimeZone  string    `gorm:"column:time_zone;size:64;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (UserProfileModel) TableName() string {
	return "user_profiles"
}

func (m *UserProfileModel) ToEntity() (domain.UserProfile, error) {
	userID, err := domain.UserIDFromString(m.UserID)
	if err != nil {
		return domain.UserProfile{}, err
	}

	profile := domain.UserProfile{
		UserID: userID,
		Email:  m.Email,
		Phone:  m.Phone,
	}

	if m.OriginLat != nil && m.OriginLng != nil {
		profile.Origin = &domain.GeoPoint{Lat: *m.OriginLat, Lng: *m.OriginLng}
	}

	if m.TimeZone != "" {
		loc, err := time.LoadLocation(m.TimeZone)
		if err != nil {
			slog.Warn("unknown time zone on user profile, using UTC",
				"user_id", m.UserID,
				"time_zone", m.TimeZone,
			)
		} else {
			profile.Location = loc
		}
	}

	return profile, nil
}

func FromProfile(p domain.UserProfile) *UserProfileModel {
	m := &UserProfileModel{
		UserID:    p.UserID.String(),
		Email:     p.Email,
		Phone:     p.Phone,
		UpdatedAt: time.Now().UTC(),
	}

	if p.Origin != nil {
		lat, lng := p.Origin.Lat, p.Origin.Lng
		m.OriginLat = &lat
		m.OriginLng = &lng
	}

	if p.Location != nil {
		m.TimeZone = p.Location.String()
	}

	return m
}
