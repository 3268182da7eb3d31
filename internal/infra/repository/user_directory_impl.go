package repository

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/domain"
)

type UserDirectory struct {
	db *gorm.DB
}

func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (d *UserDirectory) GetProfile(ctx context.Context, userID domain.UserID) (domain.UserProfile, error) {
	var m UserProfileModel

	result := d.db.WithContext(ctx).Where("user_id = ?", userID.String()).First(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return domain.UserProfile{}, domain.ErrProfileNotFound
		}

		slog.Error("failed to find user profile",
			"user_id", userID.String(),
			"error", result.Error,
		)

		return domain.UserProfile{}, result.Error
	}

	return m.ToEntity()
}

// Upsert writes a profile snapshot as delivered by account sync.
func (d *UserDirectory) Upsert(ctx context.Context, profile domain.UserProfile) error {
	return d.db.WithContext(ctx).Save(FromProfile(profile)).Error
}
