package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/domain"
)

type reminderRepositoryImpl struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) domain.ReminderRepository {
	return &reminderRepositoryImpl{
		db: db,
	}
}

func (r *reminderRepositoryImpl) Save(ctx context.Context, reminder *domain.Reminder) error {
	slog.Debug("saving reminder to database",
		"reminder_id", reminder.ID().String(),
	)

	m := FromEntity(reminder)

	result := r.db.WithContext(ctx).Create(m)
	if result.Error != nil {
		slog.Error("failed to save reminder to database",
			"reminder_id", reminder.ID().String(),
			"error", result.Error,
		)

		return result.Error
	}

	slog.Debug("reminder saved to database",
		"reminder_id", reminder.ID().String(),
	)

	return nil
}

func (r *reminderRepositoryImpl) SaveSuccessor(ctx context.Context, reminder *domain.Reminder) (bool, error) {
	m := FromEntity(reminder)

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(m)
	if result.Error != nil {
		slog.Error("failed to save successor reminder",
			"reminder_id", reminder.ID().String(),
			"parent_reminder_id", reminder.ParentID().String(),
			"error", result.Error,
		)

		return false, result.Error
	}

	if result.RowsAffected == 0 {
		slog.Info("successor already exists (idempotency)",
			"parent_reminder_id", reminder.ParentID().String(),
			"scheduled_for", reminder.ScheduledFor(),
		)

		return false, nil
	}

	return true, nil
}

func (r *reminderRepositoryImpl) FindByID(ctx context.Context, id domain.ReminderID) (*domain.Reminder, error) {
	slog.Debug("finding reminder by ID",
		"reminder_id", id.String(),
	)

	var m ReminderModel

	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.Debug("reminder not found",
				"reminder_id", id.String(),
			)

			return nil, domain.ErrReminderNotFound
		}

		slog.Error("failed to find reminder by ID",
			"reminder_id", id.String(),
			"error", result.Error,
		)

		return nil, result.Error
	}

	return m.ToEntity()
}

func (r *reminderRepositoryImpl) FindByUser(ctx context.Context, userID domain.UserID, filter domain.ReminderFilter) ([]*domain.Reminder, error) {
	slog.Debug("finding reminders by user",
		"user_id", userID.String(),
		"status", string(filter.Status),
		"calendar_event_id", filter.CalendarEventID.String(),
	)

	q := r.db.WithContext(ctx).Where("user_id = ?", userID.String())

	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}

	if !filter.CalendarEventID.IsZero() {
		q = q.Where("calendar_event_id = ?", filter.CalendarEventID.String())
	}

	var models []ReminderModel

	if err := q.Order("scheduled_for ASC").Order("id ASC").Find(&models).Error; err != nil {
		slog.Error("failed to find reminders by user",
			"user_id", userID.String(),
			"error", err,
		)

		return nil, err
	}

	return toEntities(models)
}

// ClaimDue relies on the status predicate of the outer UPDATE: a row claimed
// by a concurrent batch no longer matches once that batch commits.
func (r *reminderRepositoryImpl) ClaimDue(ctx context.Context, now time.Time, limit int, claimToken string) ([]*domain.Reminder, error) {
	now = now.UTC()
	db := r.db.WithContext(ctx)

	due := db.Model(&ReminderModel{}).
		Select("id").
		Where("status = ? AND scheduled_for <= ?", string(domain.StatusPending), now).
		Order("scheduled_for ASC").
		Limit(limit)

	result := db.Model(&ReminderModel{}).
		Where("id IN (?)", due).
		Where("status = ?", string(domain.StatusPending)).
		Updates(map[string]interface{}{
			"status":      string(domain.StatusProcessing),
			"claim_token": claimToken,
			"claimed_at":  now,
			"updated_at":  now,
		})
	if result.Error != nil {
		slog.Error("failed to claim due reminders",
			"error", result.Error,
		)

		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		return nil, nil
	}

	var models []ReminderModel

	if err := db.Where("claim_token = ? AND status = ?", claimToken, string(domain.StatusProcessing)).
		Order("scheduled_for ASC").
		Find(&models).Error; err != nil {
		slog.Error("failed to load claimed reminders",
			"claim_token", claimToken,
			"error", err,
		)

		return nil, err
	}

	slog.Debug("claimed due reminders",
		"claim_token", claimToken,
		"count", len(models),
	)

	return toEntities(models)
}

func (r *reminderRepositoryImpl) Transition(ctx context.Context, reminder *domain.Reminder, from domain.Status) error {
	m := FromEntity(reminder)

	q := r.db.WithContext(ctx).Model(&ReminderModel{}).
		Where("id = ? AND status = ?", m.ID, string(from))

	if from == domain.StatusProcessing {
		q = q.Where("claim_token = ?", reminder.ClaimToken())
	}

	result := q.Updates(map[string]interface{}{
		"status":     m.Status,
		"sent_at":    m.SentAt,
		"last_error": m.LastError,
		"updated_at": m.UpdatedAt,
	})
	if result.Error != nil {
		slog.Error("failed to transition reminder",
			"reminder_id", m.ID,
			"from", string(from),
			"to", m.Status,
			"error", result.Error,
		)

		return result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&ReminderModel{}).Where("id = ?", m.ID).Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			return domain.ErrReminderNotFound
		}

		slog.Warn("reminder transition lost to a concurrent change",
			"reminder_id", m.ID,
			"from", string(from),
			"to", m.Status,
		)

		return domain.ErrStaleTransition
	}

	slog.Debug("reminder transitioned",
		"reminder_id", m.ID,
		"from", string(from),
		"to", m.Status,
	)

	return nil
}

func (r *reminderRepositoryImpl) ReleaseStaleClaims(ctx context.Context, claimedBefore time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&ReminderModel{}).
		Where("status = ? AND claimed_at < ?", string(domain.StatusProcessing), claimedBefore.UTC()).
		Updates(map[string]interface{}{
			"status":      string(domain.StatusPending),
			"claim_token": nil,
			"claimed_at":  nil,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		slog.Error("failed to release stale claims",
			"claimed_before", claimedBefore,
			"error", result.Error,
		)

		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (r *reminderRepositoryImpl) WithTx(ctx context.Context, fn func(repo domain.ReminderRepository) error) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		slog.Error("failed to begin transaction",
			"error", tx.Error,
		)

		return tx.Error
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	txRepo := &reminderRepositoryImpl{db: tx}

	if err := fn(txRepo); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			slog.Error("failed to rollback transaction",
				"error", rbErr,
				"original_error", err,
			)
		}

		return err
	}

	if err := tx.Commit().Error; err != nil {
		slog.Error("failed to commit transaction",
			"error", err,
		)

		return err
	}

	return nil
}

func toEntities(models []ReminderModel) ([]*domain.Reminder, error) {
	reminders := make([]*domain.Reminder, 0, len(models))
	for _, m := range models {
		reminder, err := m.ToEntity()
		if err != nil {
			slog.Error("failed to convert model to entity",
				"reminder_id", m.ID,
				"error", err,
			)

			return nil, err
		}

		reminders = append(reminders, reminder)
	}

	return reminders, nil
}
