package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/collablink/collablink/common"
	"github.com/collablink/collablink/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) CreateEvent(ctx context.Context, event *models.NotificationEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create notification event: %w", err)
	}
	return nil
}

func (r *NotificationRepository) GetEvent(ctx context.Context, id string) (*models.NotificationEvent, error) {
	var event models.NotificationEvent
	if err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("get notification event: %w", err)
	}
	return &event, nil
}

func (r *NotificationRepository) CreateAttempt(ctx context.Context, attempt *models.DeliveryAttempt) error {
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("create delivery attempt: %w", err)
	}
	return nil
}

func (r *NotificationRepository) GetAttempt(ctx context.Context, id uint) (*models.DeliveryAttempt, error) {
	var attempt models.DeliveryAttempt
	if err := r.db.WithContext(ctx).First(&attempt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("get delivery attempt: %w", err)
	}
	return &attempt, nil
}

func (r *NotificationRepository) ListAttemptsByEvent(ctx context.Context, eventID string) ([]models.DeliveryAttempt, error) {
	var attempts []models.DeliveryAttempt
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("id").
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("list delivery attempts: %w", err)
	}
	return attempts, nil
}

// IncrementAttempt bumps the attempt counter at the database level so
// concurrent markers never lose an increment.
func (r *NotificationRepository) IncrementAttempt(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Model(&models.DeliveryAttempt{}).
		Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + ?", 1)).Error; err != nil {
		return fmt.Errorf("increment attempt: %w", err)
	}
	return nil
}

func (r *NotificationRepository) MarkAttempt(ctx context.Context, id uint, status models.DeliveryStatus, lastError string) error {
	if err := r.db.WithContext(ctx).Model(&models.DeliveryAttempt{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"last_error": lastError,
			"updated_at": time.Now().UTC(),
		}).Error; err != nil {
		return fmt.Errorf("mark attempt %d %s: %w", id, status, err)
	}
	return nil
}

func (r *NotificationRepository) GetPreference(ctx context.Context, userID uint, eventType models.EventType) (*models.NotificationPreference, error) {
	var pref models.NotificationPreference
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND event_type = ?", userID, eventType).
		First(&pref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("get preference: %w", err)
	}
	return &pref, nil
}

func (r *NotificationRepository) UpsertPreference(ctx context.Context, pref *models.NotificationPreference) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "event_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"in_app_enabled", "email_enabled", "social_enabled", "updated_at",
		}),
	}).Create(pref).Error
	if err != nil {
		return fmt.Errorf("upsert preference: %w", err)
	}
	return nil
}

func (r *NotificationRepository) CreateInbox(ctx context.Context, notification *models.InboxNotification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("create inbox notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListInbox(ctx context.Context, userID uint, limit int) ([]models.InboxNotification, error) {
	if limit <= 0 {
		limit = 50
	}
	var notifications []models.InboxNotification
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("list inbox: %w", err)
	}
	return notifications, nil
}

// DeliveryStat is one aggregate bucket of attempt outcomes.
type DeliveryStat struct {
	Channel models.Channel        `json:"channel"`
	Status  models.DeliveryStatus `json:"status"`
	Count   int64                 `json:"count"`
}

func (r *NotificationRepository) Stats(ctx context.Context) ([]DeliveryStat, error) {
	var stats []DeliveryStat
	if err := r.db.WithContext(ctx).Model(&models.DeliveryAttempt{}).
		Select("channel, status, count(*) as count").
		Group("channel, status").
		Order("channel, status").
		Scan(&stats).Error; err != nil {
		return nil, fmt.Errorf("delivery stats: %w", err)
	}
	return stats, nil
}
