package notification

import (
	"context"

	"github.com/collablink/collablink/internal/dto"
	"github.com/collablink/collablink/internal/models"
	"github.com/collablink/collablink/internal/storage/postgres"
	"github.com/gin-gonic/gin"
)

// NotificationRepoInterface is the durable store for events, attempts,
// preferences and the in-app inbox.
type NotificationRepoInterface interface {
	CreateEvent(ctx context.Context, event *models.NotificationEvent) error
	GetEvent(ctx context.Context, id string) (*models.NotificationEvent, error)
	CreateAttempt(ctx context.Context, attempt *models.DeliveryAttempt) error
	GetAttempt(ctx context.Context, id uint) (*models.DeliveryAttempt, error)
	ListAttemptsByEvent(ctx context.Context, eventID string) ([]models.DeliveryAttempt, error)
	IncrementAttempt(ctx context.Context, id uint) error
	MarkAttempt(ctx context.Context, id uint, status models.DeliveryStatus, lastError string) error
	GetPreference(ctx context.Context, userID uint, eventType models.EventType) (*models.NotificationPreference, error)
	UpsertPreference(ctx context.Context, pref *models.NotificationPreference) error
	CreateInbox(ctx context.Context, notification *models.InboxNotification) error
	ListInbox(ctx context.Context, userID uint, limit int) ([]models.InboxNotification, error)
	Stats(ctx context.Context) ([]postgres.DeliveryStat, error)
}

// Pusher is the live in-app channel; Push reports whether any open
// connection took the frame.
type Pusher interface {
	Push(userID uint, data any) bool
}

type DispatcherServiceInterface interface {
	Accept(ctx context.Context, event *dto.EventDTO) (*dto.EventAcceptedDTO, error)
	ListInbox(ctx context.Context, userID uint, limit int) ([]dto.InboxItemDTO, error)
	UpdatePreference(ctx context.Context, userID uint, pref *dto.PreferenceDTO) error
	Stats(ctx context.Context) ([]postgres.DeliveryStat, error)
}

type NotificationHandlerInterface interface {
	CreateEvent(c *gin.Context)
	Inbox(c *gin.Context)
	UpdatePreference(c *gin.Context)
	Stats(c *gin.Context)
}
