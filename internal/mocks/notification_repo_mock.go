package mocks

import (
	"context"

	"github.com/collablink/collablink/internal/models"
	"github.com/collablink/collablink/internal/storage/postgres"
	"github.com/stretchr/testify/mock"
)

type NotificationRepoMock struct {
	mock.Mock
}

func (m *NotificationRepoMock) CreateEvent(ctx context.Context, event *models.NotificationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *NotificationRepoMock) GetEvent(ctx context.Context, id string) (*models.NotificationEvent, error) {
	args := m.Called(ctx, id)

	event, _ := args.Get(0).(*models.NotificationEvent)
	return event, args.Error(1)
}

func (m *NotificationRepoMock) CreateAttempt(ctx context.Context, attempt *models.DeliveryAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *NotificationRepoMock) GetAttempt(ctx context.Context, id uint) (*models.DeliveryAttempt, error) {
	args := m.Called(ctx, id)

	attempt, _ := args.Get(0).(*models.DeliveryAttempt)
	return attempt, args.Error(1)
}

func (m *NotificationRepoMock) ListAttemptsByEvent(ctx context.Context, eventID string) ([]models.DeliveryAttempt, error) {
	args := m.Called(ctx, eventID)

	attempts, _ := args.Get(0).([]models.DeliveryAttempt)
	return attempts, args.Error(1)
}

func (m *NotificationRepoMock) IncrementAttempt(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *NotificationRepoMock) MarkAttempt(ctx context.Context, id uint, status models.DeliveryStatus, lastError string) error {
	args := m.Called(ctx, id, status, lastError)
	return args.Error(0)
}

func (m *NotificationRepoMock) GetPreference(ctx context.Context, userID uint, eventType models.EventType) (*models.NotificationPreference, error) {
	args := m.Called(ctx, userID, eventType)

	pref, _ := args.Get(0).(*models.NotificationPreference)
	return pref, args.Error(1)
}

func (m *NotificationRepoMock) UpsertPreference(ctx context.Context, pref *models.NotificationPreference) error {
	args := m.Called(ctx, pref)
	return args.Error(0)
}

func (m *NotificationRepoMock) CreateInbox(ctx context.Context, notification *models.InboxNotification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *NotificationRepoMock) ListInbox(ctx context.Context, userID uint, limit int) ([]models.InboxNotification, error) {
	args := m.Called(ctx, userID, limit)

	rows, _ := args.Get(0).([]models.InboxNotification)
	return rows, args.Error(1)
}

func (m *NotificationRepoMock) Stats(ctx context.Context) ([]postgres.DeliveryStat, error) {
	args := m.Called(ctx)

	stats, _ := args.Get(0).([]postgres.DeliveryStat)
	return stats, args.Error(1)
}
