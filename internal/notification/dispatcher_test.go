package notification

import (
	"context"
	"log/slog"
	"testing"

	"github.com/collablink/collablink/common"
	"github.com/collablink/collablink/internal/dto"
	"github.com/collablink/collablink/internal/mocks"
	"github.com/collablink/collablink/internal/models"
	"github.com/collablink/collablink/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func eventFixture() *dto.EventDTO {
	return &dto.EventDTO{
		EventType: "promotion_created",
		Title:     "New promotion",
		Message:   "Acme launched a summer campaign",
		Recipients: []dto.RecipientDTO{
			{UserID: 1, Email: "one@example.com", SocialHandle: "@one"},
			{UserID: 2, Email: "two@example.com", SocialHandle: "@two"},
		},
	}
}

func TestDispatcher_Accept(t *testing.T) {
	ctx := context.Background()

	t.Run("fans out one attempt per recipient and channel", func(t *testing.T) {
		repo := new(mocks.NotificationRepoMock)
		producer := new(mocks.ProducerMock)
		pusher := new(mocks.PusherMock)

		repo.On("CreateEvent", mock.Anything, mock.Anything).Return(nil)
		// No stored preferences: every channel is on.
		repo.On("GetPreference", mock.Anything, mock.Anything, models.EventPromotionCreated).
			Return(nil, common.ErrNotFound)
		repo.On("CreateAttempt", mock.Anything, mock.Anything).Return(nil)
		// In-app attempts deliver inline.
		repo.On("IncrementAttempt", mock.Anything, mock.Anything).Return(nil)
		repo.On("CreateInbox", mock.Anything, mock.Anything).Return(nil)
		repo.On("MarkAttempt", mock.Anything, mock.Anything, models.DeliverySent, "").Return(nil)
		pusher.On("Push", mock.Anything, mock.Anything).Return(true)
		// Email and social attempts go through the queue.
		producer.On("Enqueue", mock.Anything, mock.MatchedBy(func(msg queue.Message) bool {
			return msg.Kind == queue.MessageKindDeliveryAttempt
		})).Return(nil)

		d := NewDispatcher(repo, producer, pusher, DispatcherConfig{MaxAttempts: 5}, testLogger())
		accepted, err := d.Accept(ctx, eventFixture())
		require.NoError(t, err)
		assert.Equal(t, 6, accepted.Attempts)
		assert.NotEmpty(t, accepted.EventID)

		repo.AssertNumberOfCalls(t, "CreateAttempt", 6)
		repo.AssertNumberOfCalls(t, "CreateInbox", 2)
		producer.AssertNumberOfCalls(t, "Enqueue", 4)
		pusher.AssertNumberOfCalls(t, "Push", 2)
	})

	t.Run("disabled channels are skipped", func(t *testing.T) {
		repo := new(mocks.NotificationRepoMock)
		producer := new(mocks.ProducerMock)
		pusher := new(mocks.PusherMock)

		repo.On("CreateEvent", mock.Anything, mock.Anything).Return(nil)
		repo.On("GetPreference", mock.Anything, uint(1), models.EventPromotionCreated).
			Return(&models.NotificationPreference{
				UserID: 1, EventType: models.EventPromotionCreated,
				InAppEnabled: true, EmailEnabled: false, SocialEnabled: false,
			}, nil)
		repo.On("CreateAttempt", mock.Anything, mock.MatchedBy(func(a *models.DeliveryAttempt) bool {
			return a.Channel == models.ChannelInApp
		})).Return(nil)
		repo.On("IncrementAttempt", mock.Anything, mock.Anything).Return(nil)
		repo.On("CreateInbox", mock.Anything, mock.Anything).Return(nil)
		repo.On("MarkAttempt", mock.Anything, mock.Anything, models.DeliverySent, "").Return(nil)
		pusher.On("Push", uint(1), mock.Anything).Return(false)

		event := eventFixture()
		event.Recipients = event.Recipients[:1]

		d := NewDispatcher(repo, producer, pusher, DispatcherConfig{MaxAttempts: 5}, testLogger())
		accepted, err := d.Accept(ctx, event)
		require.NoError(t, err)
		assert.Equal(t, 1, accepted.Attempts)

		producer.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
	})

	t.Run("attempt addresses are captured per channel", func(t *testing.T) {
		repo := new(mocks.NotificationRepoMock)
		producer := new(mocks.ProducerMock)

		var created []*models.DeliveryAttempt
		repo.On("CreateEvent", mock.Anything, mock.Anything).Return(nil)
		repo.On("GetPreference", mock.Anything, mock.Anything, mock.Anything).Return(nil, common.ErrNotFound)
		repo.On("CreateAttempt", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			created = append(created, args.Get(1).(*models.DeliveryAttempt))
		}).Return(nil)
		repo.On("IncrementAttempt", mock.Anything, mock.Anything).Return(nil)
		repo.On("CreateInbox", mock.Anything, mock.Anything).Return(nil)
		repo.On("MarkAttempt", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		producer.On("Enqueue", mock.Anything, mock.Anything).Return(nil)

		event := eventFixture()
		event.Recipients = event.Recipients[:1]

		d := NewDispatcher(repo, producer, nil, DispatcherConfig{MaxAttempts: 3}, testLogger())
		_, err := d.Accept(ctx, event)
		require.NoError(t, err)

		byChannel := map[models.Channel]string{}
		for _, a := range created {
			byChannel[a.Channel] = a.Address
			assert.Equal(t, 3, a.MaxAttempts)
		}
		assert.Equal(t, "", byChannel[models.ChannelInApp])
		assert.Equal(t, "one@example.com", byChannel[models.ChannelEmail])
		assert.Equal(t, "@one", byChannel[models.ChannelSocial])
	})

	t.Run("enqueue failure marks the attempt retryable and keeps going", func(t *testing.T) {
		repo := new(mocks.NotificationRepoMock)
		producer := new(mocks.ProducerMock)

		repo.On("CreateEvent", mock.Anything, mock.Anything).Return(nil)
		repo.On("GetPreference", mock.Anything, mock.Anything, mock.Anything).Return(nil, common.ErrNotFound)
		repo.On("CreateAttempt", mock.Anything, mock.Anything).Return(nil)
		repo.On("IncrementAttempt", mock.Anything, mock.Anything).Return(nil)
		repo.On("CreateInbox", mock.Anything, mock.Anything).Return(nil)
		repo.On("MarkAttempt", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		producer.On("Enqueue", mock.Anything, mock.Anything).Return(assert.AnError)

		event := eventFixture()
		event.Recipients = event.Recipients[:1]

		d := NewDispatcher(repo, producer, nil, DispatcherConfig{MaxAttempts: 5}, testLogger())
		accepted, err := d.Accept(ctx, event)
		require.NoError(t, err)
		assert.Equal(t, 3, accepted.Attempts)

		repo.AssertCalled(t, "MarkAttempt", mock.Anything, mock.Anything,
			models.DeliveryFailedRetryable, "task queue unavailable at fan-out")
	})
}

func TestDispatcher_UpdatePreference(t *testing.T) {
	ctx := context.Background()
	off := false

	t.Run("creates a default row when absent", func(t *testing.T) {
		repo := new(mocks.NotificationRepoMock)
		repo.On("GetPreference", mock.Anything, uint(42), models.EventPromotionCreated).
			Return(nil, common.ErrNotFound)
		repo.On("UpsertPreference", mock.Anything, mock.MatchedBy(func(p *models.NotificationPreference) bool {
			return p.UserID == 42 && p.InAppEnabled && !p.EmailEnabled && p.SocialEnabled
		})).Return(nil)

		d := NewDispatcher(repo, nil, nil, DispatcherConfig{}, testLogger())
		err := d.UpdatePreference(ctx, 42, &dto.PreferenceDTO{
			EventType:    "promotion_created",
			EmailEnabled: &off,
		})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("nil toggles leave stored values untouched", func(t *testing.T) {
		repo := new(mocks.NotificationRepoMock)
		repo.On("GetPreference", mock.Anything, uint(42), models.EventPromotionCreated).
			Return(&models.NotificationPreference{
				UserID: 42, EventType: models.EventPromotionCreated,
				InAppEnabled: false, EmailEnabled: true, SocialEnabled: true,
			}, nil)
		repo.On("UpsertPreference", mock.Anything, mock.MatchedBy(func(p *models.NotificationPreference) bool {
			return !p.InAppEnabled && p.EmailEnabled && !p.SocialEnabled
		})).Return(nil)

		d := NewDispatcher(repo, nil, nil, DispatcherConfig{}, testLogger())
		err := d.UpdatePreference(ctx, 42, &dto.PreferenceDTO{
			EventType:     "promotion_created",
			SocialEnabled: &off,
		})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}
