package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/collablink/collablink/common"
	"github.com/collablink/collablink/internal/dto"
	"github.com/collablink/collablink/internal/models"
	"github.com/collablink/collablink/internal/queue"
	"github.com/collablink/collablink/internal/storage/postgres"
	"gorm.io/datatypes"
)

type DispatcherConfig struct {
	// MaxAttempts caps delivery tries per attempt record before it is
	// marked failed_permanent.
	MaxAttempts int
}

// Dispatcher fans one accepted event out into per-recipient, per-channel
// delivery attempts. In-app copies are delivered inline; email and social
// attempts go through the task queue.
type Dispatcher struct {
	repo     NotificationRepoInterface
	producer queue.Producer
	pusher   Pusher
	cfg      DispatcherConfig
	log      *slog.Logger
}

var _ DispatcherServiceInterface = (*Dispatcher)(nil)

func NewDispatcher(repo NotificationRepoInterface, producer queue.Producer, pusher Pusher, cfg DispatcherConfig, log *slog.Logger) *Dispatcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &Dispatcher{repo: repo, producer: producer, pusher: pusher, cfg: cfg, log: log}
}

// Accept persists the event, creates one delivery attempt per enabled
// (recipient, channel) pair and returns once every attempt is durably
// recorded. A recipient failing fan-out never blocks the others.
func (d *Dispatcher) Accept(ctx context.Context, in *dto.EventDTO) (*dto.EventAcceptedDTO, error) {
	event := &models.NotificationEvent{
		EventType: models.EventType(in.EventType),
		Title:     in.Title,
		Message:   in.Message,
		Payload:   datatypes.JSON(in.Payload),
	}
	if err := d.repo.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("create notification event: %w", err)
	}

	total := 0
	for _, rec := range in.Recipients {
		for _, ch := range d.enabledChannels(ctx, rec.UserID, event.EventType) {
			attempt := &models.DeliveryAttempt{
				EventID:     event.ID,
				RecipientID: rec.UserID,
				Channel:     ch,
				Address:     addressFor(ch, rec),
				Status:      models.DeliveryQueued,
				MaxAttempts: d.cfg.MaxAttempts,
			}
			if err := d.repo.CreateAttempt(ctx, attempt); err != nil {
				d.log.Error("create delivery attempt",
					"event_id", event.ID, "recipient_id", rec.UserID, "channel", ch, "error", err)
				continue
			}
			total++

			if ch == models.ChannelInApp {
				d.deliverInApp(ctx, event, attempt)
				continue
			}
			msg := queue.Message{Kind: queue.MessageKindDeliveryAttempt, RefID: strconv.FormatUint(uint64(attempt.ID), 10)}
			if err := d.producer.Enqueue(ctx, msg); err != nil {
				d.log.Error("enqueue delivery attempt",
					"attempt_id", attempt.ID, "channel", ch, "error", err)
				if merr := d.repo.MarkAttempt(ctx, attempt.ID, models.DeliveryFailedRetryable, "task queue unavailable at fan-out"); merr != nil {
					d.log.Error("mark attempt after enqueue failure", "attempt_id", attempt.ID, "error", merr)
				}
			}
		}
	}

	d.log.Info("notification event accepted",
		"event_id", event.ID, "event_type", event.EventType,
		"recipients", len(in.Recipients), "attempts", total)
	return &dto.EventAcceptedDTO{EventID: event.ID, Attempts: total}, nil
}

// deliverInApp writes the inbox row and pushes to any open realtime
// connection. The inbox row is the delivery; the push is best effort.
func (d *Dispatcher) deliverInApp(ctx context.Context, event *models.NotificationEvent, attempt *models.DeliveryAttempt) {
	if err := d.repo.IncrementAttempt(ctx, attempt.ID); err != nil {
		d.log.Error("increment in-app attempt", "attempt_id", attempt.ID, "error", err)
	}
	inbox := &models.InboxNotification{
		UserID:    attempt.RecipientID,
		EventID:   event.ID,
		EventType: event.EventType,
		Title:     event.Title,
		Message:   event.Message,
		Payload:   event.Payload,
	}
	if err := d.repo.CreateInbox(ctx, inbox); err != nil {
		d.log.Error("create inbox notification", "attempt_id", attempt.ID, "error", err)
		if merr := d.repo.MarkAttempt(ctx, attempt.ID, models.DeliveryFailedPermanent, simplify(err)); merr != nil {
			d.log.Error("mark in-app attempt failed", "attempt_id", attempt.ID, "error", merr)
		}
		return
	}
	if d.pusher != nil {
		d.pusher.Push(attempt.RecipientID, toInboxDTO(inbox))
	}
	if err := d.repo.MarkAttempt(ctx, attempt.ID, models.DeliverySent, ""); err != nil {
		d.log.Error("mark in-app attempt sent", "attempt_id", attempt.ID, "error", err)
	}
}

// enabledChannels resolves the recipient's preference row; absence of a
// row, or a lookup error, leaves every channel on.
func (d *Dispatcher) enabledChannels(ctx context.Context, userID uint, eventType models.EventType) []models.Channel {
	pref, err := d.repo.GetPreference(ctx, userID, eventType)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			d.log.Warn("preference lookup failed, defaulting to all channels",
				"user_id", userID, "event_type", eventType, "error", err)
		}
		return models.AllChannels
	}
	enabled := make([]models.Channel, 0, len(models.AllChannels))
	for _, ch := range models.AllChannels {
		if pref.Enabled(ch) {
			enabled = append(enabled, ch)
		}
	}
	return enabled
}

func (d *Dispatcher) ListInbox(ctx context.Context, userID uint, limit int) ([]dto.InboxItemDTO, error) {
	rows, err := d.repo.ListInbox(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list inbox: %w", err)
	}
	items := make([]dto.InboxItemDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *toInboxDTO(&rows[i]))
	}
	return items, nil
}

// UpdatePreference merges the non-nil toggles into the stored row,
// creating it with everything enabled first when absent.
func (d *Dispatcher) UpdatePreference(ctx context.Context, userID uint, in *dto.PreferenceDTO) error {
	eventType := models.EventType(in.EventType)
	pref, err := d.repo.GetPreference(ctx, userID, eventType)
	if errors.Is(err, common.ErrNotFound) {
		pref = &models.NotificationPreference{
			UserID:        userID,
			EventType:     eventType,
			InAppEnabled:  true,
			EmailEnabled:  true,
			SocialEnabled: true,
		}
	} else if err != nil {
		return fmt.Errorf("load preference: %w", err)
	}
	if in.InAppEnabled != nil {
		pref.InAppEnabled = *in.InAppEnabled
	}
	if in.EmailEnabled != nil {
		pref.EmailEnabled = *in.EmailEnabled
	}
	if in.SocialEnabled != nil {
		pref.SocialEnabled = *in.SocialEnabled
	}
	if err := d.repo.UpsertPreference(ctx, pref); err != nil {
		return fmt.Errorf("upsert preference: %w", err)
	}
	return nil
}

func (d *Dispatcher) Stats(ctx context.Context) ([]postgres.DeliveryStat, error) {
	return d.repo.Stats(ctx)
}

func addressFor(ch models.Channel, rec dto.RecipientDTO) string {
	switch ch {
	case models.ChannelEmail:
		return rec.Email
	case models.ChannelSocial:
		return rec.SocialHandle
	}
	return ""
}

func toInboxDTO(n *models.InboxNotification) *dto.InboxItemDTO {
	return &dto.InboxItemDTO{
		ID:        n.ID,
		EventType: string(n.EventType),
		Title:     n.Title,
		Message:   n.Message,
		Payload:   []byte(n.Payload),
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

func simplify(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
