package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/collablink/collablink/common"
	"github.com/collablink/collablink/internal/models"
	"github.com/collablink/collablink/internal/provider"
	"github.com/collablink/collablink/internal/queue"
)

type DeliveryConfig struct {
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// DeliveryProcessor executes queued email and social attempts. Outcomes
// live on the attempt record; the queue message is only a pointer, so the
// handler always returns nil once the record reflects the result.
type DeliveryProcessor struct {
	repo     NotificationRepoInterface
	gateway  provider.Invoker
	producer queue.Producer
	cfg      DeliveryConfig
	log      *slog.Logger
}

func NewDeliveryProcessor(repo NotificationRepoInterface, gateway provider.Invoker, producer queue.Producer, cfg DeliveryConfig, log *slog.Logger) *DeliveryProcessor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 2 * time.Second
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 5 * time.Minute
	}
	return &DeliveryProcessor{repo: repo, gateway: gateway, producer: producer, cfg: cfg, log: log}
}

func (p *DeliveryProcessor) Handle(ctx context.Context, msg queue.Message) error {
	id64, err := strconv.ParseUint(msg.RefID, 10, 64)
	if err != nil {
		p.log.Warn("delivery message with malformed ref id", "ref_id", msg.RefID)
		return nil
	}
	attempt, err := p.repo.GetAttempt(ctx, uint(id64))
	if errors.Is(err, common.ErrNotFound) {
		p.log.Warn("delivery message for unknown attempt", "attempt_id", id64)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load delivery attempt %d: %w", id64, err)
	}
	// Duplicate deliveries from the queue are harmless once the record
	// reached a terminal status.
	if attempt.Status.Terminal() {
		return nil
	}

	if err := p.repo.IncrementAttempt(ctx, attempt.ID); err != nil {
		return fmt.Errorf("increment attempt %d: %w", attempt.ID, err)
	}
	tryNo := attempt.Attempts + 1

	event, err := p.repo.GetEvent(ctx, attempt.EventID)
	if errors.Is(err, common.ErrNotFound) {
		p.mark(ctx, attempt.ID, models.DeliveryFailedPermanent, "event record missing")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load event %s: %w", attempt.EventID, err)
	}

	sendErr := p.send(ctx, event, attempt)
	if sendErr == nil {
		p.mark(ctx, attempt.ID, models.DeliverySent, "")
		p.log.Info("delivery sent",
			"attempt_id", attempt.ID, "channel", attempt.Channel, "try", tryNo)
		return nil
	}
	if provider.IsRejected(sendErr) {
		p.mark(ctx, attempt.ID, models.DeliveryFailedPermanent, sendErr.Error())
		p.log.Warn("delivery rejected",
			"attempt_id", attempt.ID, "channel", attempt.Channel, "error", sendErr)
		return nil
	}

	max := attempt.MaxAttempts
	if max <= 0 {
		max = p.cfg.MaxAttempts
	}
	if tryNo >= max {
		p.mark(ctx, attempt.ID, models.DeliveryFailedPermanent,
			fmt.Sprintf("gave up after %d attempts: %v", tryNo, sendErr))
		p.log.Warn("delivery exhausted",
			"attempt_id", attempt.ID, "channel", attempt.Channel, "attempts", tryNo, "error", sendErr)
		return nil
	}

	p.mark(ctx, attempt.ID, models.DeliveryFailedRetryable, sendErr.Error())
	delay := p.backoff(tryNo)
	retry := queue.Message{Kind: queue.MessageKindDeliveryAttempt, RefID: msg.RefID, Attempt: tryNo}
	if err := p.producer.EnqueueAfter(ctx, retry, delay); err != nil {
		p.log.Error("schedule delivery retry", "attempt_id", attempt.ID, "error", err)
		return fmt.Errorf("schedule retry for attempt %d: %w", attempt.ID, err)
	}
	p.log.Info("delivery retry scheduled",
		"attempt_id", attempt.ID, "channel", attempt.Channel, "try", tryNo, "delay", delay)
	return nil
}

func (p *DeliveryProcessor) send(ctx context.Context, event *models.NotificationEvent, attempt *models.DeliveryAttempt) error {
	switch attempt.Channel {
	case models.ChannelEmail:
		if attempt.Address == "" {
			return provider.Rejectedf("recipient %d has no email address", attempt.RecipientID)
		}
		_, err := p.gateway.Invoke(ctx, provider.CapabilityEmailSend, "send", map[string]any{
			"to":      attempt.Address,
			"subject": event.Title,
			"body":    event.Message,
		})
		return err
	case models.ChannelSocial:
		if attempt.Address == "" {
			return provider.Rejectedf("recipient %d has no social handle", attempt.RecipientID)
		}
		_, err := p.gateway.Invoke(ctx, provider.CapabilitySocialPost, "post", map[string]any{
			"handle":  attempt.Address,
			"message": event.Title + ": " + event.Message,
		})
		return err
	}
	// In-app attempts are delivered inline at fan-out and never queued.
	return provider.Rejectedf("channel %q is not queue-delivered", attempt.Channel)
}

func (p *DeliveryProcessor) backoff(tryNo int) time.Duration {
	d := p.cfg.BackoffBase
	for i := 1; i < tryNo; i++ {
		d *= 2
		if d >= p.cfg.BackoffMax {
			return p.cfg.BackoffMax
		}
	}
	if d > p.cfg.BackoffMax {
		return p.cfg.BackoffMax
	}
	return d
}

func (p *DeliveryProcessor) mark(ctx context.Context, id uint, status models.DeliveryStatus, lastError string) {
	if err := p.repo.MarkAttempt(ctx, id, status, lastError); err != nil {
		p.log.Error("mark delivery attempt", "attempt_id", id, "status", status, "error", err)
	}
}
