package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type StreamsConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	Group    string
	Consumer string
}

// StreamsQueue implements Producer and Consumer on top of Redis Streams
// with a consumer group, for deployments where workers run as separate
// processes.
type StreamsQueue struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	log      *slog.Logger
}

var (
	_ Producer = (*StreamsQueue)(nil)
	_ Consumer = (*StreamsQueue)(nil)
)

func NewStreamsQueue(ctx context.Context, cfg StreamsConfig, log *slog.Logger) (*StreamsQueue, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	if cfg.Stream == "" {
		cfg.Stream = "collablink_tasks"
	}
	if cfg.Group == "" {
		cfg.Group = "collablink_workers"
	}
	if cfg.Consumer == "" {
		cfg.Consumer = "worker-1"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	q := &StreamsQueue{
		client:   client,
		stream:   cfg.Stream,
		group:    cfg.Group,
		consumer: cfg.Consumer,
		log:      log,
	}
	if err := q.ensureGroup(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return q, nil
}

func (q *StreamsQueue) Close() error { return q.client.Close() }

func (q *StreamsQueue) Enqueue(ctx context.Context, message Message) error {
	if message.EnqueuedAt.IsZero() {
		message.EnqueuedAt = time.Now().UTC()
	}
	_, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]any{
			"kind":        string(message.Kind),
			"ref_id":      message.RefID,
			"attempt":     message.Attempt,
			"enqueued_at": message.EnqueuedAt.Format(time.RFC3339Nano),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("enqueue to stream: %w", err)
	}
	return nil
}

// EnqueueAfter parks the message on a timer before adding it to the
// stream. Redis Streams have no native delayed delivery; a scheduled-set
// backend would be the upgrade path if parked messages must survive a
// producer restart.
func (q *StreamsQueue) EnqueueAfter(ctx context.Context, message Message, delay time.Duration) error {
	if delay <= 0 {
		return q.Enqueue(ctx, message)
	}
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			if err := q.Enqueue(context.WithoutCancel(ctx), message); err != nil {
				q.log.Error("delayed enqueue failed",
					slog.String("ref_id", message.RefID),
					slog.String("error", err.Error()))
			}
		}
	}()
	return nil
}

func (q *StreamsQueue) Consume(ctx context.Context, handler func(context.Context, Message) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.group,
			Consumer: q.consumer,
			Streams:  []string{q.stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read from stream: %w", err)
		}

		for _, stream := range streams {
			for _, entry := range stream.Messages {
				message := decodeEntry(entry)
				if err := handler(ctx, message); err != nil {
					q.log.Error("queue handler failed",
						slog.String("kind", string(message.Kind)),
						slog.String("ref_id", message.RefID),
						slog.String("error", err.Error()))
				}
				// Outcomes are persisted on the referenced records, so the
				// entry is acked either way.
				if err := q.client.XAck(ctx, q.stream, q.group, entry.ID).Err(); err != nil && ctx.Err() == nil {
					q.log.Error("ack failed", slog.String("entry", entry.ID), slog.String("error", err.Error()))
				}
			}
		}
	}
}

func (q *StreamsQueue) ensureGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

func decodeEntry(entry redis.XMessage) Message {
	message := Message{}
	if v, ok := entry.Values["kind"].(string); ok {
		message.Kind = MessageKind(v)
	}
	if v, ok := entry.Values["ref_id"].(string); ok {
		message.RefID = v
	}
	if v, ok := entry.Values["attempt"].(string); ok {
		if n, err := strconv.Atoi(v); err == nil {
			message.Attempt = n
		}
	}
	if v, ok := entry.Values["enqueued_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			message.EnqueuedAt = t
		}
	}
	return message
}
