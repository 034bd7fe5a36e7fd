package queue

import (
	"context"
	"log/slog"
	"time"
)

// LocalQueue is the in-process backend used when Redis is not configured.
// Messages live in a buffered channel; delayed messages are parked on a
// timer goroutine until due.
type LocalQueue struct {
	ch  chan Message
	log *slog.Logger
}

var (
	_ Producer = (*LocalQueue)(nil)
	_ Consumer = (*LocalQueue)(nil)
)

func NewLocalQueue(bufferSize int, log *slog.Logger) *LocalQueue {
	if bufferSize <= 0 {
		bufferSize = 512
	}
	return &LocalQueue{
		ch:  make(chan Message, bufferSize),
		log: log,
	}
}

func (q *LocalQueue) Enqueue(ctx context.Context, message Message) error {
	if message.EnqueuedAt.IsZero() {
		message.EnqueuedAt = time.Now().UTC()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.ch <- message:
		return nil
	}
}

func (q *LocalQueue) EnqueueAfter(ctx context.Context, message Message, delay time.Duration) error {
	if delay <= 0 {
		return q.Enqueue(ctx, message)
	}
	if message.EnqueuedAt.IsZero() {
		message.EnqueuedAt = time.Now().UTC()
	}
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			select {
			case q.ch <- message:
			case <-ctx.Done():
			}
		}
	}()
	return nil
}

// Consume is safe to run from several goroutines sharing the queue; each
// message is handed to exactly one of them.
func (q *LocalQueue) Consume(ctx context.Context, handler func(context.Context, Message) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case message := <-q.ch:
			if err := handler(ctx, message); err != nil {
				q.log.Error("queue handler failed",
					slog.String("kind", string(message.Kind)),
					slog.String("ref_id", message.RefID),
					slog.String("error", err.Error()))
			}
		}
	}
}
