package queue

import (
	"context"
	"time"
)

type MessageKind string

const (
	MessageKindDocumentJob     MessageKind = "document_job"
	MessageKindDeliveryAttempt MessageKind = "delivery_attempt"
)

// Message is the unit handed to the task queue. RefID points at the
// durable record (job id or delivery attempt id) that carries the actual
// work parameters; the queue never holds authoritative state.
type Message struct {
	Kind       MessageKind `json:"kind"`
	RefID      string      `json:"ref_id"`
	Attempt    int         `json:"attempt"`
	EnqueuedAt time.Time   `json:"enqueued_at"`
}

// Producer submits deferred work. Enqueue must return as soon as the
// message is handed off, never after the work ran.
type Producer interface {
	Enqueue(ctx context.Context, message Message) error
	// EnqueueAfter schedules the message to become consumable after the
	// delay; used for backoff re-enqueues.
	EnqueueAfter(ctx context.Context, message Message, delay time.Duration) error
}

// Consumer runs the handler for each message until the context ends.
// Retry policy belongs to the handlers, which persist outcomes on the
// records the messages reference.
type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, Message) error) error
}
