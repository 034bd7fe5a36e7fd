package queue

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(buffer int) *LocalQueue {
	return NewLocalQueue(buffer, slog.New(slog.DiscardHandler))
}

func TestLocalQueue_EnqueueConsume(t *testing.T) {
	q := newTestQueue(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Message, 8)
	go q.Consume(ctx, func(ctx context.Context, msg Message) error {
		received <- msg
		return nil
	})

	require.NoError(t, q.Enqueue(ctx, Message{Kind: MessageKindDocumentJob, RefID: "job-1"}))

	select {
	case msg := <-received:
		assert.Equal(t, MessageKindDocumentJob, msg.Kind)
		assert.Equal(t, "job-1", msg.RefID)
		assert.False(t, msg.EnqueuedAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("message never consumed")
	}
}

func TestLocalQueue_EnqueueAfterDelays(t *testing.T) {
	q := newTestQueue(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan time.Time, 1)
	go q.Consume(ctx, func(ctx context.Context, msg Message) error {
		received <- time.Now()
		return nil
	})

	start := time.Now()
	require.NoError(t, q.EnqueueAfter(ctx, Message{Kind: MessageKindDeliveryAttempt, RefID: "7"}, 100*time.Millisecond))

	select {
	case at := <-received:
		assert.GreaterOrEqual(t, at.Sub(start), 100*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("delayed message never consumed")
	}
}

func TestLocalQueue_EachMessageHandledOnce(t *testing.T) {
	q := newTestQueue(64)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const total = 50
	var mu sync.Mutex
	seen := map[string]int{}
	done := make(chan struct{})

	handler := func(ctx context.Context, msg Message) error {
		mu.Lock()
		seen[msg.RefID]++
		if len(seen) == total {
			close(done)
		}
		mu.Unlock()
		return nil
	}
	for i := 0; i < 4; i++ {
		go q.Consume(ctx, handler)
	}

	for i := 0; i < total; i++ {
		require.NoError(t, q.Enqueue(ctx, Message{Kind: MessageKindDocumentJob, RefID: strconv.Itoa(i)}))
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("not all messages consumed")
	}

	mu.Lock()
	defer mu.Unlock()
	for refID, count := range seen {
		assert.Equal(t, 1, count, "message %s handled %d times", refID, count)
	}
}

func TestLocalQueue_EnqueueRespectsContext(t *testing.T) {
	q := newTestQueue(1)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, Message{RefID: "fills-buffer"}))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	err := q.Enqueue(canceled, Message{RefID: "blocked"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalQueue_HandlerErrorDoesNotStopConsumption(t *testing.T) {
	q := newTestQueue(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 2)
	go q.Consume(ctx, func(ctx context.Context, msg Message) error {
		received <- msg.RefID
		if msg.RefID == "bad" {
			return assert.AnError
		}
		return nil
	})

	require.NoError(t, q.Enqueue(ctx, Message{RefID: "bad"}))
	require.NoError(t, q.Enqueue(ctx, Message{RefID: "good"}))

	for _, want := range []string{"bad", "good"} {
		select {
		case got := <-received:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("message %q never consumed", want)
		}
	}
}
