package pool

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/collablink/collablink/internal/mocks"
	"github.com/collablink/collablink/internal/models"
	"github.com/collablink/collablink/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type countingHandler struct {
	calls atomic.Int64
}

func (h *countingHandler) Handle(ctx context.Context, msg queue.Message) error {
	h.calls.Add(1)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestWorkerPool_DispatchesByKind(t *testing.T) {
	q := queue.NewLocalQueue(16, testLogger())
	jobs := new(mocks.JobRepoMock)

	docHandler := &countingHandler{}
	deliveryHandler := &countingHandler{}

	p := NewWorkerPool(q, jobs, Config{WorkerCount: 2, JanitorSchedule: "@every 1h"}, testLogger())
	p.RegisterHandler(queue.MessageKindDocumentJob, docHandler)
	p.RegisterHandler(queue.MessageKindDeliveryAttempt, deliveryHandler)
	p.Start()
	defer p.Stop()

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, queue.Message{Kind: queue.MessageKindDocumentJob, RefID: "job-1"}))
	require.NoError(t, q.Enqueue(ctx, queue.Message{Kind: queue.MessageKindDocumentJob, RefID: "job-2"}))
	require.NoError(t, q.Enqueue(ctx, queue.Message{Kind: queue.MessageKindDeliveryAttempt, RefID: "7"}))

	waitFor(t, func() bool {
		return docHandler.calls.Load() == 2 && deliveryHandler.calls.Load() == 1
	})
}

func TestWorkerPool_UnknownKindIsDropped(t *testing.T) {
	q := queue.NewLocalQueue(16, testLogger())
	known := &countingHandler{}

	p := NewWorkerPool(q, new(mocks.JobRepoMock), Config{WorkerCount: 1, JanitorSchedule: "@every 1h"}, testLogger())
	p.RegisterHandler(queue.MessageKindDocumentJob, known)
	p.Start()
	defer p.Stop()

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, queue.Message{Kind: "unknown_kind", RefID: "x"}))
	require.NoError(t, q.Enqueue(ctx, queue.Message{Kind: queue.MessageKindDocumentJob, RefID: "job-1"}))

	waitFor(t, func() bool { return known.calls.Load() == 1 })
}

func TestWorkerPool_RecoverStuckJobs(t *testing.T) {
	jobs := new(mocks.JobRepoMock)
	stuck := []models.Job{
		{ID: "job-1", Status: models.JobStatusProcessing},
		{ID: "job-2", Status: models.JobStatusProcessing},
	}
	jobs.On("ListStuck", mock.Anything, 10*time.Minute).Return(stuck, nil)
	jobs.On("Transition", mock.Anything, "job-1",
		models.JobStatusProcessing, models.JobStatusFailed, mock.Anything).
		Return(&models.Job{ID: "job-1", Status: models.JobStatusFailed}, nil)
	// The second job finished between listing and recovery.
	jobs.On("Transition", mock.Anything, "job-2",
		models.JobStatusProcessing, models.JobStatusFailed, mock.Anything).
		Return(nil, assert.AnError)

	p := NewWorkerPool(queue.NewLocalQueue(1, testLogger()), jobs,
		Config{WorkerCount: 1, JobStuckAfter: 10 * time.Minute, JanitorSchedule: "@every 1h"}, testLogger())
	p.recoverStuckJobs()

	jobs.AssertExpectations(t)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition never met")
}
