package mocks

import (
	"context"
	"time"

	"github.com/collablink/collablink/internal/queue"
	"github.com/stretchr/testify/mock"
)

type ProducerMock struct {
	mock.Mock
}

func (m *ProducerMock) Enqueue(ctx context.Context, message queue.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *ProducerMock) EnqueueAfter(ctx context.Context, message queue.Message, delay time.Duration) error {
	args := m.Called(ctx, message, delay)
	return args.Error(0)
}
