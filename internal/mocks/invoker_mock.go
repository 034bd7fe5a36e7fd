package mocks

import (
	"context"

	"github.com/collablink/collablink/internal/provider"
	"github.com/stretchr/testify/mock"
)

type InvokerMock struct {
	mock.Mock
}

func (m *InvokerMock) Invoke(ctx context.Context, capability provider.Capability, operation string, params map[string]any) (provider.Result, error) {
	args := m.Called(ctx, capability, operation, params)

	result, _ := args.Get(0).(provider.Result)
	return result, args.Error(1)
}
