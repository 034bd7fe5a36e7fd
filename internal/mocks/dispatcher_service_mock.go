package mocks

import (
	"context"

	"github.com/collablink/collablink/internal/dto"
	"github.com/collablink/collablink/internal/storage/postgres"
	"github.com/stretchr/testify/mock"
)

type DispatcherServiceMock struct {
	mock.Mock
}

func (m *DispatcherServiceMock) Accept(ctx context.Context, event *dto.EventDTO) (*dto.EventAcceptedDTO, error) {
	args := m.Called(ctx, event)

	accepted, _ := args.Get(0).(*dto.EventAcceptedDTO)
	return accepted, args.Error(1)
}

func (m *DispatcherServiceMock) ListInbox(ctx context.Context, userID uint, limit int) ([]dto.InboxItemDTO, error) {
	args := m.Called(ctx, userID, limit)

	items, _ := args.Get(0).([]dto.InboxItemDTO)
	return items, args.Error(1)
}

func (m *DispatcherServiceMock) UpdatePreference(ctx context.Context, userID uint, pref *dto.PreferenceDTO) error {
	args := m.Called(ctx, userID, pref)
	return args.Error(0)
}

func (m *DispatcherServiceMock) Stats(ctx context.Context) ([]postgres.DeliveryStat, error) {
	args := m.Called(ctx)

	stats, _ := args.Get(0).([]postgres.DeliveryStat)
	return stats, args.Error(1)
}
