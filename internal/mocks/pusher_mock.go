package mocks

import "github.com/stretchr/testify/mock"

type PusherMock struct {
	mock.Mock
}

func (m *PusherMock) Push(userID uint, data any) bool {
	args := m.Called(userID, data)
	return args.Bool(0)
}
