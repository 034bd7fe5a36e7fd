package mocks

import (
	"context"
	"time"

	"github.com/collablink/collablink/internal/models"
	"github.com/stretchr/testify/mock"
)

type JobRepoMock struct {
	mock.Mock
}

func (m *JobRepoMock) Create(ctx context.Context, job *models.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *JobRepoMock) Get(ctx context.Context, id string) (*models.Job, error) {
	args := m.Called(ctx, id)

	job, _ := args.Get(0).(*models.Job)
	return job, args.Error(1)
}

func (m *JobRepoMock) Transition(ctx context.Context, id string, from, to models.JobStatus, patch map[string]any) (*models.Job, error) {
	args := m.Called(ctx, id, from, to, patch)

	job, _ := args.Get(0).(*models.Job)
	return job, args.Error(1)
}

func (m *JobRepoMock) ListStuck(ctx context.Context, olderThan time.Duration) ([]models.Job, error) {
	args := m.Called(ctx, olderThan)

	jobs, _ := args.Get(0).([]models.Job)
	return jobs, args.Error(1)
}
