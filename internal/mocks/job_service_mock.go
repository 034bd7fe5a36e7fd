package mocks

import (
	"context"

	"github.com/collablink/collablink/internal/dto"
	"github.com/collablink/collablink/internal/models"
	"github.com/stretchr/testify/mock"
)

type JobServiceMock struct {
	mock.Mock
}

func (m *JobServiceMock) SubmitDocumentJob(ctx context.Context, req *dto.DocumentRequestDTO) (*dto.JobStatusDTO, error) {
	args := m.Called(ctx, req)

	status, _ := args.Get(0).(*dto.JobStatusDTO)
	return status, args.Error(1)
}

func (m *JobServiceMock) GetJob(ctx context.Context, id string) (*dto.JobStatusDTO, error) {
	args := m.Called(ctx, id)

	status, _ := args.Get(0).(*dto.JobStatusDTO)
	return status, args.Error(1)
}

func (m *JobServiceMock) GetArtifact(ctx context.Context, id string) (*models.GeneratedDocument, error) {
	args := m.Called(ctx, id)

	doc, _ := args.Get(0).(*models.GeneratedDocument)
	return doc, args.Error(1)
}
