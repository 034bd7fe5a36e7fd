package mocks

import (
	"context"

	"github.com/collablink/collablink/internal/models"
	"github.com/stretchr/testify/mock"
)

type TemplateStoreMock struct {
	mock.Mock
}

func (m *TemplateStoreMock) FindActive(ctx context.Context, docType, category string) (*models.DocumentTemplate, error) {
	args := m.Called(ctx, docType, category)

	tpl, _ := args.Get(0).(*models.DocumentTemplate)
	return tpl, args.Error(1)
}

func (m *TemplateStoreMock) CreateDocument(ctx context.Context, doc *models.GeneratedDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}
