package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/collablink/collablink/common"
	"github.com/collablink/collablink/internal/models"
	"gorm.io/gorm"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// FindActive looks up the active template for a (doc type, category) pair.
// A category-specific template wins; otherwise the type-wide template
// (empty category) is returned.
func (r *TemplateRepository) FindActive(ctx context.Context, docType, category string) (*models.DocumentTemplate, error) {
	var tpl models.DocumentTemplate
	err := r.db.WithContext(ctx).
		Where("doc_type = ? AND category = ? AND is_active = ?", docType, category, true).
		First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) && category != "" {
		err = r.db.WithContext(ctx).
			Where("doc_type = ? AND category = ? AND is_active = ?", docType, "", true).
			First(&tpl).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("find template: %w", err)
	}
	return &tpl, nil
}

func (r *TemplateRepository) CreateDocument(ctx context.Context, doc *models.GeneratedDocument) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("create generated document: %w", err)
	}
	return nil
}

func (r *TemplateRepository) GetDocumentByJobID(ctx context.Context, jobID string) (*models.GeneratedDocument, error) {
	var doc models.GeneratedDocument
	if err := r.db.WithContext(ctx).First(&doc, "job_id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("get generated document: %w", err)
	}
	return &doc, nil
}
