package postgres

import (
	"context"
	"testing"

	"github.com/collablink/collablink/common"
	"github.com/collablink/collablink/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRepository_FindActive(t *testing.T) {
	db := newTestDB(t)
	repo := NewTemplateRepository(db)
	ctx := context.Background()

	seed := []models.DocumentTemplate{
		{Name: "media kit generic", DocType: "media_kit", Category: "", PromptText: "Generic kit for {{niche}}", FileFormat: "pdf", IsActive: true},
		{Name: "media kit fashion", DocType: "media_kit", Category: "fashion", PromptText: "Fashion kit for {{niche}}", FileFormat: "pdf", IsActive: true},
		{Name: "retired", DocType: "media_kit", Category: "beauty", PromptText: "old", FileFormat: "pdf", IsActive: false},
	}
	for i := range seed {
		require.NoError(t, db.Create(&seed[i]).Error)
	}

	t.Run("category-specific template wins", func(t *testing.T) {
		tpl, err := repo.FindActive(ctx, "media_kit", "fashion")
		require.NoError(t, err)
		assert.Equal(t, "media kit fashion", tpl.Name)
	})

	t.Run("unknown category falls back to type-wide template", func(t *testing.T) {
		tpl, err := repo.FindActive(ctx, "media_kit", "gaming")
		require.NoError(t, err)
		assert.Equal(t, "media kit generic", tpl.Name)
	})

	t.Run("inactive templates are invisible", func(t *testing.T) {
		tpl, err := repo.FindActive(ctx, "media_kit", "beauty")
		require.NoError(t, err)
		assert.Equal(t, "media kit generic", tpl.Name)
	})

	t.Run("no template at all", func(t *testing.T) {
		_, err := repo.FindActive(ctx, "pitch_deck", "fashion")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestTemplateRepository_GeneratedDocuments(t *testing.T) {
	repo := NewTemplateRepository(newTestDB(t))
	ctx := context.Background()

	doc := &models.GeneratedDocument{
		JobID:    "job-1",
		UserID:   7,
		FilePath: "storage/documents/job-1.pdf",
		Format:   "pdf",
	}
	require.NoError(t, repo.CreateDocument(ctx, doc))

	got, err := repo.GetDocumentByJobID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, doc.FilePath, got.FilePath)

	_, err = repo.GetDocumentByJobID(ctx, "job-2")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
