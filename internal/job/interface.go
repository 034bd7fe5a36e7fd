package job

import (
	"context"
	"time"

	"github.com/collablink/collablink/internal/dto"
	"github.com/collablink/collablink/internal/models"
	"github.com/gin-gonic/gin"
)

// JobRepoInterface is the durable job store. Transition is the only way
// status changes; its conditional check is what serializes competing
// workers.
type JobRepoInterface interface {
	Create(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, id string) (*models.Job, error)
	Transition(ctx context.Context, id string, from, to models.JobStatus, patch map[string]any) (*models.Job, error)
	ListStuck(ctx context.Context, olderThan time.Duration) ([]models.Job, error)
}

// ArtifactRepoInterface resolves a completed job to its generated document.
type ArtifactRepoInterface interface {
	GetDocumentByJobID(ctx context.Context, jobID string) (*models.GeneratedDocument, error)
}

type JobServiceInterface interface {
	SubmitDocumentJob(ctx context.Context, req *dto.DocumentRequestDTO) (*dto.JobStatusDTO, error)
	GetJob(ctx context.Context, id string) (*dto.JobStatusDTO, error)
	GetArtifact(ctx context.Context, id string) (*models.GeneratedDocument, error)
}

type JobHandlerInterface interface {
	Submit(c *gin.Context)
	Get(c *gin.Context)
	Artifact(c *gin.Context)
}
