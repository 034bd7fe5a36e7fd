package job

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/collablink/collablink/common"
	"github.com/collablink/collablink/internal/dto"
	"github.com/collablink/collablink/internal/models"
	"github.com/collablink/collablink/internal/queue"
	"gorm.io/datatypes"
)

type JobService struct {
	repo      JobRepoInterface
	artifacts ArtifactRepoInterface
	producer  queue.Producer
	log       *slog.Logger
}

func NewJobService(repo JobRepoInterface, artifacts ArtifactRepoInterface, producer queue.Producer, log *slog.Logger) *JobService {
	return &JobService{repo: repo, artifacts: artifacts, producer: producer, log: log}
}

var _ JobServiceInterface = (*JobService)(nil)

// SubmitDocumentJob persists a pending job and hands it to the task
// queue, returning as soon as the hand-off completes. No provider call
// happens on this path.
func (s *JobService) SubmitDocumentJob(ctx context.Context, req *dto.DocumentRequestDTO) (*dto.JobStatusDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	if req.Format == "" {
		req.Format = "pdf"
	}
	if len(req.Parameters) == 0 {
		return nil, common.Errf(http.StatusBadRequest, "parameters must not be empty")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, common.Errf(http.StatusBadRequest, "invalid document request")
	}

	job := models.Job{
		Kind:    models.JobKindDocumentGeneration,
		Status:  models.JobStatusPending,
		Payload: datatypes.JSON(payload),
	}
	if err := s.repo.Create(ctx, &job); err != nil {
		s.log.Error("job create failed", slog.String("error", err.Error()))
		return nil, common.Errf(http.StatusInternalServerError, "failed to create job")
	}

	message := queue.Message{
		Kind:  queue.MessageKindDocumentJob,
		RefID: job.ID,
	}
	if err := s.producer.Enqueue(ctx, message); err != nil {
		s.log.Error("enqueue failed", slog.String("job_id", job.ID), slog.String("error", err.Error()))
		if _, ferr := s.repo.Transition(ctx, job.ID, models.JobStatusPending, models.JobStatusFailed,
			map[string]any{"error": "task queue unavailable at submission"}); ferr != nil {
			s.log.Error("failed to mark unqueued job failed",
				slog.String("job_id", job.ID), slog.String("error", ferr.Error()))
		}
		return nil, common.Errf(http.StatusServiceUnavailable, "task queue unavailable")
	}

	s.log.Info("document job submitted",
		slog.String("job_id", job.ID),
		slog.String("document_type", req.DocumentType),
		slog.String("format", req.Format))

	return toStatusDTO(&job), nil
}

func (s *JobService) GetJob(ctx context.Context, id string) (*dto.JobStatusDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	job, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errf(http.StatusNotFound, "job not found")
		}
		return nil, common.Errf(http.StatusInternalServerError, "failed to get job")
	}

	return toStatusDTO(job), nil
}

// GetArtifact resolves the generated document once the job is completed.
// Before that it answers with a conflict so pollers can distinguish
// "not yet" from "never".
func (s *JobService) GetArtifact(ctx context.Context, id string) (*models.GeneratedDocument, error) {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errf(http.StatusNotFound, "job not found")
		}
		return nil, common.Errf(http.StatusInternalServerError, "failed to get job")
	}

	switch job.Status {
	case models.JobStatusCompleted:
	case models.JobStatusFailed:
		return nil, common.Errf(http.StatusConflict, "job failed: %s", job.Error)
	default:
		return nil, common.Errf(http.StatusConflict, "job is %s; artifact not ready", job.Status)
	}

	doc, err := s.artifacts.GetDocumentByJobID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errf(http.StatusNotFound, "artifact record missing for job")
		}
		return nil, common.Errf(http.StatusInternalServerError, "failed to load artifact")
	}
	return doc, nil
}

func toStatusDTO(job *models.Job) *dto.JobStatusDTO {
	out := &dto.JobStatusDTO{
		ID:        job.ID,
		Kind:      string(job.Kind),
		Status:    string(job.Status),
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
	if len(job.Result) > 0 {
		out.Result = json.RawMessage(job.Result)
	}
	return out
}
