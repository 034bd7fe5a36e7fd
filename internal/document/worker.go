package document

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/collablink/collablink/common"
	"github.com/collablink/collablink/internal/dto"
	"github.com/collablink/collablink/internal/job"
	"github.com/collablink/collablink/internal/models"
	"github.com/collablink/collablink/internal/provider"
	"github.com/collablink/collablink/internal/queue"
	"gorm.io/datatypes"
)

// TemplateStore resolves stored templates and persists artifact records.
type TemplateStore interface {
	FindActive(ctx context.Context, docType, category string) (*models.DocumentTemplate, error)
	CreateDocument(ctx context.Context, doc *models.GeneratedDocument) error
}

type WorkerConfig struct {
	// TemplateRequired fails jobs with no matching stored template instead
	// of falling back to the built-in substitution template.
	TemplateRequired bool
}

// Worker consumes document generation messages. It owns the referenced
// job from the moment its pending->processing claim succeeds until the
// job reaches a terminal state; a lost claim means another worker owns it
// and this one walks away.
type Worker struct {
	jobs      job.JobRepoInterface
	templates TemplateStore
	gateway   provider.Invoker
	cfg       WorkerConfig
	log       *slog.Logger
}

func NewWorker(jobs job.JobRepoInterface, templates TemplateStore, gateway provider.Invoker, cfg WorkerConfig, log *slog.Logger) *Worker {
	return &Worker{jobs: jobs, templates: templates, gateway: gateway, cfg: cfg, log: log}
}

func (w *Worker) Handle(ctx context.Context, msg queue.Message) error {
	jobRec, err := w.jobs.Get(ctx, msg.RefID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			w.log.Warn("document message references unknown job", slog.String("job_id", msg.RefID))
			return nil
		}
		return err
	}
	if jobRec.Status.Terminal() {
		return nil
	}

	claimed, err := w.jobs.Transition(ctx, jobRec.ID, models.JobStatusPending, models.JobStatusProcessing,
		map[string]any{"attempts": jobRec.Attempts + 1})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			w.log.Debug("job already claimed", slog.String("job_id", jobRec.ID))
			return nil
		}
		return err
	}

	var req dto.DocumentRequestDTO
	if err := json.Unmarshal(claimed.Payload, &req); err != nil {
		w.fail(ctx, claimed.ID, "invalid job payload: "+err.Error())
		return nil
	}

	w.process(ctx, claimed, &req)
	return nil
}

func (w *Worker) process(ctx context.Context, jobRec *models.Job, req *dto.DocumentRequestDTO) {
	tpl, err := w.resolveTemplate(ctx, req)
	if err != nil {
		w.fail(ctx, jobRec.ID, err.Error())
		return
	}

	substituted, err := w.substitute(tpl, req)
	if err != nil {
		w.fail(ctx, jobRec.ID, err.Error())
		return
	}

	text, aiGenerated := w.generateText(ctx, jobRec.ID, substituted)

	res, err := w.gateway.Invoke(ctx, provider.CapabilityFileRender, "render", map[string]any{
		"content": text,
		"format":  req.Format,
		"name":    "doc_" + jobRec.ID,
	})
	if err != nil {
		w.fail(ctx, jobRec.ID, "render artifact: "+err.Error())
		return
	}
	path := res.String("path")

	var tplID *uint
	if tpl != nil {
		tplID = &tpl.ID
	}
	paramsJSON, _ := json.Marshal(req.Parameters)
	doc := models.GeneratedDocument{
		JobID:       jobRec.ID,
		UserID:      req.UserID,
		TemplateID:  tplID,
		DocType:     req.DocumentType,
		Category:    req.Category,
		Parameters:  datatypes.JSON(paramsJSON),
		FilePath:    path,
		Format:      req.Format,
		AIGenerated: aiGenerated,
		GeneratedAt: time.Now().UTC(),
	}
	if err := w.templates.CreateDocument(ctx, &doc); err != nil {
		w.fail(ctx, jobRec.ID, "persist artifact record: "+err.Error())
		return
	}

	result, _ := json.Marshal(dto.DocumentResultDTO{
		ArtifactPath: path,
		Format:       req.Format,
		AIGenerated:  aiGenerated,
		TemplateID:   tplID,
	})
	if _, err := w.jobs.Transition(ctx, jobRec.ID, models.JobStatusProcessing, models.JobStatusCompleted,
		map[string]any{"result": datatypes.JSON(result), "error": ""}); err != nil {
		w.log.Error("failed to complete job",
			slog.String("job_id", jobRec.ID),
			slog.String("error", err.Error()))
		return
	}

	w.log.Info("document generated",
		slog.String("job_id", jobRec.ID),
		slog.String("path", path),
		slog.Bool("ai_generated", aiGenerated))
}

func (w *Worker) resolveTemplate(ctx context.Context, req *dto.DocumentRequestDTO) (*models.DocumentTemplate, error) {
	tpl, err := w.templates.FindActive(ctx, req.DocumentType, req.Category)
	if err == nil {
		return tpl, nil
	}
	if errors.Is(err, common.ErrNotFound) {
		if w.cfg.TemplateRequired {
			return nil, errors.New("no active template for " + req.DocumentType)
		}
		return nil, nil
	}
	return nil, errors.New("template lookup failed: " + err.Error())
}

// substitute produces the parameter-substituted text. With a stored
// template this is also the generation prompt; without one the built-in
// fallback document is used.
func (w *Worker) substitute(tpl *models.DocumentTemplate, req *dto.DocumentRequestDTO) (string, error) {
	if tpl == nil {
		return fallbackText(req.DocumentType, req.Category, req.Parameters), nil
	}
	return renderTemplate(tpl.PromptText, req.Parameters)
}

// generateText asks the text generation capability to expand the
// substituted prompt. When the provider is unavailable or throttled the
// substituted text itself becomes the document body; only a rejection of
// our own input would have failed the job, and rejections here degrade
// the same way because the substituted text is always usable.
func (w *Worker) generateText(ctx context.Context, jobID, substituted string) (string, bool) {
	res, err := w.gateway.Invoke(ctx, provider.CapabilityTextGeneration, "generate", map[string]any{
		"prompt": substituted,
	})
	if err != nil {
		w.log.Warn("text generation degraded to substitution",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		return substituted, false
	}
	text := res.String("text")
	if text == "" {
		return substituted, false
	}
	return text, true
}

func (w *Worker) fail(ctx context.Context, jobID, message string) {
	if _, err := w.jobs.Transition(ctx, jobID, models.JobStatusProcessing, models.JobStatusFailed,
		map[string]any{"error": message}); err != nil {
		w.log.Error("failed to mark job failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
	}
	w.log.Warn("document job failed",
		slog.String("job_id", jobID),
		slog.String("reason", message))
}
