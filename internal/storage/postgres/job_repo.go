package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/collablink/collablink/common"
	"github.com/collablink/collablink/internal/models"
	"gorm.io/gorm"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job record. The job id is assigned on insert and
// immutable afterwards.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (r *JobRepository) Get(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// Transition moves a job from one status to another with a conditional
// UPDATE. The WHERE clause on the current status acts as a compare-and-swap:
// when two workers race to claim the same job, exactly one UPDATE matches a
// row and the loser gets common.ErrConflict. The optional patch is applied
// in the same statement so result and error land atomically with the
// status change.
func (r *JobRepository) Transition(ctx context.Context, id string, from, to models.JobStatus, patch map[string]any) (*models.Job, error) {
	// Terminal records are immutable; no transition starts from one.
	if from.Terminal() {
		return nil, fmt.Errorf("%w: job %s is already %s", common.ErrConflict, id, from)
	}

	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range patch {
		updates[k] = v
	}

	tx := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if tx.Error != nil {
		return nil, fmt.Errorf("transition job %s: %w", id, tx.Error)
	}
	if tx.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("transition job %s: %w", id, err)
		}
		if count == 0 {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: job %s is not %q", common.ErrConflict, id, from)
	}

	return r.Get(ctx, id)
}

// ListStuck returns jobs sitting in processing longer than the given
// duration, for janitor recovery after a worker crash.
func (r *JobRepository) ListStuck(ctx context.Context, olderThan time.Duration) ([]models.Job, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	var jobs []models.Job
	if err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", models.JobStatusProcessing, cutoff).
		Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list stuck jobs: %w", err)
	}
	return jobs, nil
}
