package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type JobKind string

const (
	JobKindDocumentGeneration JobKind = "document_generation"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether a job in this status is immutable.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is a unit of deferred, trackable work. Status only ever moves
// pending -> processing -> completed|failed; all mutation goes through
// the repository's conditional Transition.
type Job struct {
	ID        string         `gorm:"type:uuid;primaryKey"`
	Kind      JobKind        `gorm:"type:varchar(50);not null;index"`
	Status    JobStatus      `gorm:"type:varchar(20);not null;default:'pending';index"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`
	Result    datatypes.JSON `gorm:"type:jsonb"`
	Error     string         `gorm:"type:text"`
	Attempts  int            `gorm:"not null;default:0"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (Job) TableName() string { return "jobs" }

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.Status == "" {
		j.Status = JobStatusPending
	}
	return nil
}
