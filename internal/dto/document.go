package dto

import (
	"encoding/json"
	"time"
)

// DocumentRequestDTO is both the submission body and the job payload
// persisted for the worker.
type DocumentRequestDTO struct {
	UserID       uint              `json:"user_id" validate:"required"`
	DocumentType string            `json:"document_type" validate:"required"`
	Category     string            `json:"category"`
	Format       string            `json:"format" validate:"omitempty,oneof=pdf png txt html"`
	Parameters   map[string]string `json:"parameters" validate:"required"`
}

// JobStatusDTO is the polling contract: terminal records always serialize
// identically.
type JobStatusDTO struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Status    string          `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// DocumentResultDTO is the result payload stored on a completed
// generation job.
type DocumentResultDTO struct {
	ArtifactPath string `json:"artifact_path"`
	Format       string `json:"format"`
	AIGenerated  bool   `json:"ai_generated"`
	TemplateID   *uint  `json:"template_id,omitempty"`
}
