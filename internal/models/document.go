package models

import (
	"time"

	"gorm.io/datatypes"
)

// DocumentTemplate is a stored prompt looked up by (doc type, category).
// PromptText uses {{param}} placeholders so it doubles as the substitution
// template when AI generation is unavailable.
type DocumentTemplate struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	Name       string    `gorm:"type:varchar(255);not null"`
	DocType    string    `gorm:"type:varchar(50);not null;index:idx_tpl_type_category"`
	Category   string    `gorm:"type:varchar(50);index:idx_tpl_type_category"`
	PromptText string    `gorm:"type:text;not null"`
	FileFormat string    `gorm:"type:varchar(20);not null;default:'pdf'"`
	IsActive   bool      `gorm:"not null;default:true"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (DocumentTemplate) TableName() string { return "document_templates" }

// GeneratedDocument links a completed generation job to its artifact on disk.
type GeneratedDocument struct {
	ID          uint           `gorm:"primaryKey;autoIncrement"`
	JobID       string         `gorm:"type:uuid;not null;uniqueIndex"`
	UserID      uint           `gorm:"not null;index"`
	TemplateID  *uint          `gorm:"index"`
	DocType     string         `gorm:"type:varchar(50);not null"`
	Category    string         `gorm:"type:varchar(50)"`
	Parameters  datatypes.JSON `gorm:"type:jsonb"`
	FilePath    string         `gorm:"type:varchar(255);not null"`
	Format      string         `gorm:"type:varchar(20);not null"`
	AIGenerated bool           `gorm:"not null;default:false"`
	GeneratedAt time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (GeneratedDocument) TableName() string { return "generated_documents" }
