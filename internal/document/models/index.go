package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentIndex holds the enrichment output for one version: the
// extracted text, a field bag for structured inputs, and derived
// statistics. One row per version, upserted by the enrichment worker.
type DocumentIndex struct {
	VersionID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"version_id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`

	Text string `gorm:"type:text" json:"-"`

	// Flattened key/value pairs extracted from structured formats
	// (JSON uploads); empty for binary formats.
	Fields map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"fields,omitempty"`

	// SHA-256 of the normalized extracted text, used by the near
	// duplicate pass to skip re-shingling unchanged text.
	TextHash string `gorm:"type:varchar(64);index" json:"text_hash"`

	TokenCount int `gorm:"not null;default:0" json:"token_count"`
	PageCount  int `gorm:"not null;default:0" json:"page_count"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName specifies the table name
func (DocumentIndex) TableName() string {
	return "document_indexes"
}
