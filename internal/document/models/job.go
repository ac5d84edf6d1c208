package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/document/types"
)

// EnrichmentJob is one unit of post-ingest work (text extraction,
// thumbnail, preview) for a version. The unique index makes enqueue
// idempotent per (document, version, job type).
type EnrichmentJob struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_job_doc_ver_type" json:"document_id"`
	VersionID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_job_doc_ver_type" json:"version_id"`

	JobType string `gorm:"type:varchar(50);not null;uniqueIndex:uq_job_doc_ver_type" json:"job_type"`
	Status  string `gorm:"type:varchar(50);not null;default:'pending';index" json:"status"`

	Attempts int    `gorm:"not null;default:0" json:"attempts"`
	Error    string `gorm:"type:text" json:"error,omitempty"`

	StartedAt  *time.Time `gorm:"type:timestamptz" json:"started_at,omitempty"`
	FinishedAt *time.Time `gorm:"type:timestamptz" json:"finished_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName specifies the table name
func (EnrichmentJob) TableName() string {
	return "enrichment_jobs"
}

// Validate checks the job fields
func (j *EnrichmentJob) Validate() error {
	if j.TenantID == uuid.Nil {
		return ErrInvalidTenantID
	}

	if j.DocumentID == uuid.Nil {
		return ErrInvalidDocumentID
	}

	if j.VersionID == uuid.Nil {
		return ErrInvalidVersionID
	}

	if !types.JobType(j.JobType).Valid() {
		return ErrInvalidJobType
	}

	if !types.JobStatus(j.Status).Valid() {
		return ErrInvalidJobStatus
	}

	return nil
}
