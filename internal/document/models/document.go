package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/document/types"
)

// Document is the logical object a tenant works with. Binary content
// lives in DocumentVersion rows; Document tracks the current version
// and the lifecycle status.
type Document struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index:idx_doc_tenant_status" json:"tenant_id"`
	OwnerID  uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`

	// Nil until the first upload finalizes successfully.
	CurrentVersionID *uuid.UUID `gorm:"type:uuid" json:"current_version_id"`

	Title   string `gorm:"type:varchar(512);not null" json:"title"`
	DocType string `gorm:"type:varchar(50);not null;index" json:"doc_type"`

	Status       string `gorm:"type:varchar(50);not null;default:'inbox';index:idx_doc_tenant_status" json:"status"`
	ErrorMessage string `gorm:"type:text" json:"error_message,omitempty"`

	ArchivedAt *time.Time `gorm:"type:timestamptz" json:"archived_at,omitempty"`
	DeletedAt  *time.Time `gorm:"type:timestamptz;index" json:"deleted_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Versions []DocumentVersion `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name
func (Document) TableName() string {
	return "documents"
}

// Validate checks the document fields
func (d *Document) Validate() error {
	if d.TenantID == uuid.Nil {
		return ErrInvalidTenantID
	}

	if d.OwnerID == uuid.Nil {
		return ErrInvalidOwnerID
	}

	if d.Title == "" {
		return ErrInvalidTitle
	}

	if !types.DocType(d.DocType).Valid() {
		return ErrInvalidDocType
	}

	if !types.DocumentStatus(d.Status).Valid() {
		return ErrInvalidDocumentStatus
	}

	return nil
}
