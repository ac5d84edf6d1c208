package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentVersion is one immutable revision of a document's content.
// Rows are insert-only: once written, storage key, size and digest
// never change.
type DocumentVersion struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_version_doc_no" json:"document_id"`
	VersionNo  int       `gorm:"not null;uniqueIndex:uq_version_doc_no" json:"version_no"`

	StorageKey string `gorm:"type:varchar(500);not null" json:"storage_key"`
	MimeType   string `gorm:"type:varchar(255);not null" json:"mime_type"`
	SizeBytes  int64  `gorm:"not null" json:"size_bytes"`

	// Hex-encoded SHA-256 of the stored bytes, computed server-side
	// during finalize.
	SHA256 string `gorm:"type:varchar(64);not null;index" json:"sha256"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName specifies the table name
func (DocumentVersion) TableName() string {
	return "document_versions"
}

// Validate checks the version fields
func (v *DocumentVersion) Validate() error {
	if v.DocumentID == uuid.Nil {
		return ErrInvalidDocumentID
	}

	if v.VersionNo <= 0 {
		return ErrInvalidVersionNo
	}

	if v.StorageKey == "" {
		return ErrInvalidStorageKey
	}

	if v.SizeBytes <= 0 {
		return ErrInvalidSizeBytes
	}

	if len(v.SHA256) != 64 {
		return ErrInvalidSHA256
	}

	return nil
}
