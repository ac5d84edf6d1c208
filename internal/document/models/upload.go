package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/document/types"
)

// Upload is one upload session. The client PUTs bytes to a presigned
// quarantine URL; finalize verifies the bytes and promotes them into a
// DocumentVersion.
type Upload struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	OwnerID  uuid.UUID `gorm:"type:uuid;not null" json:"owner_id"`

	// Target identifiers, allocated when the session is requested so
	// the client learns them without a second round trip. DocumentID
	// may name an existing document (new-version upload) or one that
	// finalize will create.
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	VersionID  uuid.UUID `gorm:"type:uuid;not null" json:"version_id"`

	Filename      string `gorm:"type:varchar(512);not null" json:"filename"`
	MimeType      string `gorm:"type:varchar(255);not null" json:"mime_type"`
	SizeBytes     int64  `gorm:"not null" json:"size_bytes"`
	QuarantineKey string `gorm:"type:varchar(500);not null" json:"quarantine_key"`

	// Optional client-declared digest; empty means the client did not
	// declare one and finalize trusts its own computation.
	DeclaredSHA256 string `gorm:"type:varchar(64)" json:"declared_sha256,omitempty"`

	Status       string `gorm:"type:varchar(50);not null;default:'presigned';index" json:"status"`
	ErrorMessage string `gorm:"type:text" json:"error_message,omitempty"`

	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName specifies the table name
func (Upload) TableName() string {
	return "uploads"
}

// Validate checks the upload fields
func (u *Upload) Validate() error {
	if u.TenantID == uuid.Nil {
		return ErrInvalidTenantID
	}

	if u.OwnerID == uuid.Nil {
		return ErrInvalidOwnerID
	}

	if u.DocumentID == uuid.Nil {
		return ErrInvalidDocumentID
	}

	if u.VersionID == uuid.Nil {
		return ErrInvalidVersionID
	}

	if u.Filename == "" {
		return ErrInvalidFilename
	}

	if u.MimeType == "" {
		return ErrInvalidMimeType
	}

	if u.SizeBytes <= 0 {
		return ErrInvalidSizeBytes
	}

	if u.QuarantineKey == "" {
		return ErrInvalidStorageKey
	}

	if u.DeclaredSHA256 != "" && len(u.DeclaredSHA256) != 64 {
		return ErrInvalidSHA256
	}

	if !types.UploadStatus(u.Status).Valid() {
		return ErrInvalidUploadStatus
	}

	return nil
}
