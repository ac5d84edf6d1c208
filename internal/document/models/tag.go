package models

import (
	"time"

	"github.com/google/uuid"
)

// Tag is a tenant-scoped label. Names are unique per tenant.
type Tag struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_tag_tenant_name" json:"tenant_id"`
	Name     string    `gorm:"type:varchar(100);not null;uniqueIndex:uq_tag_tenant_name" json:"name"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName specifies the table name
func (Tag) TableName() string {
	return "tags"
}

// Validate checks the tag fields
func (t *Tag) Validate() error {
	if t.TenantID == uuid.Nil {
		return ErrInvalidTenantID
	}

	if t.Name == "" {
		return ErrInvalidTagName
	}

	return nil
}

// DocumentTag binds a tag to a document.
type DocumentTag struct {
	DocumentID uuid.UUID `gorm:"type:uuid;primaryKey" json:"document_id"`
	TagID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"tag_id"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName specifies the table name
func (DocumentTag) TableName() string {
	return "document_tags"
}
