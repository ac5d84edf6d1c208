package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/document/types"
)

// DuplicateGroup collects versions that carry the same content. Exact
// groups key on the SHA-256 digest; near groups are created by the
// similarity pass over extracted text.
type DuplicateGroup struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index:idx_dupgroup_tenant_hash" json:"tenant_id"`

	Reason string `gorm:"type:varchar(50);not null" json:"reason"`

	// Populated for exact groups only; at most one open exact group
	// per (tenant, digest).
	SHA256 string `gorm:"type:varchar(64);index:idx_dupgroup_tenant_hash" json:"sha256,omitempty"`

	// The version a reviewer marked as the one to keep; nil until
	// keep-best is chosen.
	KeepVersionID *uuid.UUID `gorm:"type:uuid" json:"keep_version_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Members []DuplicateGroupVersion `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}

// TableName specifies the table name
func (DuplicateGroup) TableName() string {
	return "duplicate_groups"
}

// Validate checks the group fields
func (g *DuplicateGroup) Validate() error {
	if g.TenantID == uuid.Nil {
		return ErrInvalidTenantID
	}

	reason := types.GroupReason(g.Reason)
	if !reason.Valid() {
		return ErrInvalidGroupReason
	}

	if reason == types.GroupReasonExact && len(g.SHA256) != 64 {
		return ErrInvalidSHA256
	}

	return nil
}

// DuplicateGroupVersion is the membership row binding a version (and
// its owning document) to a duplicate group.
type DuplicateGroupVersion struct {
	GroupID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"group_id"`
	VersionID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"version_id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`

	// Similarity score in [0,1]; 1 for exact members.
	Similarity float64 `gorm:"not null;default:1" json:"similarity"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName specifies the table name
func (DuplicateGroupVersion) TableName() string {
	return "duplicate_group_versions"
}
