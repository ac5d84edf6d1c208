package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/database"
)

// VersionRepository is the document version persistence interface
type VersionRepository interface {
	// GetByID fetches a version by id
	GetByID(ctx context.Context, id uuid.UUID) (*models.DocumentVersion, error)

	// ListByDocumentID lists all versions of a document, newest first
	ListByDocumentID(ctx context.Context, docID uuid.UUID) ([]*models.DocumentVersion, error)

	// ListBySHA256 finds all versions in a tenant carrying the digest
	ListBySHA256(ctx context.Context, tenantID uuid.UUID, sha256 string) ([]*models.DocumentVersion, error)

	// Sample returns up to limit versions picked at random, for the
	// hash audit
	Sample(ctx context.Context, tenantID uuid.UUID, limit int) ([]*models.DocumentVersion, error)
}

type versionRepository struct {
	db *database.DB
}

// NewVersionRepository creates a version repository
func NewVersionRepository(db *database.DB) VersionRepository {
	return &versionRepository{db: db}
}

func (r *versionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.DocumentVersion, error) {
	var v models.DocumentVersion
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, fmt.Errorf("failed to get version: %w", err)
	}
	return &v, nil
}

func (r *versionRepository) ListByDocumentID(ctx context.Context, docID uuid.UUID) ([]*models.DocumentVersion, error) {
	var versions []*models.DocumentVersion
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", docID).
		Order("version_no DESC").
		Find(&versions).Error; err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	return versions, nil
}

func (r *versionRepository) ListBySHA256(ctx context.Context, tenantID uuid.UUID, sha256 string) ([]*models.DocumentVersion, error) {
	var versions []*models.DocumentVersion
	if err := r.db.WithContext(ctx).
		Joins("JOIN documents ON documents.id = document_versions.document_id").
		Where("documents.tenant_id = ? AND document_versions.sha256 = ?", tenantID, sha256).
		Where("documents.deleted_at IS NULL").
		Where("documents.status NOT IN ?", []string{"archived", "deleted"}).
		Find(&versions).Error; err != nil {
		return nil, fmt.Errorf("failed to list versions by digest: %w", err)
	}
	return versions, nil
}

func (r *versionRepository) Sample(ctx context.Context, tenantID uuid.UUID, limit int) ([]*models.DocumentVersion, error) {
	var versions []*models.DocumentVersion
	query := r.db.WithContext(ctx).Model(&models.DocumentVersion{}).
		Joins("JOIN documents ON documents.id = document_versions.document_id").
		Where("documents.deleted_at IS NULL")
	if tenantID != uuid.Nil {
		query = query.Where("documents.tenant_id = ?", tenantID)
	}
	if err := query.
		Order("RANDOM()").
		Limit(limit).
		Find(&versions).Error; err != nil {
		return nil, fmt.Errorf("failed to sample versions: %w", err)
	}
	return versions, nil
}
