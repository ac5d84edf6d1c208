package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/database"
	"gorm.io/gorm/clause"
)

// IndexRepository is the enrichment output persistence interface
type IndexRepository interface {
	// Upsert writes or replaces the index row for a version
	Upsert(ctx context.Context, idx *models.DocumentIndex) error

	// GetByVersionID fetches the index row for a version
	GetByVersionID(ctx context.Context, versionID uuid.UUID) (*models.DocumentIndex, error)

	// ListByTenant returns all index rows for a tenant, used by the
	// near duplicate pass
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.DocumentIndex, error)
}

type indexRepository struct {
	db *database.DB
}

// NewIndexRepository creates an index repository
func NewIndexRepository(db *database.DB) IndexRepository {
	return &indexRepository{db: db}
}

func (r *indexRepository) Upsert(ctx context.Context, idx *models.DocumentIndex) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "version_id"}},
			UpdateAll: true,
		}).
		Create(idx).Error; err != nil {
		return fmt.Errorf("failed to upsert index: %w", err)
	}
	return nil
}

func (r *indexRepository) GetByVersionID(ctx context.Context, versionID uuid.UUID) (*models.DocumentIndex, error) {
	var idx models.DocumentIndex
	if err := r.db.WithContext(ctx).
		Where("version_id = ?", versionID).
		First(&idx).Error; err != nil {
		return nil, fmt.Errorf("failed to get index: %w", err)
	}
	return &idx, nil
}

func (r *indexRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.DocumentIndex, error) {
	var rows []*models.DocumentIndex
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}
	return rows, nil
}
