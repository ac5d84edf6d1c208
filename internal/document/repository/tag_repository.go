package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/database"
	"gorm.io/gorm/clause"
)

// TagRepository is the tag persistence interface
type TagRepository interface {
	// GetOrCreate returns the tenant's tag with the given name,
	// creating it if absent
	GetOrCreate(ctx context.Context, tenantID uuid.UUID, name string) (*models.Tag, error)

	// Attach binds a tag to a document; re-attaching is a no-op
	Attach(ctx context.Context, docID, tagID uuid.UUID) error

	// ListByDocument lists the tags on a document
	ListByDocument(ctx context.Context, docID uuid.UUID) ([]*models.Tag, error)
}

type tagRepository struct {
	db *database.DB
}

// NewTagRepository creates a tag repository
func NewTagRepository(db *database.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) GetOrCreate(ctx context.Context, tenantID uuid.UUID, name string) (*models.Tag, error) {
	tag := &models.Tag{TenantID: tenantID, Name: name}
	if err := tag.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(tag).Error; err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	// The insert is skipped on conflict, so read the row back either way.
	var out models.Tag
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND name = ?", tenantID, name).
		First(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &out, nil
}

func (r *tagRepository) Attach(ctx context.Context, docID, tagID uuid.UUID) error {
	link := &models.DocumentTag{DocumentID: docID, TagID: tagID}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(link).Error; err != nil {
		return fmt.Errorf("failed to attach tag: %w", err)
	}
	return nil
}

func (r *tagRepository) ListByDocument(ctx context.Context, docID uuid.UUID) ([]*models.Tag, error) {
	var tags []*models.Tag
	if err := r.db.WithContext(ctx).
		Joins("JOIN document_tags ON document_tags.tag_id = tags.id").
		Where("document_tags.document_id = ?", docID).
		Order("tags.name ASC").
		Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}
