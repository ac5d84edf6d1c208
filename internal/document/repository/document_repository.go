package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	doctypes "github.com/lk2023060901/doc-hub-backend/internal/document/types"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentFilter narrows document listing.
type DocumentFilter struct {
	Status  doctypes.DocumentStatus
	DocType doctypes.DocType
	TagID   uuid.UUID
}

// DocumentRepository is the document persistence interface
type DocumentRepository interface {
	// Create creates a document
	Create(ctx context.Context, doc *models.Document) error

	// GetByID fetches a document by id within a tenant
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Document, error)

	// List returns a page of documents for a tenant
	List(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter, page, size int) ([]*models.Document, int64, error)

	// CreateWithVersion creates the document together with its first
	// version and points current_version_id at it, in one transaction
	CreateWithVersion(ctx context.Context, doc *models.Document, version *models.DocumentVersion) error

	// AppendVersion inserts a new version for an existing document and
	// promotes it to current, in one transaction
	AppendVersion(ctx context.Context, docID uuid.UUID, version *models.DocumentVersion) error

	// SetCurrentVersion repoints current_version_id
	SetCurrentVersion(ctx context.Context, id, versionID uuid.UUID) error

	// TransitionStatus moves the document from one status to another,
	// guarded by the current value. Returns false when another writer
	// got there first.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to doctypes.DocumentStatus, extra map[string]interface{}) (bool, error)

	// SetError records a failure message without touching the status
	SetError(ctx context.Context, id uuid.UUID, msg string) error
}

type documentRepository struct {
	db *database.DB
}

// NewDocumentRepository creates a document repository
func NewDocumentRepository(db *database.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *models.Document) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&doc).Error; err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

func (r *documentRepository) List(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter, page, size int) ([]*models.Document, int64, error) {
	var docs []*models.Document
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Document{}).
		Where("tenant_id = ?", tenantID).
		Where("deleted_at IS NULL")

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DocType != "" {
		query = query.Where("doc_type = ?", filter.DocType)
	}
	if filter.TagID != uuid.Nil {
		query = query.Where(
			"id IN (SELECT document_id FROM document_tags WHERE tag_id = ?)",
			filter.TagID,
		)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	if err := query.
		Order("created_at DESC").
		Scopes(database.Paginate(page, size)).
		Find(&docs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}

	return docs, total, nil
}

func (r *documentRepository) CreateWithVersion(ctx context.Context, doc *models.Document, version *models.DocumentVersion) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return r.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return fmt.Errorf("failed to create document: %w", err)
		}

		version.DocumentID = doc.ID
		if err := version.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		if err := tx.Create(version).Error; err != nil {
			return fmt.Errorf("failed to create version: %w", err)
		}

		if err := tx.Model(&models.Document{}).
			Where("id = ?", doc.ID).
			Updates(map[string]interface{}{
				"current_version_id": version.ID,
				"updated_at":         time.Now(),
			}).Error; err != nil {
			return fmt.Errorf("failed to set current version: %w", err)
		}

		doc.CurrentVersionID = &version.ID
		return nil
	})
}

func (r *documentRepository) AppendVersion(ctx context.Context, docID uuid.UUID, version *models.DocumentVersion) error {
	version.DocumentID = docID
	if err := version.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return r.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		// Lock the document row so two concurrent finalizes cannot
		// allocate the same version number.
		var doc models.Document
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", docID).
			First(&doc).Error; err != nil {
			return fmt.Errorf("failed to lock document: %w", err)
		}

		var maxNo int
		if err := tx.Model(&models.DocumentVersion{}).
			Where("document_id = ?", docID).
			Select("COALESCE(MAX(version_no), 0)").
			Scan(&maxNo).Error; err != nil {
			return fmt.Errorf("failed to read max version number: %w", err)
		}

		version.VersionNo = maxNo + 1
		if err := tx.Create(version).Error; err != nil {
			return fmt.Errorf("failed to create version: %w", err)
		}

		if err := tx.Model(&models.Document{}).
			Where("id = ?", docID).
			Updates(map[string]interface{}{
				"current_version_id": version.ID,
				"updated_at":         time.Now(),
			}).Error; err != nil {
			return fmt.Errorf("failed to promote version: %w", err)
		}

		return nil
	})
}

func (r *documentRepository) SetCurrentVersion(ctx context.Context, id, versionID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_version_id": versionID,
			"updated_at":         time.Now(),
		}).Error; err != nil {
		return fmt.Errorf("failed to set current version: %w", err)
	}
	return nil
}

func (r *documentRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to doctypes.DocumentStatus, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     to.String(),
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	result := r.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to transition status: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *documentRepository) SetError(ctx context.Context, id uuid.UUID, msg string) error {
	if err := r.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"error_message": msg,
			"updated_at":    time.Now(),
		}).Error; err != nil {
		return fmt.Errorf("failed to set error message: %w", err)
	}
	return nil
}
