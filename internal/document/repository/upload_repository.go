package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	doctypes "github.com/lk2023060901/doc-hub-backend/internal/document/types"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/database"
)

// UploadRepository is the upload session persistence interface
type UploadRepository interface {
	// Create creates an upload session
	Create(ctx context.Context, upload *models.Upload) error

	// GetByID fetches an upload by id within a tenant
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Upload, error)

	// TransitionStatus moves the upload from one status to another,
	// guarded by the current value. Returns false when the upload was
	// not in the expected status.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to doctypes.UploadStatus) (bool, error)

	// MarkIngested records success and clears any stale error
	MarkIngested(ctx context.Context, id uuid.UUID) error

	// MarkFailed records a finalize failure message
	MarkFailed(ctx context.Context, id uuid.UUID, msg string) error

	// ListExpired finds presigned sessions whose deadline passed
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.Upload, error)
}

type uploadRepository struct {
	db *database.DB
}

// NewUploadRepository creates an upload repository
func NewUploadRepository(db *database.DB) UploadRepository {
	return &uploadRepository{db: db}
}

func (r *uploadRepository) Create(ctx context.Context, upload *models.Upload) error {
	if err := upload.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(upload).Error; err != nil {
		return fmt.Errorf("failed to create upload: %w", err)
	}

	return nil
}

func (r *uploadRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Upload, error) {
	var upload models.Upload
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&upload).Error; err != nil {
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}
	return &upload, nil
}

func (r *uploadRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to doctypes.UploadStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Upload{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to.String(),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to transition upload status: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *uploadRepository) MarkIngested(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.Upload{}).
		Where("id = ? AND status = ?", id, doctypes.UploadStatusUploaded).
		Updates(map[string]interface{}{
			"status":        doctypes.UploadStatusIngested.String(),
			"error_message": "",
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark upload ingested: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("upload %s not in uploaded status", id)
	}
	return nil
}

func (r *uploadRepository) MarkFailed(ctx context.Context, id uuid.UUID, msg string) error {
	if err := r.db.WithContext(ctx).Model(&models.Upload{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        doctypes.UploadStatusFailed.String(),
			"error_message": msg,
			"updated_at":    time.Now(),
		}).Error; err != nil {
		return fmt.Errorf("failed to mark upload failed: %w", err)
	}
	return nil
}

func (r *uploadRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.Upload, error) {
	var uploads []*models.Upload
	if err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", doctypes.UploadStatusPresigned, now).
		Limit(limit).
		Find(&uploads).Error; err != nil {
		return nil, fmt.Errorf("failed to list expired uploads: %w", err)
	}
	return uploads, nil
}
