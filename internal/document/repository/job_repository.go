package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	doctypes "github.com/lk2023060901/doc-hub-backend/internal/document/types"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/database"
	"gorm.io/gorm/clause"
)

// JobRepository is the enrichment job persistence interface
type JobRepository interface {
	// Enqueue inserts a pending job; a duplicate of an existing
	// (document, version, type) row is silently dropped. Returns true
	// when a new row was created.
	Enqueue(ctx context.Context, job *models.EnrichmentJob) (bool, error)

	// Claim atomically takes one pending job for a worker. Returns nil
	// when no pending job exists.
	Claim(ctx context.Context) (*models.EnrichmentJob, error)

	// Complete marks a running job finished
	Complete(ctx context.Context, id uuid.UUID) error

	// Fail marks a running job failed with a message
	Fail(ctx context.Context, id uuid.UUID, msg string) error

	// GetByID fetches a job
	GetByID(ctx context.Context, id uuid.UUID) (*models.EnrichmentJob, error)

	// ListByDocument lists jobs for a document, newest first
	ListByDocument(ctx context.Context, docID uuid.UUID) ([]*models.EnrichmentJob, error)

	// CountUnfinishedForVersion counts pending and running jobs for a
	// version
	CountUnfinishedForVersion(ctx context.Context, versionID uuid.UUID) (int64, error)

	// CountByStatus counts jobs per status, for the health endpoint
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type jobRepository struct {
	db *database.DB
}

// NewJobRepository creates a job repository
func NewJobRepository(db *database.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Enqueue(ctx context.Context, job *models.EnrichmentJob) (bool, error) {
	if err := job.Validate(); err != nil {
		return false, fmt.Errorf("validation failed: %w", err)
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}, {Name: "version_id"}, {Name: "job_type"}},
			DoNothing: true,
		}).
		Create(job)
	if result.Error != nil {
		return false, fmt.Errorf("failed to enqueue job: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *jobRepository) Claim(ctx context.Context) (*models.EnrichmentJob, error) {
	// Two-step claim: pick a candidate, then take it with a guarded
	// update. A lost race just means another worker got the row; try
	// the next candidate.
	for i := 0; i < 5; i++ {
		var job models.EnrichmentJob
		err := r.db.WithContext(ctx).
			Where("status = ?", doctypes.JobStatusPending).
			Order("created_at ASC").
			Offset(i).
			First(&job).Error
		if err != nil {
			if database.IsRecordNotFoundError(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to find pending job: %w", err)
		}

		now := time.Now()
		result := r.db.WithContext(ctx).Model(&models.EnrichmentJob{}).
			Where("id = ? AND status = ?", job.ID, doctypes.JobStatusPending).
			Updates(map[string]interface{}{
				"status":     doctypes.JobStatusRunning.String(),
				"attempts":   job.Attempts + 1,
				"started_at": now,
				"updated_at": now,
			})
		if result.Error != nil {
			return nil, fmt.Errorf("failed to claim job: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			job.Status = doctypes.JobStatusRunning.String()
			job.Attempts++
			job.StartedAt = &now
			return &job, nil
		}
	}

	return nil, nil
}

func (r *jobRepository) Complete(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.EnrichmentJob{}).
		Where("id = ? AND status = ?", id, doctypes.JobStatusRunning).
		Updates(map[string]interface{}{
			"status":      doctypes.JobStatusCompleted.String(),
			"error":       "",
			"finished_at": now,
			"updated_at":  now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to complete job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job %s not in running status", id)
	}
	return nil
}

func (r *jobRepository) Fail(ctx context.Context, id uuid.UUID, msg string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.EnrichmentJob{}).
		Where("id = ? AND status = ?", id, doctypes.JobStatusRunning).
		Updates(map[string]interface{}{
			"status":      doctypes.JobStatusFailed.String(),
			"error":       msg,
			"finished_at": now,
			"updated_at":  now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to fail job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job %s not in running status", id)
	}
	return nil
}

func (r *jobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.EnrichmentJob, error) {
	var job models.EnrichmentJob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

func (r *jobRepository) ListByDocument(ctx context.Context, docID uuid.UUID) ([]*models.EnrichmentJob, error) {
	var jobs []*models.EnrichmentJob
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", docID).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

func (r *jobRepository) CountUnfinishedForVersion(ctx context.Context, versionID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.EnrichmentJob{}).
		Where("version_id = ? AND status IN ?", versionID,
			[]string{doctypes.JobStatusPending.String(), doctypes.JobStatusRunning.String()}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count unfinished jobs: %w", err)
	}
	return count, nil
}

func (r *jobRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&models.EnrichmentJob{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
