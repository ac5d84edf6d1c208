// Package queue is the seam between synchronous ingestion and the
// eventual-consistency enrichment layer. The database row is the
// durable queue; a Redis list is only a wake-up signal so idle workers
// do not hammer the database.
package queue

import (
	"context"

	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	"github.com/lk2023060901/doc-hub-backend/internal/document/repository"
	doctypes "github.com/lk2023060901/doc-hub-backend/internal/document/types"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/logger"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/redis"
	"go.uber.org/zap"
)

// WakeKey is the Redis list workers block on.
const WakeKey = "dochub:jobs:wake"

// Enqueuer is the producer-side contract used by the finalizer.
type Enqueuer interface {
	// EnqueueForVersion creates one pending job per type for a version
	EnqueueForVersion(ctx context.Context, tenantID, documentID, versionID uuid.UUID, jobTypes []doctypes.JobType) error
}

// Queue binds the durable job table to the Redis wake-up list.
type Queue struct {
	jobs   repository.JobRepository
	rdb    *redis.Client
	logger *logger.Logger
}

// New creates a queue. rdb may be nil; workers then rely on polling alone.
func New(jobs repository.JobRepository, rdb *redis.Client, log *logger.Logger) *Queue {
	return &Queue{
		jobs:   jobs,
		rdb:    rdb,
		logger: log,
	}
}

// EnqueueForVersion inserts pending jobs and nudges the workers. A job
// that already exists for (document, version, type) is left untouched.
func (q *Queue) EnqueueForVersion(ctx context.Context, tenantID, documentID, versionID uuid.UUID, jobTypes []doctypes.JobType) error {
	for _, jt := range jobTypes {
		job := &models.EnrichmentJob{
			ID:         uuid.New(),
			TenantID:   tenantID,
			DocumentID: documentID,
			VersionID:  versionID,
			JobType:    jt.String(),
			Status:     doctypes.JobStatusPending.String(),
		}

		created, err := q.jobs.Enqueue(ctx, job)
		if err != nil {
			return err
		}
		if !created {
			continue
		}

		q.wake(ctx, job.ID)
	}

	return nil
}

// wake is best effort; a missed signal only delays pickup until the
// next poll tick.
func (q *Queue) wake(ctx context.Context, jobID uuid.UUID) {
	if q.rdb == nil {
		return
	}
	if _, err := q.rdb.LPush(ctx, WakeKey, jobID.String()); err != nil {
		q.logger.Warn("failed to signal job wake-up",
			zap.String("job_id", jobID.String()),
			zap.Error(err))
	}
}

// Claim takes one pending job, if any.
func (q *Queue) Claim(ctx context.Context) (*models.EnrichmentJob, error) {
	return q.jobs.Claim(ctx)
}

// Complete marks a claimed job finished.
func (q *Queue) Complete(ctx context.Context, id uuid.UUID) error {
	return q.jobs.Complete(ctx, id)
}

// Fail marks a claimed job failed, retaining the error message.
func (q *Queue) Fail(ctx context.Context, id uuid.UUID, msg string) error {
	return q.jobs.Fail(ctx, id, msg)
}

// DrainSignal consumes one wake-up token without blocking. Returns
// false when the list is empty or Redis is unavailable.
func (q *Queue) DrainSignal(ctx context.Context) bool {
	if q.rdb == nil {
		return false
	}
	_, err := q.rdb.RPop(ctx, WakeKey)
	if err != nil {
		if !redis.IsNil(err) {
			q.logger.Warn("failed to pop job wake-up", zap.Error(err))
		}
		return false
	}
	return true
}
