// Package processor hosts the enrichment job implementations and the
// dispatcher the queue worker drives.
package processor

import (
	"context"

	"github.com/lk2023060901/doc-hub-backend/internal/document/biz"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	"github.com/lk2023060901/doc-hub-backend/internal/document/repository"
	doctypes "github.com/lk2023060901/doc-hub-backend/internal/document/types"
	apperrors "github.com/lk2023060901/doc-hub-backend/internal/pkg/errors"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// Dispatcher routes a claimed job to its processor and keeps the
// owning document's lifecycle in step: processing while jobs run,
// active once the version has none left.
type Dispatcher struct {
	docs      repository.DocumentRepository
	versions  repository.VersionRepository
	jobs      repository.JobRepository
	status    *biz.StatusUseCase
	extractor *Extractor
	thumbs    *Thumbnailer
	previews  *Previewer
	logger    *logger.Logger
}

// NewDispatcher creates the job dispatcher.
func NewDispatcher(
	docs repository.DocumentRepository,
	versions repository.VersionRepository,
	jobs repository.JobRepository,
	status *biz.StatusUseCase,
	extractor *Extractor,
	thumbs *Thumbnailer,
	previews *Previewer,
	log *logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		docs:      docs,
		versions:  versions,
		jobs:      jobs,
		status:    status,
		extractor: extractor,
		thumbs:    thumbs,
		previews:  previews,
		logger:    log,
	}
}

// Process executes one claimed job. Job failures are independent per
// type: a failed thumbnail never blocks a completed extraction.
func (d *Dispatcher) Process(ctx context.Context, job *models.EnrichmentJob) error {
	doc, err := d.docs.GetByID(ctx, job.TenantID, job.DocumentID)
	if err != nil {
		return err
	}
	version, err := d.versions.GetByID(ctx, job.VersionID)
	if err != nil {
		return err
	}

	d.status.MarkProcessing(ctx, doc.ID)

	switch doctypes.JobType(job.JobType) {
	case doctypes.JobTypeOCR:
		err = d.extractor.Run(ctx, doc, version)
	case doctypes.JobTypeThumbnail:
		var pages int
		pages, err = d.thumbs.Run(ctx, doc, version)
		if err == nil {
			d.logger.Debug("thumbnails rendered",
				zap.String("version_id", version.ID.String()),
				zap.Int("pages", pages))
		}
	case doctypes.JobTypePreview:
		err = d.previews.Run(ctx, doc, version)
	default:
		return apperrors.Newf(apperrors.ErrJobUnknownType, "job type %q", job.JobType)
	}
	if err != nil {
		return err
	}

	d.maybeActivate(ctx, job)
	return nil
}

// maybeActivate moves the document to active once this was the last
// unfinished job for the version. The claimed job is still marked
// running here, hence the <= 1.
func (d *Dispatcher) maybeActivate(ctx context.Context, job *models.EnrichmentJob) {
	remaining, err := d.jobs.CountUnfinishedForVersion(ctx, job.VersionID)
	if err != nil {
		d.logger.Warn("failed to count unfinished jobs", zap.Error(err))
		return
	}
	if remaining <= 1 {
		d.status.MarkActive(ctx, job.DocumentID)
	}
}
