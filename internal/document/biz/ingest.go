package biz

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/document/classify"
	"github.com/lk2023060901/doc-hub-backend/internal/document/hashing"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	"github.com/lk2023060901/doc-hub-backend/internal/document/queue"
	"github.com/lk2023060901/doc-hub-backend/internal/document/repository"
	"github.com/lk2023060901/doc-hub-backend/internal/document/storage"
	doctypes "github.com/lk2023060901/doc-hub-backend/internal/document/types"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/database"
	apperrors "github.com/lk2023060901/doc-hub-backend/internal/pkg/errors"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// FinalizeResult is returned once an upload's bytes are promoted to
// canonical storage and the document rows are durable.
type FinalizeResult struct {
	DocumentID       uuid.UUID  `json:"document_id"`
	VersionID        uuid.UUID  `json:"version_id"`
	DuplicateGroupID *uuid.UUID `json:"duplicate_group_id,omitempty"`
	SHA256           string     `json:"sha256"`
}

// IngestUseCase promotes verified uploads into documents.
type IngestUseCase struct {
	uploads  repository.UploadRepository
	docs     repository.DocumentRepository
	versions repository.VersionRepository
	dedup    *DedupUseCase
	store    storage.Gateway
	enqueuer queue.Enqueuer
	logger   *logger.Logger
}

// NewIngestUseCase creates the ingest use case.
func NewIngestUseCase(
	uploads repository.UploadRepository,
	docs repository.DocumentRepository,
	versions repository.VersionRepository,
	dedup *DedupUseCase,
	store storage.Gateway,
	enqueuer queue.Enqueuer,
	log *logger.Logger,
) *IngestUseCase {
	return &IngestUseCase{
		uploads:  uploads,
		docs:     docs,
		versions: versions,
		dedup:    dedup,
		store:    store,
		enqueuer: enqueuer,
		logger:   log,
	}
}

// Finalize verifies the quarantined bytes, copies them to the canonical
// key, and makes the document visible. The canonical copy is confirmed
// before any row is inserted, and the current-version pointer is
// durable before the call returns success, so a document is never
// advertised before its bytes exist.
func (uc *IngestUseCase) Finalize(ctx context.Context, tenantID, callerID, uploadID uuid.UUID) (*FinalizeResult, error) {
	log := uc.logger.With(zap.String("upload_id", uploadID.String()))

	upload, err := uc.uploads.GetByID(ctx, tenantID, uploadID)
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, apperrors.New(apperrors.ErrUploadNotFound)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	if upload.OwnerID != callerID {
		return nil, apperrors.New(apperrors.ErrForbidden, "upload belongs to another owner")
	}

	switch doctypes.UploadStatus(upload.Status) {
	case doctypes.UploadStatusPresigned:
		// Claim the session. Losing the race means another finalize is
		// already in flight.
		ok, err := uc.uploads.TransitionStatus(ctx, uploadID,
			doctypes.UploadStatusPresigned, doctypes.UploadStatusUploaded)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
		}
		if !ok {
			return nil, apperrors.New(apperrors.ErrInvalidState, "finalize already in progress")
		}
	case doctypes.UploadStatusUploaded:
		// A previous attempt stopped partway; every step below is
		// repeatable, so carry on.
	case doctypes.UploadStatusIngested:
		return nil, apperrors.New(apperrors.ErrUploadAlreadyDone, "upload already ingested")
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidState, "upload is %s", upload.Status)
	}

	result, ferr := uc.promote(ctx, upload, log)
	if ferr != nil {
		// Verification and storage failures are terminal for the
		// session; the client must request a fresh one.
		if code := apperrors.ExtractCode(ferr); code == apperrors.ErrIntegrity || code == apperrors.ErrStorage {
			if markErr := uc.uploads.MarkFailed(ctx, uploadID, ferr.Error()); markErr != nil {
				log.Error("failed to mark upload failed", zap.Error(markErr))
			}
		}
		return nil, ferr
	}

	if err := uc.uploads.MarkIngested(ctx, uploadID); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	// Enrichment is eventual; an enqueue failure never rolls back a
	// successful ingest.
	if err := uc.enqueuer.EnqueueForVersion(ctx, tenantID, result.DocumentID, result.VersionID,
		doctypes.AllJobTypes()); err != nil {
		log.Warn("failed to enqueue enrichment jobs", zap.Error(err))
	}

	log.Info("upload finalized",
		zap.String("document_id", result.DocumentID.String()),
		zap.String("version_id", result.VersionID.String()),
		zap.String("sha256", result.SHA256))

	return result, nil
}

// promote runs the verification, copy and insert steps. Errors it
// returns with an integrity or storage code mark the session failed.
func (uc *IngestUseCase) promote(ctx context.Context, upload *models.Upload, log *logger.Logger) (*FinalizeResult, error) {
	stat, err := uc.store.Head(ctx, upload.QuarantineKey)
	if err != nil {
		if uc.store.IsNotFound(err) {
			return nil, apperrors.New(apperrors.ErrIntegrity, "quarantine object missing")
		}
		return nil, apperrors.NewStorageError(err, "failed to stat quarantine object")
	}
	if stat.SizeBytes != upload.SizeBytes {
		return nil, apperrors.Newf(apperrors.ErrIntegrity,
			"declared size %d but observed %d", upload.SizeBytes, stat.SizeBytes)
	}

	// Stream the quarantined bytes through SHA-256. The declared
	// digest is untrusted client metadata; the recorded digest is
	// always the one computed here.
	body, err := uc.store.Get(ctx, upload.QuarantineKey)
	if err != nil {
		return nil, apperrors.NewStorageError(err, "failed to read quarantine object")
	}
	digest, n, err := hashing.SumReader(body)
	body.Close()
	if err != nil {
		return nil, apperrors.NewStorageError(err, "failed to hash quarantine object")
	}
	if n != upload.SizeBytes {
		return nil, apperrors.Newf(apperrors.ErrIntegrity,
			"declared size %d but read %d bytes", upload.SizeBytes, n)
	}
	if !hashing.Equal(upload.DeclaredSHA256, digest) {
		return nil, apperrors.Newf(apperrors.ErrIntegrity,
			"declared sha256 %s but computed %s", upload.DeclaredSHA256, digest)
	}

	canonicalKey := storage.CanonicalKey(upload.TenantID, upload.DocumentID, upload.VersionID)
	if err := uc.store.Copy(ctx, upload.QuarantineKey, canonicalKey); err != nil {
		// Quarantine bytes are left in place for manual cleanup.
		return nil, apperrors.NewStorageError(err, "failed to copy to canonical key")
	}

	version := &models.DocumentVersion{
		ID:         upload.VersionID,
		DocumentID: upload.DocumentID,
		StorageKey: canonicalKey,
		MimeType:   upload.MimeType,
		SizeBytes:  upload.SizeBytes,
		SHA256:     digest,
	}

	if err := uc.insertRows(ctx, upload, version); err != nil {
		return nil, err
	}

	// Quarantine object is no longer needed; leaving it behind only
	// wastes space.
	if err := uc.store.Delete(ctx, upload.QuarantineKey); err != nil && !uc.store.IsNotFound(err) {
		log.Warn("failed to delete quarantine object", zap.Error(err))
	}

	result := &FinalizeResult{
		DocumentID: upload.DocumentID,
		VersionID:  upload.VersionID,
		SHA256:     digest,
	}

	// Exact-duplicate grouping is advisory; a failure here never undoes
	// the ingest.
	groupID, err := uc.dedup.FindOrCreateExactGroup(ctx, upload.TenantID, upload.DocumentID, upload.VersionID, digest)
	if err != nil {
		log.Warn("exact duplicate check failed", zap.Error(err))
	} else {
		result.DuplicateGroupID = groupID
	}

	return result, nil
}

// insertRows makes the document and version visible atomically.
func (uc *IngestUseCase) insertRows(ctx context.Context, upload *models.Upload, version *models.DocumentVersion) error {
	existing, err := uc.docs.GetByID(ctx, upload.TenantID, upload.DocumentID)
	if err != nil && !database.IsRecordNotFoundError(err) {
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	if existing == nil || database.IsRecordNotFoundError(err) {
		doc := &models.Document{
			ID:       upload.DocumentID,
			TenantID: upload.TenantID,
			OwnerID:  upload.OwnerID,
			Title:    classify.TitleFromFilename(upload.Filename),
			DocType:  classify.Detect(upload.Filename, upload.MimeType).String(),
			Status:   doctypes.DocumentStatusInbox.String(),
		}
		version.VersionNo = 1
		if err := uc.docs.CreateWithVersion(ctx, doc, version); err != nil {
			return uc.insertConflict(ctx, upload, err)
		}
		return nil
	}

	if err := uc.docs.AppendVersion(ctx, upload.DocumentID, version); err != nil {
		return uc.insertConflict(ctx, upload, err)
	}
	return nil
}

// insertConflict distinguishes a lost race (the version row already
// exists because a concurrent retry won) from a real failure.
func (uc *IngestUseCase) insertConflict(ctx context.Context, upload *models.Upload, insertErr error) error {
	if _, err := uc.versions.GetByID(ctx, upload.VersionID); err == nil {
		return nil
	}
	return apperrors.Wrap(insertErr, apperrors.ErrInternalServer,
		fmt.Sprintf("failed to insert rows for upload %s", upload.ID))
}
