package biz

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/conf"
	"github.com/lk2023060901/doc-hub-backend/internal/document/hashing"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	"github.com/lk2023060901/doc-hub-backend/internal/document/repository"
	"github.com/lk2023060901/doc-hub-backend/internal/document/storage"
	doctypes "github.com/lk2023060901/doc-hub-backend/internal/document/types"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/database"
	apperrors "github.com/lk2023060901/doc-hub-backend/internal/pkg/errors"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// UploadTicket is what the client needs to PUT its bytes directly to
// the object store: all ids are allocated up front.
type UploadTicket struct {
	UploadID        uuid.UUID `json:"upload_id"`
	DocumentID      uuid.UUID `json:"document_id"`
	VersionID       uuid.UUID `json:"version_id"`
	PresignedPutURL string    `json:"presigned_put_url"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// RequestUploadInput carries the client-declared upload metadata. The
// declared size and hash are untrusted until finalize verifies them.
type RequestUploadInput struct {
	TenantID   uuid.UUID
	OwnerID    uuid.UUID
	Filename   string
	MimeType   string
	SizeBytes  int64
	SHA256     string
	DocumentID uuid.UUID // existing document to append a version to; Nil for a new one
}

// UploadUseCase manages upload sessions.
type UploadUseCase struct {
	uploads repository.UploadRepository
	docs    repository.DocumentRepository
	store   storage.Gateway
	cfg     conf.UploadConfig
	logger  *logger.Logger
}

// NewUploadUseCase creates the upload use case.
func NewUploadUseCase(
	uploads repository.UploadRepository,
	docs repository.DocumentRepository,
	store storage.Gateway,
	cfg conf.UploadConfig,
	log *logger.Logger,
) *UploadUseCase {
	return &UploadUseCase{
		uploads: uploads,
		docs:    docs,
		store:   store,
		cfg:     cfg,
		logger:  log,
	}
}

// RequestUpload allocates an upload session and returns a presigned
// PUT target. Nothing is written to the object store here.
func (uc *UploadUseCase) RequestUpload(ctx context.Context, in RequestUploadInput) (*UploadTicket, error) {
	if in.SizeBytes <= 0 || in.SizeBytes > uc.cfg.MaxSizeBytes {
		return nil, apperrors.Newf(apperrors.ErrUploadInvalidSize,
			"size %d out of range (max %d)", in.SizeBytes, uc.cfg.MaxSizeBytes)
	}
	if !uc.mimeAllowed(in.MimeType) {
		return nil, apperrors.Newf(apperrors.ErrUploadInvalidMime, "mime type %q not allowed", in.MimeType)
	}
	if in.SHA256 != "" && !hashing.ValidHex(in.SHA256) {
		return nil, apperrors.New(apperrors.ErrValidation, "declared sha256 is not a 64-char hex digest")
	}

	documentID := in.DocumentID
	if documentID == uuid.Nil {
		documentID = uuid.New()
	} else {
		// Appending a version: the target document must exist and
		// belong to the caller's tenant.
		if _, err := uc.docs.GetByID(ctx, in.TenantID, documentID); err != nil {
			if database.IsRecordNotFoundError(err) {
				return nil, apperrors.New(apperrors.ErrDocumentNotFound)
			}
			return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
		}
	}

	upload := &models.Upload{
		ID:             uuid.New(),
		TenantID:       in.TenantID,
		OwnerID:        in.OwnerID,
		DocumentID:     documentID,
		VersionID:      uuid.New(),
		Filename:       in.Filename,
		MimeType:       in.MimeType,
		SizeBytes:      in.SizeBytes,
		DeclaredSHA256: hashing.Normalize(in.SHA256),
		Status:         doctypes.UploadStatusPresigned.String(),
		ExpiresAt:      time.Now().Add(uc.cfg.PresignTTL),
	}
	upload.QuarantineKey = storage.QuarantineKey(in.TenantID, upload.ID, in.Filename)

	putURL, err := uc.store.PresignPut(ctx, upload.QuarantineKey, uc.cfg.PresignTTL)
	if err != nil {
		return nil, apperrors.NewConfigurationError(err, "object store unreachable")
	}

	if err := upload.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrValidation, err.Error())
	}
	if err := uc.uploads.Create(ctx, upload); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	uc.logger.Info("upload session created",
		zap.String("upload_id", upload.ID.String()),
		zap.String("document_id", documentID.String()),
		zap.String("filename", in.Filename),
		zap.Int64("size_bytes", in.SizeBytes))

	return &UploadTicket{
		UploadID:        upload.ID,
		DocumentID:      documentID,
		VersionID:       upload.VersionID,
		PresignedPutURL: putURL,
		ExpiresAt:       upload.ExpiresAt,
	}, nil
}

// CancelUpload abandons a session before it is finalized. The
// quarantine object is deleted best effort; a deletion failure never
// blocks the status transition.
func (uc *UploadUseCase) CancelUpload(ctx context.Context, tenantID, callerID, uploadID uuid.UUID) error {
	upload, err := uc.uploads.GetByID(ctx, tenantID, uploadID)
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return apperrors.New(apperrors.ErrUploadNotFound)
		}
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	if upload.OwnerID != callerID {
		return apperrors.New(apperrors.ErrForbidden, "upload belongs to another owner")
	}

	status := doctypes.UploadStatus(upload.Status)
	if status.Terminal() {
		return apperrors.Newf(apperrors.ErrUploadNotCancelable, "upload is already %s", status)
	}

	if err := uc.store.Delete(ctx, upload.QuarantineKey); err != nil && !uc.store.IsNotFound(err) {
		uc.logger.Warn("failed to delete quarantine object on cancel",
			zap.String("upload_id", uploadID.String()),
			zap.String("key", upload.QuarantineKey),
			zap.Error(err))
	}

	ok, err := uc.uploads.TransitionStatus(ctx, uploadID, status, doctypes.UploadStatusFailed)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	if !ok {
		return apperrors.New(apperrors.ErrUploadNotCancelable, "upload changed state concurrently")
	}

	if err := uc.uploads.MarkFailed(ctx, uploadID, "canceled by client"); err != nil {
		uc.logger.Warn("failed to record cancel reason", zap.Error(err))
	}

	uc.logger.Info("upload session canceled", zap.String("upload_id", uploadID.String()))
	return nil
}

// MarkUploaded records the client's report that the PUT completed.
func (uc *UploadUseCase) MarkUploaded(ctx context.Context, tenantID, callerID, uploadID uuid.UUID) error {
	upload, err := uc.uploads.GetByID(ctx, tenantID, uploadID)
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return apperrors.New(apperrors.ErrUploadNotFound)
		}
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	if upload.OwnerID != callerID {
		return apperrors.New(apperrors.ErrForbidden, "upload belongs to another owner")
	}

	ok, err := uc.uploads.TransitionStatus(ctx, uploadID,
		doctypes.UploadStatusPresigned, doctypes.UploadStatusUploaded)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	if !ok {
		return apperrors.Newf(apperrors.ErrInvalidState, "upload is %s, expected presigned", upload.Status)
	}
	return nil
}

// ExpireStale fails presigned sessions whose deadline passed and
// clears their quarantine objects. Safe to run concurrently with
// finalize: the status CAS means a session that just got finalized is
// skipped. Returns the number of sessions expired.
func (uc *UploadUseCase) ExpireStale(ctx context.Context, now time.Time, limit int) (int, error) {
	stale, err := uc.uploads.ListExpired(ctx, now, limit)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	expired := 0
	for _, upload := range stale {
		ok, err := uc.uploads.TransitionStatus(ctx, upload.ID,
			doctypes.UploadStatusPresigned, doctypes.UploadStatusFailed)
		if err != nil {
			uc.logger.Warn("failed to expire upload session",
				zap.String("upload_id", upload.ID.String()), zap.Error(err))
			continue
		}
		if !ok {
			// Finalize won the race; leave it alone.
			continue
		}

		if err := uc.uploads.MarkFailed(ctx, upload.ID, "presigned url expired"); err != nil {
			uc.logger.Warn("failed to record expiry reason",
				zap.String("upload_id", upload.ID.String()), zap.Error(err))
		}
		if err := uc.store.Delete(ctx, upload.QuarantineKey); err != nil && !uc.store.IsNotFound(err) {
			uc.logger.Warn("failed to delete quarantine object on expiry",
				zap.String("key", upload.QuarantineKey), zap.Error(err))
		}
		expired++
	}

	if expired > 0 {
		uc.logger.Info("expired stale upload sessions", zap.Int("count", expired))
	}
	return expired, nil
}

func (uc *UploadUseCase) mimeAllowed(mime string) bool {
	for _, m := range uc.cfg.AllowedMimeTypes {
		if m == mime {
			return true
		}
	}
	return false
}
