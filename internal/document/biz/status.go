package biz

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	"github.com/lk2023060901/doc-hub-backend/internal/document/repository"
	doctypes "github.com/lk2023060901/doc-hub-backend/internal/document/types"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/database"
	apperrors "github.com/lk2023060901/doc-hub-backend/internal/pkg/errors"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// BulkResult reports per-item tolerance for batch operations.
type BulkResult struct {
	SuccessCount int      `json:"success_count"`
	FailedCount  int      `json:"failed_count"`
	Failed       []string `json:"failed,omitempty"`
}

// StatusUseCase drives the document lifecycle state machine.
type StatusUseCase struct {
	docs   repository.DocumentRepository
	tags   repository.TagRepository
	logger *logger.Logger
}

// NewStatusUseCase creates the status use case.
func NewStatusUseCase(docs repository.DocumentRepository, tags repository.TagRepository, log *logger.Logger) *StatusUseCase {
	return &StatusUseCase{
		docs:   docs,
		tags:   tags,
		logger: log,
	}
}

// UpdateStatus transitions one document, validating the move against
// the transition table.
func (uc *StatusUseCase) UpdateStatus(ctx context.Context, tenantID, docID uuid.UUID, next doctypes.DocumentStatus) error {
	if !next.Valid() {
		return apperrors.Newf(apperrors.ErrValidation, "unrecognized status %q", next)
	}

	doc, err := uc.docs.GetByID(ctx, tenantID, docID)
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return apperrors.New(apperrors.ErrDocumentNotFound)
		}
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	current := doctypes.DocumentStatus(doc.Status)
	if current == next {
		return nil
	}
	if !current.CanTransitionTo(next) {
		return apperrors.Newf(apperrors.ErrInvalidState, "cannot move %s document to %s", current, next)
	}

	ok, err := uc.docs.TransitionStatus(ctx, docID, current, next, statusTimestamps(next))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	if !ok {
		return apperrors.New(apperrors.ErrInvalidState, "document changed state concurrently")
	}

	uc.logger.Info("document status updated",
		zap.String("document_id", docID.String()),
		zap.String("from", current.String()),
		zap.String("to", next.String()))
	return nil
}

// RunBulkAction applies one action across a batch with per-item
// tolerance: one bad id never fails the rest.
func (uc *StatusUseCase) RunBulkAction(ctx context.Context, tenantID uuid.UUID, docIDs []uuid.UUID, action doctypes.BulkAction, tagID uuid.UUID) (*BulkResult, error) {
	if !action.Valid() {
		return nil, apperrors.Newf(apperrors.ErrValidation, "unrecognized action %q", action)
	}
	if action == doctypes.BulkActionAddTag && tagID == uuid.Nil {
		return nil, apperrors.New(apperrors.ErrValidation, "add_tag requires a tag id")
	}
	if len(docIDs) == 0 {
		return nil, apperrors.New(apperrors.ErrValidation, "empty id list")
	}

	result := &BulkResult{}
	for _, id := range docIDs {
		if err := uc.applyAction(ctx, tenantID, id, action, tagID); err != nil {
			result.FailedCount++
			result.Failed = append(result.Failed, id.String())
			uc.logger.Warn("bulk action item failed",
				zap.String("document_id", id.String()),
				zap.String("action", action.String()),
				zap.Error(err))
			continue
		}
		result.SuccessCount++
	}

	return result, nil
}

func (uc *StatusUseCase) applyAction(ctx context.Context, tenantID, docID uuid.UUID, action doctypes.BulkAction, tagID uuid.UUID) error {
	switch action {
	case doctypes.BulkActionArchive:
		return uc.UpdateStatus(ctx, tenantID, docID, doctypes.DocumentStatusArchived)
	case doctypes.BulkActionDelete:
		return uc.UpdateStatus(ctx, tenantID, docID, doctypes.DocumentStatusDeleted)
	case doctypes.BulkActionActivate:
		return uc.UpdateStatus(ctx, tenantID, docID, doctypes.DocumentStatusActive)
	case doctypes.BulkActionAddTag:
		// Tenant check before touching the join table.
		if _, err := uc.docs.GetByID(ctx, tenantID, docID); err != nil {
			if database.IsRecordNotFoundError(err) {
				return apperrors.New(apperrors.ErrDocumentNotFound)
			}
			return apperrors.Wrap(err, apperrors.ErrInternalServer)
		}
		return uc.tags.Attach(ctx, docID, tagID)
	default:
		return apperrors.Newf(apperrors.ErrValidation, "unrecognized action %q", action)
	}
}

// statusTimestamps returns the side-effect columns for a transition.
func statusTimestamps(next doctypes.DocumentStatus) map[string]interface{} {
	now := time.Now()
	switch next {
	case doctypes.DocumentStatusArchived:
		return map[string]interface{}{"archived_at": now}
	case doctypes.DocumentStatusDeleted:
		return map[string]interface{}{"deleted_at": now}
	case doctypes.DocumentStatusActive:
		return map[string]interface{}{"archived_at": nil}
	default:
		return nil
	}
}

// MarkProcessing is used by the enrichment worker when it starts the
// first job for a freshly ingested document. A lost race is benign.
func (uc *StatusUseCase) MarkProcessing(ctx context.Context, docID uuid.UUID) {
	ok, err := uc.docs.TransitionStatus(ctx, docID,
		doctypes.DocumentStatusInbox, doctypes.DocumentStatusProcessing, nil)
	if err != nil {
		uc.logger.Warn("failed to mark document processing",
			zap.String("document_id", docID.String()), zap.Error(err))
		return
	}
	_ = ok
}

// MarkActive promotes a processing document once enrichment finishes.
func (uc *StatusUseCase) MarkActive(ctx context.Context, docID uuid.UUID) {
	if _, err := uc.docs.TransitionStatus(ctx, docID,
		doctypes.DocumentStatusProcessing, doctypes.DocumentStatusActive, nil); err != nil {
		uc.logger.Warn("failed to mark document active",
			zap.String("document_id", docID.String()), zap.Error(err))
	}
}

// Get fetches one document for the API layer.
func (uc *StatusUseCase) Get(ctx context.Context, tenantID, docID uuid.UUID) (*models.Document, error) {
	doc, err := uc.docs.GetByID(ctx, tenantID, docID)
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, apperrors.New(apperrors.ErrDocumentNotFound)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return doc, nil
}

// List returns a page of documents.
func (uc *StatusUseCase) List(ctx context.Context, tenantID uuid.UUID, filter repository.DocumentFilter, page, size int) ([]*models.Document, int64, error) {
	docs, total, err := uc.docs.List(ctx, tenantID, filter, page, size)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return docs, total, nil
}
