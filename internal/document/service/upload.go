package service

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/document/biz"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/logger"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/response"
	"go.uber.org/zap"
)

// UploadService exposes the upload session and finalize endpoints.
type UploadService struct {
	uploads *biz.UploadUseCase
	ingest  *biz.IngestUseCase
	logger  *logger.Logger
}

// NewUploadService creates the upload service.
func NewUploadService(uploads *biz.UploadUseCase, ingest *biz.IngestUseCase, log *logger.Logger) *UploadService {
	return &UploadService{
		uploads: uploads,
		ingest:  ingest,
		logger:  log,
	}
}

// RequestUpload handles POST /v1/uploads.
func (s *UploadService) RequestUpload(c *gin.Context) {
	tenantID, userID, err := identity(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var req RequestUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	in := biz.RequestUploadInput{
		TenantID:  tenantID,
		OwnerID:   userID,
		Filename:  req.Filename,
		MimeType:  req.MimeType,
		SizeBytes: req.SizeBytes,
		SHA256:    req.SHA256,
	}
	if req.DocumentID != "" {
		in.DocumentID = uuid.MustParse(req.DocumentID)
	}

	ticket, err := s.uploads.RequestUpload(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, ticket)
}

// MarkUploaded handles POST /v1/uploads/:id/uploaded.
func (s *UploadService) MarkUploaded(c *gin.Context) {
	tenantID, userID, err := identity(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	uploadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid upload id")
		return
	}

	if err := s.uploads.MarkUploaded(c.Request.Context(), tenantID, userID, uploadID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}

// Finalize handles POST /v1/uploads/:id/finalize.
func (s *UploadService) Finalize(c *gin.Context) {
	tenantID, userID, err := identity(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	uploadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid upload id")
		return
	}

	result, err := s.ingest.Finalize(c.Request.Context(), tenantID, userID, uploadID)
	if err != nil {
		s.logger.Warn("finalize failed",
			zap.String("upload_id", uploadID.String()),
			zap.Error(err))
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Cancel handles DELETE /v1/uploads/:id.
func (s *UploadService) Cancel(c *gin.Context) {
	tenantID, userID, err := identity(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	uploadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid upload id")
		return
	}

	if err := s.uploads.CancelUpload(c.Request.Context(), tenantID, userID, uploadID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}
