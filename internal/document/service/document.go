package service

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/document/biz"
	"github.com/lk2023060901/doc-hub-backend/internal/document/repository"
	doctypes "github.com/lk2023060901/doc-hub-backend/internal/document/types"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/logger"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/response"
)

// DocumentService exposes document listing and lifecycle endpoints.
type DocumentService struct {
	status   *biz.StatusUseCase
	versions repository.VersionRepository
	jobs     repository.JobRepository
	tags     repository.TagRepository
	logger   *logger.Logger
}

// NewDocumentService creates the document service.
func NewDocumentService(
	status *biz.StatusUseCase,
	versions repository.VersionRepository,
	jobs repository.JobRepository,
	tags repository.TagRepository,
	log *logger.Logger,
) *DocumentService {
	return &DocumentService{
		status:   status,
		versions: versions,
		jobs:     jobs,
		tags:     tags,
		logger:   log,
	}
}

// List handles GET /v1/documents.
func (s *DocumentService) List(c *gin.Context) {
	tenantID, _, err := identity(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := repository.DocumentFilter{
		Status:  doctypes.DocumentStatus(c.Query("status")),
		DocType: doctypes.DocType(c.Query("doc_type")),
	}
	if tag := c.Query("tag_id"); tag != "" {
		tagID, err := uuid.Parse(tag)
		if err != nil {
			response.BadRequest(c, "invalid tag id")
			return
		}
		filter.TagID = tagID
	}

	docs, total, err := s.status.List(c.Request.Context(), tenantID, filter, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]DocumentResponse, len(docs))
	for i, doc := range docs {
		items[i] = toDocumentResponse(doc)
	}

	response.Success(c, PageResponse{Items: items, Total: total, Page: page, Size: size})
}

// Get handles GET /v1/documents/:id.
func (s *DocumentService) Get(c *gin.Context) {
	tenantID, _, err := identity(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid document id")
		return
	}

	doc, err := s.status.Get(c.Request.Context(), tenantID, docID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, toDocumentResponse(doc))
}

// ListVersions handles GET /v1/documents/:id/versions.
func (s *DocumentService) ListVersions(c *gin.Context) {
	tenantID, _, err := identity(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid document id")
		return
	}

	// Tenant check before touching the versions table.
	if _, err := s.status.Get(c.Request.Context(), tenantID, docID); err != nil {
		response.Error(c, err)
		return
	}

	versions, err := s.versions.ListByDocumentID(c.Request.Context(), docID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, versions)
}

// ListJobs handles GET /v1/documents/:id/jobs.
func (s *DocumentService) ListJobs(c *gin.Context) {
	tenantID, _, err := identity(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid document id")
		return
	}

	if _, err := s.status.Get(c.Request.Context(), tenantID, docID); err != nil {
		response.Error(c, err)
		return
	}

	jobs, err := s.jobs.ListByDocument(c.Request.Context(), docID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, jobs)
}

// UpdateStatus handles PUT /v1/documents/:id/status.
func (s *DocumentService) UpdateStatus(c *gin.Context) {
	tenantID, _, err := identity(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid document id")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := s.status.UpdateStatus(c.Request.Context(), tenantID, docID,
		doctypes.DocumentStatus(req.Status)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}

// BulkAction handles POST /v1/documents/bulk.
func (s *DocumentService) BulkAction(c *gin.Context) {
	tenantID, _, err := identity(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var req BulkActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	ids := make([]uuid.UUID, 0, len(req.DocumentIDs))
	for _, raw := range req.DocumentIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid document id "+raw)
			return
		}
		ids = append(ids, id)
	}

	var tagID uuid.UUID
	if req.TagID != "" {
		tagID = uuid.MustParse(req.TagID)
	}

	result, err := s.status.RunBulkAction(c.Request.Context(), tenantID, ids,
		doctypes.BulkAction(req.Action), tagID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
