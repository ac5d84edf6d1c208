package service

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lk2023060901/doc-hub-backend/internal/document/biz"
	doctypes "github.com/lk2023060901/doc-hub-backend/internal/document/types"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/logger"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/response"
	"go.uber.org/zap"
)

// DuplicateService exposes duplicate group review endpoints.
type DuplicateService struct {
	dedup  *biz.DedupUseCase
	logger *logger.Logger
}

// NewDuplicateService creates the duplicate service.
func NewDuplicateService(dedup *biz.DedupUseCase, log *logger.Logger) *DuplicateService {
	return &DuplicateService{dedup: dedup, logger: log}
}

// List handles GET /v1/duplicate-groups.
func (s *DuplicateService) List(c *gin.Context) {
	tenantID, _, err := identity(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	reason := doctypes.GroupReason(c.Query("reason"))

	groups, total, err := s.dedup.ListGroups(c.Request.Context(), tenantID, reason, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, PageResponse{Items: groups, Total: total, Page: page, Size: size})
}

// SetKeepBest handles POST /v1/duplicate-groups/:id/keep.
func (s *DuplicateService) SetKeepBest(c *gin.Context) {
	tenantID, userID, err := identity(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid group id")
		return
	}

	var req SetKeepBestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := s.dedup.SetKeepBest(c.Request.Context(), tenantID, userID, groupID,
		uuid.MustParse(req.VersionID)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}

// Resolve handles POST /v1/duplicate-groups/:id/resolve.
func (s *DuplicateService) Resolve(c *gin.Context) {
	tenantID, _, err := identity(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid group id")
		return
	}

	var req ResolveGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := s.dedup.ResolveDuplicates(c.Request.Context(), tenantID, groupID,
		uuid.MustParse(req.KeepVersionID), doctypes.ResolveAction(req.Action))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Dismiss handles DELETE /v1/duplicate-groups/:id.
func (s *DuplicateService) Dismiss(c *gin.Context) {
	tenantID, _, err := identity(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid group id")
		return
	}

	if err := s.dedup.DismissGroup(c.Request.Context(), tenantID, groupID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}

// RunNearPass handles POST /v1/duplicate-groups/near-pass. It scans the
// tenant's extracted text for near duplicates; usually invoked by an
// external scheduler after enrichment settles.
func (s *DuplicateService) RunNearPass(c *gin.Context) {
	tenantID, _, err := identity(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	grouped, err := s.dedup.RunNearDuplicatePass(c.Request.Context(), tenantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	s.logger.Info("near duplicate pass finished",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("grouped_pairs", grouped))

	response.Success(c, gin.H{"grouped_pairs": grouped})
}
