package service

import (
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/doc-hub-backend/internal/document/biz"
	"github.com/lk2023060901/doc-hub-backend/internal/document/queue"
	"github.com/lk2023060901/doc-hub-backend/internal/document/repository"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/logger"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/response"
)

// AdminService exposes operational endpoints: the hash audit, manual
// job processing and queue introspection.
type AdminService struct {
	audit  *biz.AuditUseCase
	worker *queue.Worker
	jobs   repository.JobRepository
	logger *logger.Logger
}

// NewAdminService creates the admin service.
func NewAdminService(audit *biz.AuditUseCase, worker *queue.Worker, jobs repository.JobRepository, log *logger.Logger) *AdminService {
	return &AdminService{
		audit:  audit,
		worker: worker,
		jobs:   jobs,
		logger: log,
	}
}

// RunHashAudit handles POST /v1/admin/hash-audit.
func (s *AdminService) RunHashAudit(c *gin.Context) {
	var req RunAuditRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request body")
			return
		}
		if err := req.Validate(); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	report, err := s.audit.RunHashAudit(c.Request.Context(), req.SampleSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, report)
}

// ProcessOneJob handles POST /v1/admin/jobs/process-one, for external
// schedulers that drive the queue without long-lived workers.
func (s *AdminService) ProcessOneJob(c *gin.Context) {
	processed, err := s.worker.ProcessOne(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"processed": processed})
}

// QueueStats handles GET /v1/admin/jobs/stats.
func (s *AdminService) QueueStats(c *gin.Context) {
	counts, err := s.jobs.CountByStatus(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, counts)
}
