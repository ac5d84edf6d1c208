package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/doc-hub-backend/internal/conf"
	"github.com/lk2023060901/doc-hub-backend/internal/document/service"
	"go.uber.org/zap"
)

// Services bundles the HTTP-facing services for route registration.
type Services struct {
	Upload    *service.UploadService
	Document  *service.DocumentService
	Duplicate *service.DuplicateService
	Admin     *service.AdminService
}

type HTTPServer struct {
	server *http.Server
	logger *zap.Logger
}

func NewHTTPServer(config *conf.Config, logger *zap.Logger, svcs Services) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api/v1")
	registerRoutes(api, svcs)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)

	return &HTTPServer{
		server: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		logger: logger,
	}
}

func registerRoutes(api *gin.RouterGroup, svcs Services) {
	uploads := api.Group("/uploads")
	{
		uploads.POST("", svcs.Upload.RequestUpload)
		uploads.POST("/:id/uploaded", svcs.Upload.MarkUploaded)
		uploads.POST("/:id/finalize", svcs.Upload.Finalize)
		uploads.DELETE("/:id", svcs.Upload.Cancel)
	}

	docs := api.Group("/documents")
	{
		docs.GET("", svcs.Document.List)
		docs.POST("/bulk", svcs.Document.BulkAction)
		docs.GET("/:id", svcs.Document.Get)
		docs.GET("/:id/versions", svcs.Document.ListVersions)
		docs.GET("/:id/jobs", svcs.Document.ListJobs)
		docs.PUT("/:id/status", svcs.Document.UpdateStatus)
	}

	groups := api.Group("/duplicate-groups")
	{
		groups.GET("", svcs.Duplicate.List)
		groups.POST("/near-pass", svcs.Duplicate.RunNearPass)
		groups.POST("/:id/keep", svcs.Duplicate.SetKeepBest)
		groups.POST("/:id/resolve", svcs.Duplicate.Resolve)
		groups.DELETE("/:id", svcs.Duplicate.Dismiss)
	}

	admin := api.Group("/admin")
	{
		admin.POST("/hash-audit", svcs.Admin.RunHashAudit)
		admin.POST("/jobs/process-one", svcs.Admin.ProcessOneJob)
		admin.GET("/jobs/stats", svcs.Admin.QueueStats)
	}
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
