package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lk2023060901/doc-hub-backend/internal/conf"
	"github.com/lk2023060901/doc-hub-backend/internal/data"
	"github.com/lk2023060901/doc-hub-backend/internal/document/biz"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	"github.com/lk2023060901/doc-hub-backend/internal/document/processor"
	"github.com/lk2023060901/doc-hub-backend/internal/document/queue"
	"github.com/lk2023060901/doc-hub-backend/internal/document/repository"
	"github.com/lk2023060901/doc-hub-backend/internal/document/service"
	"github.com/lk2023060901/doc-hub-backend/internal/document/storage"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/logger"
	"github.com/lk2023060901/doc-hub-backend/internal/server"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
)

func main() {
	flag.Parse()

	// Load configuration
	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger with config
	logConfig := &logger.Config{
		Level:            config.Log.Level,
		Format:           config.Log.Format,
		Output:           config.Log.Output,
		EnableCaller:     config.Log.EnableCaller,
		EnableStacktrace: config.Log.EnableStacktrace,
		File: logger.FileConfig{
			Filename:   config.Log.File.Filename,
			MaxSize:    config.Log.File.MaxSize,
			MaxAge:     config.Log.File.MaxAge,
			MaxBackups: config.Log.File.MaxBackups,
			Compress:   config.Log.File.Compress,
		},
	}

	log, err := logger.New(logConfig)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if err := logger.InitGlobal(logConfig); err != nil {
		log.Fatal("failed to initialize global logger", zap.Error(err))
	}

	log.Info("config loaded successfully")

	// Initialize data layer
	d, cleanup, err := data.NewData(config, log)
	if err != nil {
		log.Fatal("failed to initialize data layer", zap.Error(err))
	}
	defer cleanup()

	// Schema migration
	if err := models.MigrateWithLog(context.Background(), d.DB, log.Logger); err != nil {
		log.Fatal("failed to migrate schema", zap.Error(err))
	}

	// Repositories
	docRepo := repository.NewDocumentRepository(d.DB)
	versionRepo := repository.NewVersionRepository(d.DB)
	uploadRepo := repository.NewUploadRepository(d.DB)
	dupRepo := repository.NewDuplicateRepository(d.DB)
	indexRepo := repository.NewIndexRepository(d.DB)
	jobRepo := repository.NewJobRepository(d.DB)
	tagRepo := repository.NewTagRepository(d.DB)

	// Storage gateway and job queue
	store := storage.NewMinIOGateway(d.MinIO)
	jobQueue := queue.New(jobRepo, d.Redis, log)

	// Use cases
	statusUseCase := biz.NewStatusUseCase(docRepo, tagRepo, log)
	dedupUseCase := biz.NewDedupUseCase(dupRepo, versionRepo, docRepo, indexRepo, statusUseCase, log)
	uploadUseCase := biz.NewUploadUseCase(uploadRepo, docRepo, store, config.Upload, log)
	ingestUseCase := biz.NewIngestUseCase(uploadRepo, docRepo, versionRepo, dedupUseCase, store, jobQueue, log)
	auditUseCase := biz.NewAuditUseCase(versionRepo, store, config.Audit, config.Mail, log)

	// Enrichment processors and worker
	dispatcher := processor.NewDispatcher(
		docRepo,
		versionRepo,
		jobRepo,
		statusUseCase,
		processor.NewExtractor(store, indexRepo),
		processor.NewThumbnailer(store),
		processor.NewPreviewer(store),
		log,
	)
	worker := queue.NewWorker(jobQueue, dispatcher, config.Worker.Count, config.Worker.PollInterval, log)
	worker.Start(context.Background())
	defer worker.Stop()

	// Services
	svcs := server.Services{
		Upload:    service.NewUploadService(uploadUseCase, ingestUseCase, log),
		Document:  service.NewDocumentService(statusUseCase, versionRepo, jobRepo, tagRepo, log),
		Duplicate: service.NewDuplicateService(dedupUseCase, log),
		Admin:     service.NewAdminService(auditUseCase, worker, jobRepo, log),
	}

	httpServer := server.NewHTTPServer(config, log.Logger, svcs)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	log.Info("server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
