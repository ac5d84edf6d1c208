// Command expire-uploads sweeps presigned upload sessions whose
// deadline passed, failing the session and removing any quarantine
// bytes the client left behind. Intended for cron-style invocation.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/lk2023060901/doc-hub-backend/internal/conf"
	"github.com/lk2023060901/doc-hub-backend/internal/data"
	"github.com/lk2023060901/doc-hub-backend/internal/document/biz"
	"github.com/lk2023060901/doc-hub-backend/internal/document/repository"
	"github.com/lk2023060901/doc-hub-backend/internal/document/storage"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
	batchSize  = flag.Int("batch", 500, "max sessions to expire per run")
)

func main() {
	flag.Parse()

	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  config.Log.Level,
		Format: config.Log.Format,
		Output: "stdout",
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	d, cleanup, err := data.NewData(config, log)
	if err != nil {
		log.Fatal("failed to initialize data layer", zap.Error(err))
	}
	defer cleanup()

	uploadRepo := repository.NewUploadRepository(d.DB)
	docRepo := repository.NewDocumentRepository(d.DB)
	store := storage.NewMinIOGateway(d.MinIO)
	uploads := biz.NewUploadUseCase(uploadRepo, docRepo, store, config.Upload, log)

	expired, err := uploads.ExpireStale(context.Background(), time.Now(), *batchSize)
	if err != nil {
		log.Fatal("expiry sweep failed", zap.Error(err))
	}

	fmt.Printf("expired %d stale upload session(s)\n", expired)
}
