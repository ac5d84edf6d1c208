// Command hashaudit runs one hash audit pass and prints the report.
// Intended for cron-style invocation next to the API server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

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
	sampleSize = flag.Int("sample", 0, "versions to sample (0 uses the configured default)")
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

	versionRepo := repository.NewVersionRepository(d.DB)
	store := storage.NewMinIOGateway(d.MinIO)
	audit := biz.NewAuditUseCase(versionRepo, store, config.Audit, config.Mail, log)

	report, err := audit.RunHashAudit(context.Background(), *sampleSize)
	if err != nil {
		log.Fatal("hash audit failed", zap.Error(err))
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatal("failed to encode report", zap.Error(err))
	}
	fmt.Println(string(out))

	if len(report.Mismatched) > 0 {
		os.Exit(1)
	}
}
