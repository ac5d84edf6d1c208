// Command migrate applies the schema and supporting indexes, so
// deployments can migrate explicitly instead of relying on the API
// server's startup migration. -drop recreates everything from scratch.
package main

import (
	"context"
	"flag"

	"github.com/lk2023060901/doc-hub-backend/internal/conf"
	"github.com/lk2023060901/doc-hub-backend/internal/data"
	"github.com/lk2023060901/doc-hub-backend/internal/document/models"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
	drop       = flag.Bool("drop", false, "drop all tables before migrating (destroys data)")
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

	ctx := context.Background()

	d, cleanup, err := data.NewData(config, log)
	if err != nil {
		log.Fatal("failed to initialize data layer", zap.Error(err))
	}
	defer cleanup()

	if *drop {
		log.Warn("dropping all tables")
		if err := models.DropTables(ctx, d.DB); err != nil {
			log.Fatal("failed to drop tables", zap.Error(err))
		}
	}

	if err := models.MigrateWithLog(ctx, d.DB, log.Logger); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	log.Info("migration completed")
}
