package models

import (
	"context"
	"fmt"

	"github.com/lk2023060901/doc-hub-backend/internal/pkg/database"
	"go.uber.org/zap"
)

// AutoMigrate migrates all document pipeline tables
func AutoMigrate(ctx context.Context, db *database.DB) error {
	// Migrate in dependency order
	models := []interface{}{
		&Document{},
		&DocumentVersion{},
		&Upload{},
		&DuplicateGroup{},
		&DuplicateGroupVersion{},
		&DocumentIndex{},
		&Tag{},
		&DocumentTag{},
		&EnrichmentJob{},
	}

	for _, model := range models {
		if err := db.WithContext(ctx).AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	if err := createIndexes(ctx, db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createIndexes creates additional composite indexes
func createIndexes(ctx context.Context, db *database.DB) error {
	// Listing documents for a tenant, newest first
	if err := db.WithContext(ctx).Exec(`
		CREATE INDEX IF NOT EXISTS idx_doc_tenant_created
		ON documents(tenant_id, created_at DESC)
		WHERE deleted_at IS NULL
	`).Error; err != nil {
		return err
	}

	// Exact duplicate lookup during finalize
	if err := db.WithContext(ctx).Exec(`
		CREATE INDEX IF NOT EXISTS idx_version_sha256
		ON document_versions(sha256)
	`).Error; err != nil {
		return err
	}

	// Only one exact group per (tenant, digest)
	if err := db.WithContext(ctx).Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_dupgroup_exact
		ON duplicate_groups(tenant_id, sha256)
		WHERE reason = 'exact'
	`).Error; err != nil {
		return err
	}

	// Worker claim scan
	if err := db.WithContext(ctx).Exec(`
		CREATE INDEX IF NOT EXISTS idx_job_status_created
		ON enrichment_jobs(status, created_at)
	`).Error; err != nil {
		return err
	}

	// Reaping expired upload sessions
	if err := db.WithContext(ctx).Exec(`
		CREATE INDEX IF NOT EXISTS idx_upload_status_expires
		ON uploads(status, expires_at)
	`).Error; err != nil {
		return err
	}

	return nil
}

// DropTables drops all document pipeline tables (dangerous, tests only)
func DropTables(ctx context.Context, db *database.DB) error {
	// Drop in reverse order
	models := []interface{}{
		&EnrichmentJob{},
		&DocumentTag{},
		&Tag{},
		&DocumentIndex{},
		&DuplicateGroupVersion{},
		&DuplicateGroup{},
		&Upload{},
		&DocumentVersion{},
		&Document{},
	}

	for _, model := range models {
		if err := db.WithContext(ctx).Migrator().DropTable(model); err != nil {
			return fmt.Errorf("failed to drop table %T: %w", model, err)
		}
	}

	return nil
}

// MigrateWithLog runs migration with logging
func MigrateWithLog(ctx context.Context, db *database.DB, logger *zap.Logger) error {
	logger.Info("starting document schema migration")

	if err := AutoMigrate(ctx, db); err != nil {
		logger.Error("schema migration failed", zap.Error(err))
		return err
	}

	logger.Info("document schema migration completed")
	return nil
}
