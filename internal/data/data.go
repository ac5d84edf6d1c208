package data

import (
	"context"
	"fmt"

	"github.com/lk2023060901/doc-hub-backend/internal/conf"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/database"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/logger"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/minio"
	"github.com/lk2023060901/doc-hub-backend/internal/pkg/redis"
)

// Data bundles the shared infrastructure handles. Constructed once in
// main and passed down; nothing here is a package-level singleton.
type Data struct {
	DB    *database.DB
	Redis *redis.Client
	MinIO *minio.Client
}

// NewData connects to PostgreSQL, Redis and MinIO and ensures the
// content bucket exists.
func NewData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	dbCfg := database.DefaultConfig()
	dbCfg.Host = config.Database.Host
	dbCfg.Port = config.Database.Port
	dbCfg.User = config.Database.User
	dbCfg.Password = config.Database.Password
	dbCfg.DBName = config.Database.DBName
	dbCfg.SSLMode = config.Database.SSLMode
	dbCfg.AutoMigrate = true

	db, err := database.New(dbCfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init database: %w", err)
	}

	redisCfg := redis.DefaultConfig()
	redisCfg.Addr = config.Redis.Addr
	redisCfg.Password = config.Redis.Password
	redisCfg.DB = config.Redis.DB

	redisClient, err := redis.New(redisCfg, log)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to init redis: %w", err)
	}

	minioCfg := &minio.Config{
		Endpoint:        config.MinIO.Endpoint,
		AccessKeyID:     config.MinIO.AccessKey,
		SecretAccessKey: config.MinIO.SecretKey,
		UseSSL:          config.MinIO.UseSSL,
		Bucket:          config.MinIO.Bucket,
	}
	minioCfg.SetDefaults()

	minioClient, err := minio.NewClient(minioCfg, log)
	if err != nil {
		redisClient.Close()
		db.Close()
		return nil, nil, fmt.Errorf("failed to init minio: %w", err)
	}
	if err := minioClient.EnsureBucket(context.Background()); err != nil {
		redisClient.Close()
		db.Close()
		return nil, nil, fmt.Errorf("failed to ensure bucket: %w", err)
	}

	d := &Data{
		DB:    db,
		Redis: redisClient,
		MinIO: minioClient,
	}

	cleanup := func() {
		log.Info("cleaning up data resources")
		redisClient.Close()
		db.Close()
	}

	return d, cleanup, nil
}
