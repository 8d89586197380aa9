package blob

import (
	"context"
	"fmt"

	fsstore "essaycore/internal/infra/blob/fs"
	pgstore "essaycore/internal/infra/blob/postgres"
	redisstore "essaycore/internal/infra/blob/redis"
	s3store "essaycore/internal/infra/blob/s3"
	sqlitestore "essaycore/internal/infra/blob/sqlite"
)

// S3Config mirrors the S3 backend settings.
type S3Config = s3store.Config

// Config selects and parameterizes a blob backend.
type Config struct {
	Driver      Driver
	FSRoot      string // driver=fs, default ./blobdata
	SQLitePath  string // driver=sqlite, default essaycore.db
	PostgresDSN string // driver=postgres
	RedisURL    string // driver=redis
	RedisPrefix string // driver=redis, key namespace
	S3          S3Config
}

// Open constructs the backend named by cfg.Driver (default fs).
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return fsstore.New(cfg.FSRoot)
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return sqlitestore.New(ctx, cfg.SQLitePath)
	case DriverPostgres:
		return pgstore.New(ctx, cfg.PostgresDSN)
	case DriverRedis:
		return redisstore.New(ctx, redisstore.Config{URL: cfg.RedisURL, Namespace: cfg.RedisPrefix})
	case DriverS3:
		return s3store.New(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
