package di

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"flowchart_backend/internal/config"
	"flowchart_backend/internal/feature/flowchart/adapters"
	"flowchart_backend/internal/feature/flowchart/usecase"
	"flowchart_backend/internal/platform/cache"
	"flowchart_backend/internal/platform/storage/minio"
)

// NewFlowChartRepository creates a FlowChartRepository implementation.
// If Redis is available, the gorm repository is wrapped with a read-through cache.
func NewFlowChartRepository(db *gorm.DB, rdb *redis.Client, ttl time.Duration) usecase.FlowChartRepository {
	repo := adapters.NewFlowChartGorm(db)
	if rdb == nil {
		return repo
	}
	return cache.NewCachingFlowChartRepository(rdb, ttl, repo, "flowcharts")
}

// NewSourceStore creates the object storage for uploaded source files.
// It returns a nil SourceStore when no endpoint is configured.
func NewSourceStore(ctx context.Context, cfg config.Storage) (usecase.SourceStore, error) {
	store, err := minio.NewStore(ctx, cfg)
	if err != nil || store == nil {
		return nil, err
	}
	return store, nil
}
