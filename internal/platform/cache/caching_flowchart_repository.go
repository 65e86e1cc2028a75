// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"flowchart_backend/internal/feature/flowchart/domain/entity"
	"flowchart_backend/internal/feature/flowchart/usecase"
)

// maxItemTTL caps how long a single flowchart stays cached.
const maxItemTTL = time.Minute

// CachingFlowChartRepository decorates a FlowChartRepository with Redis read-through caching.
// Keys are scoped by owner so one user's entries are never served to another.
//
// 読み込みのミス時の書き戻しと更新時の無効化はアトミックではありません。
// 古い値を読んだ FindByID が UpdateDiagram の Del の後に Set すると、古いエントリが TTL まで残ります。
// 単一レコードの TTL は maxItemTTL で上限を設けて、この不整合の期間を短くしています。
type CachingFlowChartRepository struct {
	inner     usecase.FlowChartRepository
	rdb       *redis.Client
	ttl       time.Duration
	itemTTL   time.Duration
	namespace string
}

var _ usecase.FlowChartRepository = (*CachingFlowChartRepository)(nil)

// NewCachingFlowChartRepository decorates a FlowChartRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. Single records use the smaller of ttl and maxItemTTL.
// If namespace is empty, it uses "flowcharts".
// A nil rdb disables caching and every call goes to inner.
func NewCachingFlowChartRepository(rdb *redis.Client, ttl time.Duration, inner usecase.FlowChartRepository, namespace string) *CachingFlowChartRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "flowcharts"
	}
	return &CachingFlowChartRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		itemTTL:   min(ttl, maxItemTTL),
		namespace: namespace,
	}
}

// Create stores the record and invalidates the owner's cached list.
func (c *CachingFlowChartRepository) Create(ctx context.Context, f *entity.FlowChart) error {
	if err := c.inner.Create(ctx, f); err != nil {
		return err
	}
	c.invalidate(ctx, c.listKey(f.UserID))
	return nil
}

// FindByID checks the cache first and falls back to the database.
func (c *CachingFlowChartRepository) FindByID(ctx context.Context, owner, id uuid.UUID) (*entity.FlowChart, error) {
	if c.rdb == nil {
		return c.inner.FindByID(ctx, owner, id)
	}

	key := c.itemKey(owner, id)
	var cached entity.FlowChart
	if c.get(ctx, key, &cached) {
		return &cached, nil
	}

	f, err := c.inner.FindByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, f, c.itemTTL)
	return f, nil
}

// ListByOwner checks the cache first and falls back to the database.
func (c *CachingFlowChartRepository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]entity.FlowChart, error) {
	if c.rdb == nil {
		return c.inner.ListByOwner(ctx, owner)
	}

	key := c.listKey(owner)
	var cached []entity.FlowChart
	if c.get(ctx, key, &cached) {
		return cached, nil
	}

	out, err := c.inner.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, out, c.ttl)
	return out, nil
}

// UpdateDiagram updates the record and invalidates the item and the owner's list.
func (c *CachingFlowChartRepository) UpdateDiagram(ctx context.Context, owner, id uuid.UUID, diagram string) (*entity.FlowChart, error) {
	f, err := c.inner.UpdateDiagram(ctx, owner, id, diagram)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, c.itemKey(owner, id), c.listKey(owner))
	return f, nil
}

// Delete removes the record and invalidates the item and the owner's list.
func (c *CachingFlowChartRepository) Delete(ctx context.Context, owner, id uuid.UUID) error {
	if err := c.inner.Delete(ctx, owner, id); err != nil {
		return err
	}
	c.invalidate(ctx, c.itemKey(owner, id), c.listKey(owner))
	return nil
}

func (c *CachingFlowChartRepository) get(ctx context.Context, key string, dst any) bool {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil || len(b) == 0 {
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
		return false
	}
	return true
}

// set stores v in the cache (best effort).
func (c *CachingFlowChartRepository) set(ctx context.Context, key string, v any, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		slog.Debug("cache set failed", "key", key, "error", err)
	}
}

// invalidate deletes keys (best effort). A failed delete leaves a stale entry until its TTL expires.
func (c *CachingFlowChartRepository) invalidate(ctx context.Context, keys ...string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("cache invalidation failed", "keys", keys, "error", err)
	}
}

func (c *CachingFlowChartRepository) ownerPrefix(owner uuid.UUID) string {
	return fmt.Sprintf("%s:%s:", safe(c.namespace), owner)
}

func (c *CachingFlowChartRepository) itemKey(owner, id uuid.UUID) string {
	return c.ownerPrefix(owner) + id.String()
}

func (c *CachingFlowChartRepository) listKey(owner uuid.UUID) string {
	return c.ownerPrefix(owner) + "list"
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
