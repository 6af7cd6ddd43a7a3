package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
)

// DefaultSheetTTL bounds how long a snapshot may be served without reading
// the durable store.
const DefaultSheetTTL = 10 * time.Minute

// SheetCache serves sheet snapshots from Redis and falls through to the
// durable store on a miss. A Put invalidates the cached snapshot once the
// durable store accepted it. Redis failures are logged and otherwise
// ignored.
type SheetCache struct {
	cache  *Cache
	next   sheet.Store
	ttl    time.Duration
	logger *slog.Logger
}

var _ sheet.Store = (*SheetCache)(nil)

// NewSheetCache decorates next with cache.
func NewSheetCache(cache *Cache, next sheet.Store, ttl time.Duration, logger *slog.Logger) *SheetCache {
	if ttl <= 0 {
		ttl = DefaultSheetTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetCache{
		cache:  cache,
		next:   next,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "sheet_cache")),
	}
}

// Get implements sheet.Store.
func (s *SheetCache) Get(ctx context.Context, name sheet.Name) sheet.Snapshot {
	key := SheetKey(name.String())

	var cached sheet.Snapshot
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		cached.Name = name
		cached.Status = sheet.StatusOK
		return cached
	}
	if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("sheet cache read failed", slog.String("sheet", name.String()), slog.String("error", err.Error()))
	}

	snap := s.next.Get(ctx, name)
	if snap.Status != sheet.StatusOK {
		return snap
	}
	if err := s.cache.Set(ctx, key, snap, s.ttl); err != nil {
		s.logger.Warn("sheet cache fill failed", slog.String("sheet", name.String()), slog.String("error", err.Error()))
	}
	return snap
}

// Put implements sheet.Store.
func (s *SheetCache) Put(ctx context.Context, name sheet.Name, rows []sheet.Row, syncedAt time.Time) sheet.Status {
	status := s.next.Put(ctx, name, rows, syncedAt)
	if status != sheet.StatusOK {
		return status
	}
	if err := s.cache.Delete(ctx, SheetKey(name.String())); err != nil {
		s.logger.Warn("sheet cache invalidation failed", slog.String("sheet", name.String()), slog.String("error", err.Error()))
	}
	return status
}
