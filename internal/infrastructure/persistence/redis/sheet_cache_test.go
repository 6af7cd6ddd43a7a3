package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
	"github.com/halaqat-hub/halaqat-reports/internal/infrastructure/persistence/memory"
)

func setupSheetCache(t *testing.T) (*miniredis.Miniredis, *SheetCache, *memory.SheetStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	durable := memory.NewSheetStore(nil)
	return mr, NewSheetCache(NewCacheFromClient(client), durable, time.Minute, nil), durable
}

func TestSheetCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	mr, cache, durable := setupSheetCache(t)
	rows := []sheet.Row{sheet.RowOf("teacher_id", "7", "المعلم", "خالد")}
	durable.Put(ctx, sheet.Teachers, rows, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))

	first := cache.Get(ctx, sheet.Teachers)
	require.Equal(t, sheet.StatusOK, first.Status)
	assert.True(t, mr.Exists(SheetKey("teachers")))

	// Served from redis even though the durable copy moved on.
	durable.Put(ctx, sheet.Teachers, nil, time.Time{})
	second := cache.Get(ctx, sheet.Teachers)
	assert.Equal(t, sheet.StatusOK, second.Status)
	assert.True(t, rows[0].Equal(second.Rows[0]))
	assert.True(t, first.Meta.LastSync.Equal(second.Meta.LastSync))
	assert.Equal(t, first.Meta.Version, second.Meta.Version)
}

func TestSheetCache_PutInvalidates(t *testing.T) {
	ctx := context.Background()
	mr, cache, _ := setupSheetCache(t)

	cache.Put(ctx, sheet.Daily, []sheet.Row{sheet.RowOf("id", "1")}, time.Time{})
	cache.Get(ctx, sheet.Daily)
	require.True(t, mr.Exists(SheetKey("daily")))

	status := cache.Put(ctx, sheet.Daily, []sheet.Row{sheet.RowOf("id", "2")}, time.Time{})

	assert.Equal(t, sheet.StatusOK, status)
	assert.False(t, mr.Exists(SheetKey("daily")))
	assert.Equal(t, "2", cache.Get(ctx, sheet.Daily).Rows[0].Text("id"))
}

func TestSheetCache_MissingIsNotCached(t *testing.T) {
	ctx := context.Background()
	mr, cache, _ := setupSheetCache(t)

	snap := cache.Get(ctx, sheet.Exams)

	assert.Equal(t, sheet.StatusMissing, snap.Status)
	assert.False(t, mr.Exists(SheetKey("exam")))
}

func TestSheetCache_RedisDownFallsThrough(t *testing.T) {
	ctx := context.Background()
	mr, cache, durable := setupSheetCache(t)
	durable.Put(ctx, sheet.Report, []sheet.Row{sheet.RowOf("id", "1")}, time.Time{})
	mr.Close()

	snap := cache.Get(ctx, sheet.Report)
	assert.Equal(t, sheet.StatusOK, snap.Status)
	assert.Len(t, snap.Rows, 1)

	assert.Equal(t, sheet.StatusOK, cache.Put(ctx, sheet.Report, nil, time.Time{}))
}

func TestCache_Errors(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewCacheFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	defer c.Close()
	ctx := context.Background()

	var dest map[string]int
	assert.ErrorIs(t, c.Get(ctx, "absent", &dest), ErrCacheMiss)
	assert.ErrorIs(t, c.Set(ctx, "", 1, 0), ErrCacheKeyEmpty)

	require.NoError(t, c.Set(ctx, "k", map[string]int{"a": 1}, time.Minute))
	require.NoError(t, c.Get(ctx, "k", &dest))
	assert.Equal(t, 1, dest["a"])

	mr.Set("bad", "{not json")
	assert.ErrorIs(t, c.Get(ctx, "bad", &dest), ErrCacheSerialization)
}
