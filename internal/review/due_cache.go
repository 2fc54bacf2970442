package review

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/pot-code/brain-trails/internal/infrastructure/driver"
	"github.com/pot-code/brain-trails/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// DueCountKey KV key caching the due count of a user
func DueCountKey(userID string) string {
	return "due_count:" + userID
}

// DueCountCache per user due counters in the KV store, a nil store or a non-positive TTL
// turns caching off
type DueCountCache struct {
	KVStore driver.KeyValueDB
	TTL     time.Duration
}

func NewDueCountCache(KVStore driver.KeyValueDB, TTL time.Duration) *DueCountCache {
	return &DueCountCache{KVStore, TTL}
}

func (dc *DueCountCache) enabled() bool {
	return dc != nil && dc.KVStore != nil && dc.TTL > 0
}

// Get cached count, false on a miss
func (dc *DueCountCache) Get(ctx context.Context, userID string) (int, bool) {
	if !dc.enabled() {
		return 0, false
	}
	v, err := dc.KVStore.Get(ctx, DueCountKey(userID))
	if err != nil {
		if !errors.Is(err, driver.ErrKeyNotFound) {
			logging.ExtractLoggerFromContext(ctx).Warn("failed to read due count cache", zap.Error(err))
		}
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (dc *DueCountCache) Set(ctx context.Context, userID string, n int) {
	if !dc.enabled() {
		return
	}
	if err := dc.KVStore.SetEX(ctx, DueCountKey(userID), strconv.Itoa(n), dc.TTL); err != nil {
		logging.ExtractLoggerFromContext(ctx).Warn("failed to cache due count", zap.Error(err))
	}
}

// InvalidateDueCount drop the cached count, called whenever the user's cards or schedules change
func (dc *DueCountCache) InvalidateDueCount(ctx context.Context, userID string) {
	if dc == nil || dc.KVStore == nil {
		return
	}
	if err := dc.KVStore.Del(ctx, DueCountKey(userID)); err != nil {
		logging.ExtractLoggerFromContext(ctx).Warn("failed to invalidate due count", zap.Error(err))
	}
}
