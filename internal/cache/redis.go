// Package cache keeps on-demand snapshots in Redis so that windows other than
// the board's are not reloaded on every request.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/MimoJanra/StatusPulse/internal/metrics"
	"github.com/MimoJanra/StatusPulse/internal/models"
)

const (
	// SnapshotKeyPrefix is followed by the window in days.
	SnapshotKeyPrefix = "statuspulse:snapshot:"
	DefaultTTL        = 30 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

func SnapshotKey(days int) string {
	return fmt.Sprintf("%s%d", SnapshotKeyPrefix, days)
}

// GetSnapshot returns the cached snapshot for the window. A miss is
// (nil, false, nil).
func (r *RedisCache) GetSnapshot(ctx context.Context, days int) (*models.Snapshot, bool, error) {
	data, err := r.client.Get(ctx, SnapshotKey(days)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMisses.Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get snapshot %d: %w", days, err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		metrics.CacheMisses.Inc()
		return nil, false, fmt.Errorf("decode snapshot %d: %w", days, err)
	}
	metrics.CacheHits.Inc()
	return &snap, true, nil
}

func (r *RedisCache) SetSnapshot(ctx context.Context, snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return r.client.Set(ctx, SnapshotKey(snap.WindowDays), data, r.ttl).Err()
}

// Invalidate drops the cached snapshots of the given windows.
func (r *RedisCache) Invalidate(ctx context.Context, windows ...int) error {
	if len(windows) == 0 {
		return nil
	}
	keys := make([]string, len(windows))
	for i, d := range windows {
		keys[i] = SnapshotKey(d)
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
