// Package pollcache maintains the per-tenant poll markers that let clients
// without realtime connectivity detect order changes by polling.
package pollcache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store touches and reads tenant poll markers.
type Store interface {
	Touch(ctx context.Context, tenantID string) error
	Version(ctx context.Context, tenantID string) (string, error)
}

// RedisStore keeps one marker key per tenant. The value is a nanosecond
// timestamp; last-write-wins is fine because polling clients only need
// "is there something new", not ordering.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func markerKey(tenantID string) string {
	return "tenant:" + tenantID + ":orders:version"
}

func (s *RedisStore) Touch(ctx context.Context, tenantID string) error {
	version := strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := s.rdb.Set(ctx, markerKey(tenantID), version, 0).Err(); err != nil {
		return fmt.Errorf("touch poll marker for tenant %s: %w", tenantID, err)
	}
	return nil
}

// Version returns the tenant's current marker, or "0" when the tenant has
// never been touched.
func (s *RedisStore) Version(ctx context.Context, tenantID string) (string, error) {
	v, err := s.rdb.Get(ctx, markerKey(tenantID)).Result()
	if err == redis.Nil {
		return "0", nil
	}
	if err != nil {
		return "", fmt.Errorf("read poll marker for tenant %s: %w", tenantID, err)
	}
	return v, nil
}
