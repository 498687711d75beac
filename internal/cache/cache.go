// Package cache stores short-lived JSON snapshots (catalog lists, dashboard
// stats) in Redis or, when no Redis is configured, in process memory.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

const (
	KeyCategories     = "warehouse:categories"
	KeyUnits          = "warehouse:units"
	KeyDashboardStats = "warehouse:dashboard:stats"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// GetJSON decodes the cached value at key into dst.
func GetJSON(ctx context.Context, c Cache, key string, dst interface{}) error {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, c Cache, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, raw, ttl)
}
