// Package resultcache caches flattened Dremio query results in Redis, keyed
// by a hash of the normalized SQL text. The upstream tables change on the
// EEA's publication cadence, so a short TTL is safe.
package resultcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eea-wise/waterdata-api/internal/observability"
)

type Option func(*redis.Options)

func WithPoolSize(n int) Option {
	return func(o *redis.Options) { o.PoolSize = n }
}

func WithDialTimeout(d time.Duration) Option {
	return func(o *redis.Options) { o.DialTimeout = d }
}

// WithOpTimeout bounds individual reads and writes. The cache sits on the hot
// path, so this should stay well under the Dremio query timeout.
func WithOpTimeout(d time.Duration) Option {
	return func(o *redis.Options) {
		o.ReadTimeout = d
		o.WriteTimeout = d
	}
}

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(ctx context.Context, addr string, ttl time.Duration, opts ...Option) (*Cache, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	ro := &redis.Options{
		Addr:         addr,
		PoolSize:     64,
		MinIdleConns: 4,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	}
	for _, f := range opts {
		f(ro)
	}

	rdb := redis.NewClient(ro)

	start := time.Now()
	err := rdb.Ping(ctx).Err()
	observability.ObserveCacheOp("ping", err, time.Since(start).Seconds())
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Cache{rdb: rdb, ttl: ttl}, nil
}

// Get returns the cached rows for the SQL text, or ok=false on a miss. Cache
// errors degrade to a miss; the caller always has the lake to fall back on.
func (c *Cache) Get(ctx context.Context, sql string) ([]map[string]any, bool) {
	start := time.Now()
	raw, err := c.rdb.Get(ctx, Key(sql)).Bytes()
	observability.ObserveCacheOp("get", ignoreNil(err), time.Since(start).Seconds())
	if err != nil {
		observability.IncCacheMiss()
		return nil, false
	}

	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		observability.IncCacheMiss()
		return nil, false
	}
	observability.IncCacheHit()
	return rows, true
}

// Put stores the rows under the SQL key. Failures are reported but are not
// fatal for the request that produced the rows.
func (c *Cache) Put(ctx context.Context, sql string, rows []map[string]any) error {
	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal cached rows: %w", err)
	}

	start := time.Now()
	err = c.rdb.Set(ctx, Key(sql), raw, c.ttl).Err()
	observability.ObserveCacheOp("set", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redis SET: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	if err := c.rdb.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}

func ignoreNil(err error) error {
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
