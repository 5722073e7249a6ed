// Package cache stores computed aggregation results in Redis so the tag
// histogram and top-rated list are not recomputed on every request.
// Entries expire after a TTL and are dropped explicitly whenever a place is
// created or updated, or a rating is added.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pkordes/placebook/internal/domain"
	"github.com/pkordes/placebook/internal/metrics"
)

// Keys of the cached pipelines.
const (
	KeyTagHistogram = "placebook:aggregate:tags"
	KeyTopRated     = "placebook:aggregate:top"
)

// NewClient returns a Redis client for addr, or nil when addr is empty so
// callers can run without a cache.
func NewClient(addr, password string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}

// Aggregates is a Redis-backed cache of aggregation results.
type Aggregates struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewAggregates returns a cache writing entries with the given TTL.
func NewAggregates(rdb redis.Cmdable, ttl time.Duration) *Aggregates {
	return &Aggregates{rdb: rdb, ttl: ttl}
}

// TagHistogram returns the cached histogram. ok is false on a miss.
func (c *Aggregates) TagHistogram(ctx context.Context) (counts []domain.TagCount, ok bool, err error) {
	ok, err = get(ctx, c.rdb, KeyTagHistogram, "tags", &counts)
	if err != nil {
		return nil, false, fmt.Errorf("cache.Aggregates.TagHistogram: %w", err)
	}
	return counts, ok, nil
}

// SetTagHistogram stores the histogram.
func (c *Aggregates) SetTagHistogram(ctx context.Context, counts []domain.TagCount) error {
	if err := set(ctx, c.rdb, KeyTagHistogram, counts, c.ttl); err != nil {
		return fmt.Errorf("cache.Aggregates.SetTagHistogram: %w", err)
	}
	return nil
}

// TopRated returns the cached top-rated list. ok is false on a miss.
func (c *Aggregates) TopRated(ctx context.Context) (top []domain.TopPlace, ok bool, err error) {
	ok, err = get(ctx, c.rdb, KeyTopRated, "top", &top)
	if err != nil {
		return nil, false, fmt.Errorf("cache.Aggregates.TopRated: %w", err)
	}
	return top, ok, nil
}

// SetTopRated stores the top-rated list.
func (c *Aggregates) SetTopRated(ctx context.Context, top []domain.TopPlace) error {
	if err := set(ctx, c.rdb, KeyTopRated, top, c.ttl); err != nil {
		return fmt.Errorf("cache.Aggregates.SetTopRated: %w", err)
	}
	return nil
}

// Invalidate drops every cached pipeline.
func (c *Aggregates) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, KeyTagHistogram, KeyTopRated).Err(); err != nil {
		return fmt.Errorf("cache.Aggregates.Invalidate: %w", err)
	}
	return nil
}

func get(ctx context.Context, rdb redis.Cmdable, key, pipeline string, dest any) (bool, error) {
	raw, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.AggregateCacheTotal.WithLabelValues(pipeline, "miss").Inc()
		return false, nil
	}
	if err != nil {
		metrics.AggregateCacheTotal.WithLabelValues(pipeline, "error").Inc()
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		metrics.AggregateCacheTotal.WithLabelValues(pipeline, "error").Inc()
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	metrics.AggregateCacheTotal.WithLabelValues(pipeline, "hit").Inc()
	return true, nil
}

func set(ctx context.Context, rdb redis.Cmdable, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return rdb.Set(ctx, key, raw, ttl).Err()
}
