// Package service contains the business logic for the place directory.
// Services validate inputs, enforce ownership, assign slugs and orchestrate
// repo calls. No queries live here; services depend on repo interfaces,
// not implementations.
package service

import (
	"context"

	"github.com/pkordes/placebook/internal/domain"
)

// AggregateCache stores computed aggregation results. *cache.Aggregates
// satisfies it; a nil AggregateCache passed to a constructor disables caching.
type AggregateCache interface {
	TagHistogram(ctx context.Context) ([]domain.TagCount, bool, error)
	SetTagHistogram(ctx context.Context, counts []domain.TagCount) error
	TopRated(ctx context.Context) ([]domain.TopPlace, bool, error)
	SetTopRated(ctx context.Context, top []domain.TopPlace) error
	Invalidate(ctx context.Context) error
}

// noCache is used when no cache is configured: every lookup misses.
type noCache struct{}

func (noCache) TagHistogram(context.Context) ([]domain.TagCount, bool, error) { return nil, false, nil }
func (noCache) SetTagHistogram(context.Context, []domain.TagCount) error      { return nil }
func (noCache) TopRated(context.Context) ([]domain.TopPlace, bool, error)     { return nil, false, nil }
func (noCache) SetTopRated(context.Context, []domain.TopPlace) error          { return nil }
func (noCache) Invalidate(context.Context) error                              { return nil }

func orNoCache(c AggregateCache) AggregateCache {
	if c == nil {
		return noCache{}
	}
	return c
}
