package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pkordes/placebook/internal/aggregate"
	"github.com/pkordes/placebook/internal/domain"
	"github.com/pkordes/placebook/internal/logger"
	"github.com/pkordes/placebook/internal/repo"
)

// AggregateService runs the tag histogram and top-rated pipelines over rows
// read from the store, serving from the cache when it can.
type AggregateService struct {
	source repo.AggregateSource
	places repo.PlaceRepo
	cache  AggregateCache
}

// NewAggregateService constructs an AggregateService. cache may be nil.
func NewAggregateService(source repo.AggregateSource, places repo.PlaceRepo, cache AggregateCache) *AggregateService {
	return &AggregateService{source: source, places: places, cache: orNoCache(cache)}
}

// TagHistogram returns how many places carry each tag, most used first.
// Cache errors are logged and treated as a miss.
func (s *AggregateService) TagHistogram(ctx context.Context) ([]domain.TagCount, error) {
	log := logger.FromContext(ctx)

	cached, ok, err := s.cache.TagHistogram(ctx)
	if err != nil {
		log.Warn("aggregate cache read failed", zap.Error(err))
	}
	if ok {
		return cached, nil
	}

	rows, err := s.source.PlaceTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.AggregateService.TagHistogram: %w", err)
	}
	counts := aggregate.TagHistogram(rows)

	if err := s.cache.SetTagHistogram(ctx, counts); err != nil {
		log.Warn("aggregate cache write failed", zap.Error(err))
	}
	return counts, nil
}

// TopRated returns up to ten places with at least two ratings, best average first.
func (s *AggregateService) TopRated(ctx context.Context) ([]domain.TopPlace, error) {
	log := logger.FromContext(ctx)

	cached, ok, err := s.cache.TopRated(ctx)
	if err != nil {
		log.Warn("aggregate cache read failed", zap.Error(err))
	}
	if ok {
		return cached, nil
	}

	rows, err := s.source.RatedPlaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.AggregateService.TopRated: %w", err)
	}
	top := aggregate.TopRated(rows, aggregate.TopRatedLimit)

	if err := s.cache.SetTopRated(ctx, top); err != nil {
		log.Warn("aggregate cache write failed", zap.Error(err))
	}
	return top, nil
}

// TagListing builds the tag page: the histogram and the places carrying tag,
// fetched concurrently. An empty tag lists every tagged place.
func (s *AggregateService) TagListing(ctx context.Context, tag string) (domain.TagPage, error) {
	page := domain.TagPage{Tag: tag}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page.Tags, err = s.TagHistogram(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		page.Places, err = s.places.ListByTag(gctx, tag)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.TagPage{}, fmt.Errorf("service.AggregateService.TagListing: %w", err)
	}
	return page, nil
}
