package service

import (
	"context"
	"fmt"

	"github.com/pkordes/placebook/internal/domain"
	"github.com/pkordes/placebook/internal/geo"
	"github.com/pkordes/placebook/internal/repo"
)

// radiusTolerance absorbs the difference between the store's sphere radius
// and geo.EarthRadiusMeters when re-checking proximity results.
const radiusTolerance = 1 + 1e-5

// maxSearchLimit caps text search results.
const maxSearchLimit = 100

// SearchService implements proximity and text search.
type SearchService struct {
	places repo.PlaceRepo
}

// NewSearchService constructs a SearchService backed by the provided PlaceRepo.
func NewSearchService(places repo.PlaceRepo) *SearchService {
	return &SearchService{places: places}
}

// Near returns places within q.MaxDistanceMeters of q.Point, nearest first.
// Zero distance and limit fall back to the defaults; the limit is capped.
// Every store result is re-checked with the Haversine distance so nothing
// outside the radius is returned.
func (s *SearchService) Near(ctx context.Context, q domain.NearQuery) ([]domain.Place, error) {
	if !geo.ValidateCoordinates(q.Point.Lat, q.Point.Lng) {
		return nil, fmt.Errorf("%w: coordinates out of range", domain.ErrValidation)
	}
	switch {
	case q.MaxDistanceMeters < 0:
		return nil, fmt.Errorf("%w: max_distance must not be negative", domain.ErrValidation)
	case q.MaxDistanceMeters == 0:
		q.MaxDistanceMeters = domain.DefaultNearDistanceMeters
	}
	switch {
	case q.Limit < 0:
		return nil, fmt.Errorf("%w: limit must not be negative", domain.ErrValidation)
	case q.Limit == 0:
		q.Limit = domain.DefaultNearLimit
	case q.Limit > domain.MaxNearLimit:
		q.Limit = domain.MaxNearLimit
	}

	found, err := s.places.Near(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("service.SearchService.Near: %w", err)
	}

	out := make([]domain.Place, 0, len(found))
	for _, p := range found {
		d := geo.Haversine(q.Point.Lat, q.Point.Lng, p.Location.Point.Lat, p.Location.Point.Lng)
		if d <= q.MaxDistanceMeters*radiusTolerance {
			out = append(out, p)
		}
	}
	return out, nil
}

// Search returns places whose name or description matches any word of query.
// A query without letters or digits returns an empty result without
// touching the store.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]domain.Place, error) {
	terms := domain.SearchTerms(query)
	if len(terms) == 0 {
		return []domain.Place{}, nil
	}
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)

	found, err := s.places.Search(ctx, terms, limit)
	if err != nil {
		return nil, fmt.Errorf("service.SearchService.Search: %w", err)
	}
	return found, nil
}
