package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/placebook/internal/domain"
	"github.com/pkordes/placebook/internal/repo"
)

// Bounds of a rating score.
const (
	minRating = 1
	maxRating = 5
)

// RatingService records ratings left on places.
type RatingService struct {
	ratings repo.RatingRepo
	places  repo.PlaceRepo
	cache   AggregateCache
}

// NewRatingService constructs a RatingService. cache may be nil.
func NewRatingService(ratings repo.RatingRepo, places repo.PlaceRepo, cache AggregateCache) *RatingService {
	return &RatingService{ratings: ratings, places: places, cache: orNoCache(cache)}
}

// Add records user's rating of placeID and drops the cached aggregates so the
// top-rated list reflects it on the next read.
// Returns domain.ErrUnauthenticated, domain.ErrValidation for a score outside
// 1..5, or domain.ErrNotFound for an unknown place.
func (s *RatingService) Add(ctx context.Context, user domain.UserID, placeID uuid.UUID, score float64, text string) (domain.Rating, error) {
	if user.IsZero() {
		return domain.Rating{}, fmt.Errorf("service.RatingService.Add: %w", domain.ErrUnauthenticated)
	}
	// Written negated so NaN is rejected too.
	if !(score >= minRating && score <= maxRating) {
		return domain.Rating{}, fmt.Errorf("%w: rating must be between %d and %d", domain.ErrValidation, minRating, maxRating)
	}
	if _, err := s.places.GetByID(ctx, placeID); err != nil {
		return domain.Rating{}, fmt.Errorf("service.RatingService.Add: %w", err)
	}

	saved, err := s.ratings.Add(ctx, domain.Rating{
		PlaceID:  placeID,
		Rating:   score,
		Text:     strings.TrimSpace(text),
		AuthorID: user,
	})
	if err != nil {
		return domain.Rating{}, fmt.Errorf("service.RatingService.Add: %w", err)
	}
	invalidateAggregates(ctx, s.cache)
	return saved, nil
}
