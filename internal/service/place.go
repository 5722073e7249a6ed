package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pkordes/placebook/internal/domain"
	"github.com/pkordes/placebook/internal/geo"
	"github.com/pkordes/placebook/internal/logger"
	"github.com/pkordes/placebook/internal/repo"
	"github.com/pkordes/placebook/internal/slug"
)

// maxSlugAttempts bounds how often a write is retried after the store
// reports that the resolved slug was taken in the meantime.
const maxSlugAttempts = 3

// PlaceService implements place creation, editing, lookup and listing.
type PlaceService struct {
	places  repo.PlaceRepo
	ratings repo.RatingRepo
	cache   AggregateCache
}

// NewPlaceService constructs a PlaceService. cache may be nil.
func NewPlaceService(places repo.PlaceRepo, ratings repo.RatingRepo, cache AggregateCache) *PlaceService {
	return &PlaceService{places: places, ratings: ratings, cache: orNoCache(cache)}
}

// Create validates in, assigns a unique slug and persists the place with
// in.AuthorID as its immutable author.
// Returns domain.ErrUnauthenticated without an author, domain.ErrValidation
// for bad input, and domain.ErrConflict if no free slug could be claimed.
func (s *PlaceService) Create(ctx context.Context, in domain.NewPlace) (domain.Place, error) {
	if in.AuthorID.IsZero() {
		return domain.Place{}, fmt.Errorf("service.PlaceService.Create: %w", domain.ErrUnauthenticated)
	}
	loc, err := validateLocation(in.Coordinates, in.Address)
	if err != nil {
		return domain.Place{}, err
	}
	place := domain.Place{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Tags:        cleanTags(in.Tags),
		Location:    loc,
		Photo:       in.Photo,
		AuthorID:    in.AuthorID,
	}
	if place.Name == "" {
		return domain.Place{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	created, err := s.writeWithSlug(ctx, place, s.places.Create)
	if err != nil {
		return domain.Place{}, fmt.Errorf("service.PlaceService.Create: %w", err)
	}
	invalidateAggregates(ctx, s.cache)
	return created, nil
}

// Update applies patch to the place with the given id on behalf of user.
// Only the author may edit. The slug is re-derived only when the name changes.
func (s *PlaceService) Update(ctx context.Context, user domain.UserID, id uuid.UUID, patch domain.PlacePatch) (domain.Place, error) {
	current, err := s.GetForEdit(ctx, user, id)
	if err != nil {
		return domain.Place{}, err
	}

	next := current
	if patch.Name != nil {
		next.Name = strings.TrimSpace(*patch.Name)
		if next.Name == "" {
			return domain.Place{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
		}
	}
	if patch.Description != nil {
		next.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Tags != nil {
		next.Tags = cleanTags(*patch.Tags)
	}
	if patch.Location != nil {
		loc, err := validateLocation(patch.Location.Coordinates, patch.Location.Address)
		if err != nil {
			return domain.Place{}, err
		}
		next.Location = loc
	}
	if patch.Photo != nil {
		next.Photo = *patch.Photo
	}

	var updated domain.Place
	if next.Name != current.Name {
		updated, err = s.writeWithSlug(ctx, next, s.places.Update)
	} else {
		updated, err = s.places.Update(ctx, next)
	}
	if err != nil {
		return domain.Place{}, fmt.Errorf("service.PlaceService.Update: %w", err)
	}
	invalidateAggregates(ctx, s.cache)
	return updated, nil
}

// GetForEdit returns the place only if user is its author.
// Returns domain.ErrUnauthenticated, domain.ErrNotFound or domain.ErrForbidden.
func (s *PlaceService) GetForEdit(ctx context.Context, user domain.UserID, id uuid.UUID) (domain.Place, error) {
	if user.IsZero() {
		return domain.Place{}, fmt.Errorf("service.PlaceService.GetForEdit: %w", domain.ErrUnauthenticated)
	}
	place, err := s.places.GetByID(ctx, id)
	if err != nil {
		return domain.Place{}, fmt.Errorf("service.PlaceService.GetForEdit: %w", err)
	}
	if place.AuthorID != user {
		return domain.Place{}, fmt.Errorf("service.PlaceService.GetForEdit: %w", domain.ErrForbidden)
	}
	return place, nil
}

// GetBySlug returns a place by slug. Ratings are attached only when
// includeRatings is true.
func (s *PlaceService) GetBySlug(ctx context.Context, sl string, includeRatings bool) (domain.Place, error) {
	place, err := s.places.GetBySlug(ctx, sl)
	if err != nil {
		return domain.Place{}, fmt.Errorf("service.PlaceService.GetBySlug: %w", err)
	}
	if includeRatings {
		ratings, err := s.ratings.ListByPlace(ctx, place.ID)
		if err != nil {
			return domain.Place{}, fmt.Errorf("service.PlaceService.GetBySlug: %w", err)
		}
		place.Ratings = ratings
	}
	return place, nil
}

// Page returns one page of the listing, newest first. The page and the total
// count are fetched concurrently. When the requested page is past the end the
// result carries a Correction pointing at the last page.
func (s *PlaceService) Page(ctx context.Context, page *int) (domain.PlacePage, error) {
	params := domain.NewPaginationParams(page, nil)

	var (
		items []domain.Place
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.places.List(gctx, params)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.places.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.PlacePage{}, fmt.Errorf("service.PlaceService.Page: %w", err)
	}

	result := domain.PlacePage{
		Places:     items,
		Page:       params.Page,
		TotalPages: params.TotalPages(total),
		Total:      total,
	}
	if len(items) == 0 && params.Offset() > 0 {
		result.Correction = &domain.RangeCorrection{
			Requested: params.Page,
			Target:    max(result.TotalPages, 1),
		}
	}
	return result, nil
}

// writeWithSlug resolves a slug for place and hands it to write, starting
// over when the store reports the slug was claimed concurrently.
func (s *PlaceService) writeWithSlug(
	ctx context.Context,
	place domain.Place,
	write func(context.Context, domain.Place) (domain.Place, error),
) (domain.Place, error) {
	candidate := slug.Derive(place.Name)

	var lastErr error
	for range maxSlugAttempts {
		matches, err := s.places.SlugsMatching(ctx, candidate, place.ID)
		if err != nil {
			return domain.Place{}, err
		}
		place.Slug = slug.Resolve(candidate, matches)

		saved, err := write(ctx, place)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return domain.Place{}, err
		}
		lastErr = err
		logger.FromContext(ctx).Info("slug taken, retrying",
			zap.String("slug", place.Slug),
		)
	}
	return domain.Place{}, lastErr
}

// invalidateAggregates drops cached aggregates after a write. A failure only
// means stale aggregates until the TTL passes, so it is logged and swallowed.
func invalidateAggregates(ctx context.Context, cache AggregateCache) {
	if err := cache.Invalidate(ctx); err != nil {
		logger.FromContext(ctx).Warn("aggregate cache invalidation failed", zap.Error(err))
	}
}

// validateLocation checks a [lng, lat] pair and a non-empty address.
func validateLocation(coords []float64, address string) (domain.Location, error) {
	if len(coords) != 2 {
		return domain.Location{}, fmt.Errorf("%w: coordinates must be [lng, lat]", domain.ErrValidation)
	}
	lng, lat := coords[0], coords[1]
	if !geo.ValidateCoordinates(lat, lng) {
		return domain.Location{}, fmt.Errorf("%w: coordinates out of range", domain.ErrValidation)
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return domain.Location{}, fmt.Errorf("%w: address is required", domain.ErrValidation)
	}
	return domain.Location{Point: domain.Point{Lng: lng, Lat: lat}, Address: address}, nil
}

// cleanTags trims tags and drops blanks and repeats, keeping first-seen order.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
