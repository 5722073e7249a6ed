package service_test

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pkordes/placebook/internal/domain"
	"github.com/pkordes/placebook/internal/repo"
	"github.com/pkordes/placebook/internal/service"
)

// Hand-written test doubles: each method is a function field, set only the
// ones a test needs. Calling an unset one panics, which flags an unexpected call.

type mockPlaceRepo struct {
	create        func(ctx context.Context, p domain.Place) (domain.Place, error)
	getByID       func(ctx context.Context, id uuid.UUID) (domain.Place, error)
	getBySlug     func(ctx context.Context, s string) (domain.Place, error)
	getMany       func(ctx context.Context, ids []uuid.UUID) ([]domain.Place, error)
	update        func(ctx context.Context, p domain.Place) (domain.Place, error)
	list          func(ctx context.Context, pp domain.PaginationParams) ([]domain.Place, error)
	count         func(ctx context.Context) (int64, error)
	listByTag     func(ctx context.Context, tag string) ([]domain.Place, error)
	slugsMatching func(ctx context.Context, candidate string, exclude uuid.UUID) ([]string, error)
	near          func(ctx context.Context, q domain.NearQuery) ([]domain.Place, error)
	search        func(ctx context.Context, terms []string, limit int) ([]domain.Place, error)
}

func (m *mockPlaceRepo) Create(ctx context.Context, p domain.Place) (domain.Place, error) {
	return m.create(ctx, p)
}
func (m *mockPlaceRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Place, error) {
	return m.getByID(ctx, id)
}
func (m *mockPlaceRepo) GetBySlug(ctx context.Context, s string) (domain.Place, error) {
	return m.getBySlug(ctx, s)
}
func (m *mockPlaceRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]domain.Place, error) {
	return m.getMany(ctx, ids)
}
func (m *mockPlaceRepo) Update(ctx context.Context, p domain.Place) (domain.Place, error) {
	return m.update(ctx, p)
}
func (m *mockPlaceRepo) List(ctx context.Context, pp domain.PaginationParams) ([]domain.Place, error) {
	return m.list(ctx, pp)
}
func (m *mockPlaceRepo) Count(ctx context.Context) (int64, error) {
	return m.count(ctx)
}
func (m *mockPlaceRepo) ListByTag(ctx context.Context, tag string) ([]domain.Place, error) {
	return m.listByTag(ctx, tag)
}
func (m *mockPlaceRepo) SlugsMatching(ctx context.Context, candidate string, exclude uuid.UUID) ([]string, error) {
	return m.slugsMatching(ctx, candidate, exclude)
}
func (m *mockPlaceRepo) Near(ctx context.Context, q domain.NearQuery) ([]domain.Place, error) {
	return m.near(ctx, q)
}
func (m *mockPlaceRepo) Search(ctx context.Context, terms []string, limit int) ([]domain.Place, error) {
	return m.search(ctx, terms, limit)
}

type mockRatingRepo struct {
	listByPlace func(ctx context.Context, placeID uuid.UUID) ([]domain.Rating, error)
	add         func(ctx context.Context, rt domain.Rating) (domain.Rating, error)
}

func (m *mockRatingRepo) ListByPlace(ctx context.Context, placeID uuid.UUID) ([]domain.Rating, error) {
	return m.listByPlace(ctx, placeID)
}
func (m *mockRatingRepo) Add(ctx context.Context, rt domain.Rating) (domain.Rating, error) {
	return m.add(ctx, rt)
}

type mockHeartRepo struct {
	toggle func(ctx context.Context, user domain.UserID, placeID uuid.UUID) ([]uuid.UUID, error)
	list   func(ctx context.Context, user domain.UserID) ([]uuid.UUID, error)
}

func (m *mockHeartRepo) Toggle(ctx context.Context, user domain.UserID, placeID uuid.UUID) ([]uuid.UUID, error) {
	return m.toggle(ctx, user, placeID)
}
func (m *mockHeartRepo) List(ctx context.Context, user domain.UserID) ([]uuid.UUID, error) {
	return m.list(ctx, user)
}

type mockAggregateSource struct {
	placeTags   func(ctx context.Context) ([]domain.PlaceTags, error)
	ratedPlaces func(ctx context.Context) ([]domain.RatedPlace, error)
}

func (m *mockAggregateSource) PlaceTags(ctx context.Context) ([]domain.PlaceTags, error) {
	return m.placeTags(ctx)
}
func (m *mockAggregateSource) RatedPlaces(ctx context.Context) ([]domain.RatedPlace, error) {
	return m.ratedPlaces(ctx)
}

// fakeCache is an in-memory AggregateCache that records invalidations.
type fakeCache struct {
	tags          []domain.TagCount
	top           []domain.TopPlace
	hasTags       bool
	hasTop        bool
	invalidations int
	failReads     bool
	failWrites    bool
}

var errCacheDown = errors.New("cache down")

func (c *fakeCache) TagHistogram(context.Context) ([]domain.TagCount, bool, error) {
	if c.failReads {
		return nil, false, errCacheDown
	}
	return c.tags, c.hasTags, nil
}
func (c *fakeCache) SetTagHistogram(_ context.Context, counts []domain.TagCount) error {
	if c.failWrites {
		return errCacheDown
	}
	c.tags, c.hasTags = counts, true
	return nil
}
func (c *fakeCache) TopRated(context.Context) ([]domain.TopPlace, bool, error) {
	if c.failReads {
		return nil, false, errCacheDown
	}
	return c.top, c.hasTop, nil
}
func (c *fakeCache) SetTopRated(_ context.Context, top []domain.TopPlace) error {
	if c.failWrites {
		return errCacheDown
	}
	c.top, c.hasTop = top, true
	return nil
}
func (c *fakeCache) Invalidate(context.Context) error {
	c.invalidations++
	if c.failWrites {
		return errCacheDown
	}
	c.hasTags, c.hasTop = false, false
	return nil
}

// compile-time checks.
var (
	_ repo.PlaceRepo         = (*mockPlaceRepo)(nil)
	_ repo.RatingRepo        = (*mockRatingRepo)(nil)
	_ repo.HeartRepo         = (*mockHeartRepo)(nil)
	_ repo.AggregateSource   = (*mockAggregateSource)(nil)
	_ service.AggregateCache = (*fakeCache)(nil)
)

// ---- helpers ---------------------------------------------------------------

func validNewPlace() domain.NewPlace {
	return domain.NewPlace{
		Name:        "Tim Hortons",
		Description: "Coffee and donuts",
		Tags:        []string{"Wifi", " Open Late ", "Wifi", ""},
		Coordinates: []float64{-79.8, 43.2},
		Address:     "1 Main St, Hamilton",
		AuthorID:    "user-1",
	}
}

// echoPlaceRepo echoes writes back and reports no existing slugs.
func echoPlaceRepo() *mockPlaceRepo {
	return &mockPlaceRepo{
		create: func(_ context.Context, p domain.Place) (domain.Place, error) {
			p.ID = uuid.New()
			return p, nil
		},
		update:        func(_ context.Context, p domain.Place) (domain.Place, error) { return p, nil },
		slugsMatching: func(context.Context, string, uuid.UUID) ([]string, error) { return nil, nil },
	}
}
