package mongostore_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/placebook/internal/domain"
	"github.com/pkordes/placebook/internal/repo/mongostore"
	"github.com/pkordes/placebook/testutil"
)

// newTestStore returns a Store over a throwaway database with indexes in place.
// Skipped without TEST_MONGO_URI.
func newTestStore(t *testing.T) *mongostore.Store {
	t.Helper()
	s := mongostore.New(testutil.NewMongoDB(t))
	require.NoError(t, s.EnsureIndexes(context.Background()))
	return s
}

func placeFixture(name, slug string) domain.Place {
	return domain.Place{
		Name:        name,
		Slug:        slug,
		Description: "Coffee and donuts",
		Tags:        []string{"Wifi"},
		Location: domain.Location{
			Point:   domain.Point{Lng: -79.8, Lat: 43.2},
			Address: "1 Main St, Hamilton",
		},
		AuthorID: "user-1",
	}
}

func TestPlaces_CreateGetUpdate(t *testing.T) {
	s := newTestStore(t)
	places := s.Places()
	ctx := context.Background()

	created, err := places.Create(ctx, placeFixture("Cafe", "cafe"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	got, err := places.GetBySlug(ctx, "cafe")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Location, got.Location)

	got.Name = "Cafe Two"
	got.Slug = "cafe-two"
	got.AuthorID = "intruder"
	updated, err := places.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "cafe-two", updated.Slug)
	assert.Equal(t, domain.UserID("user-1"), updated.AuthorID)

	_, err = places.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlaces_DuplicateSlug(t *testing.T) {
	places := newTestStore(t).Places()
	ctx := context.Background()

	_, err := places.Create(ctx, placeFixture("Cafe", "cafe"))
	require.NoError(t, err)
	_, err = places.Create(ctx, placeFixture("Cafe", "cafe"))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestPlaces_SlugsMatching(t *testing.T) {
	places := newTestStore(t).Places()
	ctx := context.Background()

	for _, s := range []string{"cafe", "cafe-2", "cafeteria"} {
		_, err := places.Create(ctx, placeFixture(s, s))
		require.NoError(t, err)
	}

	got, err := places.SlugsMatching(ctx, "cafe", uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"cafe", "cafe-2"}, got)
}

func TestPlaces_NearAndSearch(t *testing.T) {
	places := newTestStore(t).Places()
	ctx := context.Background()

	_, err := places.Create(ctx, placeFixture("Tim Hortons", "tim-hortons"))
	require.NoError(t, err)
	toronto := placeFixture("Library", "library")
	toronto.Description = "Books"
	toronto.Location.Point = domain.Point{Lng: -79.38, Lat: 43.65}
	_, err = places.Create(ctx, toronto)
	require.NoError(t, err)

	near, err := places.Near(ctx, domain.NearQuery{
		Point:             domain.Point{Lng: -79.8, Lat: 43.2},
		MaxDistanceMeters: 10000,
		Limit:             10,
	})
	require.NoError(t, err)
	require.Len(t, near, 1)
	assert.Equal(t, "tim-hortons", near[0].Slug)

	found, err := places.Search(ctx, []string{"hortons"}, 5)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "tim-hortons", found[0].Slug)
}

func TestPlaces_ListCountAndTags(t *testing.T) {
	places := newTestStore(t).Places()
	ctx := context.Background()

	for _, s := range []string{"a", "b", "c", "d", "e"} {
		_, err := places.Create(ctx, placeFixture(s, s))
		require.NoError(t, err)
	}
	bare := placeFixture("bare", "bare")
	bare.Tags = nil
	_, err := places.Create(ctx, bare)
	require.NoError(t, err)

	n, err := places.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)

	page2, err := places.List(ctx, domain.PaginationParams{Page: 2, Limit: 4})
	require.NoError(t, err)
	assert.Len(t, page2, 2)

	tagged, err := places.ListByTag(ctx, "")
	require.NoError(t, err)
	assert.Len(t, tagged, 5)

	wifi, err := places.ListByTag(ctx, "Wifi")
	require.NoError(t, err)
	assert.Len(t, wifi, 5)
}

func TestHearts_Toggle(t *testing.T) {
	hearts := newTestStore(t).Hearts()
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	got, err := hearts.Toggle(ctx, "u", a)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a}, got)

	got, err = hearts.Toggle(ctx, "u", b)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, got)

	got, err = hearts.Toggle(ctx, "u", a)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b}, got)

	none, err := hearts.List(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAggregates_RatedPlaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rated, err := s.Places().Create(ctx, placeFixture("Rated", "rated"))
	require.NoError(t, err)
	_, err = s.Places().Create(ctx, placeFixture("Unrated", "unrated"))
	require.NoError(t, err)
	for _, v := range []float64{4, 5} {
		_, err := s.AddRating(ctx, domain.Rating{PlaceID: rated.ID, Rating: v})
		require.NoError(t, err)
	}

	rows, err := s.Aggregates().RatedPlaces(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		if r.Place.ID == rated.ID {
			assert.ElementsMatch(t, []float64{4, 5}, r.Ratings)
		} else {
			assert.Empty(t, r.Ratings)
		}
	}

	tags, err := s.Aggregates().PlaceTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}
