package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/placebook/internal/domain"
	"github.com/pkordes/placebook/internal/handler"
	"github.com/pkordes/placebook/internal/middleware"
)

// ---- mock PlaceServicer -----------------------------------------------------

type mockPlaceServicer struct {
	create     func(ctx context.Context, in domain.NewPlace) (domain.Place, error)
	update     func(ctx context.Context, user domain.UserID, id uuid.UUID, patch domain.PlacePatch) (domain.Place, error)
	getForEdit func(ctx context.Context, user domain.UserID, id uuid.UUID) (domain.Place, error)
	getBySlug  func(ctx context.Context, slug string, includeRatings bool) (domain.Place, error)
	page       func(ctx context.Context, page *int) (domain.PlacePage, error)
}

func (m *mockPlaceServicer) Create(ctx context.Context, in domain.NewPlace) (domain.Place, error) {
	return m.create(ctx, in)
}

func (m *mockPlaceServicer) Update(ctx context.Context, user domain.UserID, id uuid.UUID, patch domain.PlacePatch) (domain.Place, error) {
	return m.update(ctx, user, id, patch)
}

func (m *mockPlaceServicer) GetForEdit(ctx context.Context, user domain.UserID, id uuid.UUID) (domain.Place, error) {
	return m.getForEdit(ctx, user, id)
}

func (m *mockPlaceServicer) GetBySlug(ctx context.Context, slug string, includeRatings bool) (domain.Place, error) {
	return m.getBySlug(ctx, slug, includeRatings)
}

func (m *mockPlaceServicer) Page(ctx context.Context, page *int) (domain.PlacePage, error) {
	return m.page(ctx, page)
}

// ---- mock SearchServicer ----------------------------------------------------

type mockSearchServicer struct {
	near   func(ctx context.Context, q domain.NearQuery) ([]domain.Place, error)
	search func(ctx context.Context, query string, limit int) ([]domain.Place, error)
}

func (m *mockSearchServicer) Near(ctx context.Context, q domain.NearQuery) ([]domain.Place, error) {
	return m.near(ctx, q)
}

func (m *mockSearchServicer) Search(ctx context.Context, query string, limit int) ([]domain.Place, error) {
	return m.search(ctx, query, limit)
}

// ---- mock AggregateServicer -------------------------------------------------

type mockAggregateServicer struct {
	topRated   func(ctx context.Context) ([]domain.TopPlace, error)
	tagListing func(ctx context.Context, tag string) (domain.TagPage, error)
}

func (m *mockAggregateServicer) TopRated(ctx context.Context) ([]domain.TopPlace, error) {
	return m.topRated(ctx)
}

func (m *mockAggregateServicer) TagListing(ctx context.Context, tag string) (domain.TagPage, error) {
	return m.tagListing(ctx, tag)
}

// ---- mock HeartServicer -----------------------------------------------------

type mockHeartServicer struct {
	toggle func(ctx context.Context, user domain.UserID, placeID uuid.UUID) ([]uuid.UUID, error)
	places func(ctx context.Context, user domain.UserID) ([]domain.Place, error)
}

func (m *mockHeartServicer) Toggle(ctx context.Context, user domain.UserID, placeID uuid.UUID) ([]uuid.UUID, error) {
	return m.toggle(ctx, user, placeID)
}

func (m *mockHeartServicer) Places(ctx context.Context, user domain.UserID) ([]domain.Place, error) {
	return m.places(ctx, user)
}

type mockRatingServicer struct {
	add func(ctx context.Context, user domain.UserID, placeID uuid.UUID, score float64, text string) (domain.Rating, error)
}

func (m *mockRatingServicer) Add(ctx context.Context, user domain.UserID, placeID uuid.UUID, score float64, text string) (domain.Rating, error) {
	return m.add(ctx, user, placeID, score, text)
}

// compile-time checks: the mocks must satisfy the handler interfaces.
var (
	_ handler.PlaceServicer     = (*mockPlaceServicer)(nil)
	_ handler.SearchServicer    = (*mockSearchServicer)(nil)
	_ handler.AggregateServicer = (*mockAggregateServicer)(nil)
	_ handler.HeartServicer     = (*mockHeartServicer)(nil)
	_ handler.RatingServicer    = (*mockRatingServicer)(nil)
)

// ---- helpers ----------------------------------------------------------------

// serve runs req through srv's router. Build srv with nil for services the
// test does not use.
func serve(srv *handler.Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec
}

// asUser attaches an acting user to req the way the identity middleware does.
func asUser(req *http.Request, user domain.UserID) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), user))
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func placeFixture() domain.Place {
	return domain.Place{
		ID:          uuid.New(),
		Name:        "Horton's Coffee",
		Slug:        "hortons-coffee",
		Description: "Double double",
		Tags:        []string{"Coffee", "Wifi"},
		Location: domain.Location{
			Point:   domain.Point{Lng: -79.8711, Lat: 43.2557},
			Address: "1 Main St",
		},
		AuthorID:  "alice",
		CreatedAt: time.Now().UTC(),
	}
}
