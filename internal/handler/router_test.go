package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/placebook/internal/domain"
	"github.com/pkordes/placebook/internal/handler"
	"github.com/pkordes/placebook/internal/middleware"
	"github.com/pkordes/placebook/internal/repo/memstore"
	"github.com/pkordes/placebook/internal/service"
)

var routerSecret = []byte("router-test-secret")

// newStack wires the real services over an in-memory store behind the
// identity middleware, the way main.go does minus the outer middleware.
func newStack(t *testing.T) http.Handler {
	t.Helper()
	st := memstore.New()
	srv := handler.NewServer(
		service.NewPlaceService(st.Places(), st.Ratings(), nil),
		service.NewSearchService(st.Places()),
		service.NewAggregateService(st.Aggregates(), st.Places(), nil),
		service.NewHeartService(st.Hearts(), st.Places()),
		service.NewRatingService(st.Ratings(), st.Places(), nil),
	)
	r := chi.NewRouter()
	r.Use(middleware.NewIdentity(routerSecret))
	r.Mount("/", srv.Routes())
	return r
}

func bearer(t *testing.T, user string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: user}).SignedString(routerSecret)
	require.NoError(t, err)
	return "Bearer " + tok
}

func do(t *testing.T, h http.Handler, method, url, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, url, nil)
	if body != nil {
		req = httptest.NewRequest(method, url, jsonBody(t, body))
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("Authorization", bearer(t, user))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newPlaceBody(name string, tags ...string) map[string]any {
	return map[string]any{
		"name":        name,
		"description": "Best coffee in the Hammer",
		"tags":        tags,
		"location": map[string]any{
			"coordinates": []float64{-79.8711, 43.2557},
			"address":     "1 Main St, Hamilton",
		},
	}
}

type placeResp struct {
	ID     uuid.UUID
	Name   string
	Slug   string
	Author string
}

func TestRouter_CreateEditHeartFlow(t *testing.T) {
	h := newStack(t)

	rec := do(t, h, http.MethodPost, "/places", "alice", newPlaceBody("Tim Hortons", "Coffee", "Wifi"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[placeResp](t, rec)
	assert.Equal(t, "tim-hortons", first.Slug)
	assert.Equal(t, "alice", first.Author)

	rec = do(t, h, http.MethodPost, "/places", "bob", newPlaceBody("Tim Hortons!", "Coffee"))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "tim-hortons-2", decode[placeResp](t, rec).Slug)

	// Only the author may open the edit form or update.
	rec = do(t, h, http.MethodGet, "/places/"+first.ID.String()+"/edit", "bob", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = do(t, h, http.MethodPut, "/places/"+first.ID.String(), "bob", map[string]any{"name": "Stolen"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodPut, "/places/"+first.ID.String(), "alice",
		map[string]any{"name": "Corner Cafe", "author": "bob", "id": uuid.NewString()})
	require.Equal(t, http.StatusOK, rec.Code)
	renamed := decode[placeResp](t, rec)
	assert.Equal(t, first.ID, renamed.ID, "id cannot be changed")
	assert.Equal(t, "alice", renamed.Author, "author cannot be changed")
	assert.Equal(t, "corner-cafe", renamed.Slug)

	rec = do(t, h, http.MethodGet, "/places/slug/corner-cafe?include=ratings", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Toggling twice restores the original set.
	heartURL := "/places/" + first.ID.String() + "/heart"
	rec = do(t, h, http.MethodPost, heartURL, "carol", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uuid.UUID{first.ID}, decode[struct{ Hearts []uuid.UUID }](t, rec).Hearts)

	rec = do(t, h, http.MethodGet, "/hearts", "carol", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]placeResp](t, rec), 1)

	rec = do(t, h, http.MethodPost, heartURL, "carol", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"hearts":[]}`, rec.Body.String())

	// Anonymous writes are refused.
	rec = do(t, h, http.MethodPost, heartURL, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = do(t, h, http.MethodPost, "/places", "", newPlaceBody("Anon"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_TagsAndTop(t *testing.T) {
	h := newStack(t)

	rec := do(t, h, http.MethodPost, "/places", "alice", newPlaceBody("Cafe One", "Coffee", "Wifi"))
	require.Equal(t, http.StatusCreated, rec.Code)
	one := decode[placeResp](t, rec)
	rec = do(t, h, http.MethodPost, "/places", "alice", newPlaceBody("Cafe Two", "Coffee"))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, h, http.MethodPost, "/places", "alice", newPlaceBody("Untagged"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/tags", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[struct {
		Tags   []domain.TagCount
		Places []placeResp
	}](t, rec)
	assert.Equal(t, []domain.TagCount{{Tag: "Coffee", Count: 2}, {Tag: "Wifi", Count: 1}}, all.Tags)
	assert.Len(t, all.Places, 2, "untagged places are not listed")

	rec = do(t, h, http.MethodGet, "/tags/Wifi", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct{ Places []placeResp }](t, rec).Places, 1)

	for _, v := range []float64{5, 4} {
		rec := do(t, h, http.MethodPost, "/places/"+one.ID.String()+"/ratings", "critic", map[string]any{"rating": v})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodGet, "/top", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	top := decode[[]map[string]any](t, rec)
	require.Len(t, top, 1)
	assert.Equal(t, "cafe-one", top[0]["slug"])
	assert.InDelta(t, 4.5, top[0]["averageRating"], 1e-9)
}

func TestRouter_PaginationRedirect(t *testing.T) {
	h := newStack(t)
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/places", "alice", newPlaceBody(name)).Code)
	}

	rec := do(t, h, http.MethodGet, "/places/page/2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct{ Places []placeResp }](t, rec).Places, 1)

	rec = do(t, h, http.MethodGet, "/places/page/7", "", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/places/page/2", rec.Header().Get("Location"))
	assert.Equal(t, "You asked for page 7 but that does not exist. You have been sent to page 2", rec.Header().Get("X-Notice"))
}

func TestRouter_PageBeyondAddressableRange(t *testing.T) {
	h := newStack(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/places", "alice", newPlaceBody("Only")).Code)

	rec := do(t, h, http.MethodGet, "/places/page/9223372036854775807", "", nil)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/places/page/1", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Get("X-Notice"), "page 9223372036854775807")
}

func TestRouter_RatingValidation(t *testing.T) {
	h := newStack(t)
	rec := do(t, h, http.MethodPost, "/places", "alice", newPlaceBody("Rated"))
	require.Equal(t, http.StatusCreated, rec.Code)
	url := "/places/" + decode[placeResp](t, rec).ID.String() + "/ratings"

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, url, "", map[string]any{"rating": 3}).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, h, http.MethodPost, url, "critic", map[string]any{"rating": 9}).Code)
	assert.Equal(t, http.StatusNotFound,
		do(t, h, http.MethodPost, "/places/"+uuid.NewString()+"/ratings", "critic", map[string]any{"rating": 3}).Code)
}

func TestRouter_InvalidTokenRejected(t *testing.T) {
	h := newStack(t)
	req := httptest.NewRequest(http.MethodGet, "/places", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
