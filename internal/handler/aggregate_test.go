package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/placebook/internal/domain"
	"github.com/pkordes/placebook/internal/handler"
)

func aggregateServer(svc handler.AggregateServicer) *handler.Server {
	return handler.NewServer(nil, nil, svc, nil, nil)
}

// ---- GET /tags, /tags/{tag} -------------------------------------------------

func TestGetTags(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantTag string
	}{
		{"all tagged places", "/tags", ""},
		{"one tag", "/tags/Coffee", "Coffee"},
		{"escaped tag", "/tags/Family%20Friendly", "Family Friendly"},
		{"escaped slash", "/tags/Indoor%2FOutdoor", "Indoor/Outdoor"},
		{"escaped percent and slash", "/tags/50%25%2F50", "50%/50"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockAggregateServicer{
				tagListing: func(_ context.Context, tag string) (domain.TagPage, error) {
					assert.Equal(t, tc.wantTag, tag)
					return domain.TagPage{
						Tag:    tag,
						Tags:   []domain.TagCount{{Tag: "Coffee", Count: 2}, {Tag: "Wifi", Count: 1}},
						Places: []domain.Place{placeFixture()},
					}, nil
				},
			}

			rec := serve(aggregateServer(svc), httptest.NewRequest(http.MethodGet, tc.url, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			got := decode[struct {
				Tag    string
				Tags   []domain.TagCount
				Places []struct{ Slug string }
			}](t, rec)
			assert.Equal(t, tc.wantTag, got.Tag)
			assert.Equal(t, []domain.TagCount{{Tag: "Coffee", Count: 2}, {Tag: "Wifi", Count: 1}}, got.Tags)
			require.Len(t, got.Places, 1)
		})
	}
}

func TestGetTags_EmptyStore(t *testing.T) {
	svc := &mockAggregateServicer{
		tagListing: func(context.Context, string) (domain.TagPage, error) {
			return domain.TagPage{}, nil
		},
	}

	rec := serve(aggregateServer(svc), httptest.NewRequest(http.MethodGet, "/tags", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tag":"","tags":[],"places":[]}`, rec.Body.String())
}

// ---- GET /top ---------------------------------------------------------------

func TestGetTopRated_200(t *testing.T) {
	p := placeFixture()
	svc := &mockAggregateServicer{
		topRated: func(context.Context) ([]domain.TopPlace, error) {
			return []domain.TopPlace{{Place: p, AverageRating: 4.5, RatingCount: 2}}, nil
		},
	}

	rec := serve(aggregateServer(svc), httptest.NewRequest(http.MethodGet, "/top", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]map[string]any](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, p.Slug, got[0]["slug"], "place fields are inlined")
	assert.InDelta(t, 4.5, got[0]["averageRating"], 1e-9)
	assert.InDelta(t, 2, got[0]["ratingCount"], 1e-9)
}

func TestGetTopRated_500(t *testing.T) {
	svc := &mockAggregateServicer{
		topRated: func(context.Context) ([]domain.TopPlace, error) {
			return nil, errors.New("store down")
		},
	}

	rec := serve(aggregateServer(svc), httptest.NewRequest(http.MethodGet, "/top", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decode[errorBody](t, rec).Error.Code)
}
