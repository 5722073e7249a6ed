// Package handler implements the HTTP handlers for the place directory API.
// All handlers are methods on Server. They are split into files by resource
// (place.go, search.go, aggregate.go, heart.go, rating.go) but share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pkordes/placebook/internal/domain"
)

// PlaceServicer defines the place operations the handlers depend on.
// Defining the interface here, in the consumer package, lets handler tests
// inject a mock without touching a store.
type PlaceServicer interface {
	Create(ctx context.Context, in domain.NewPlace) (domain.Place, error)
	Update(ctx context.Context, user domain.UserID, id uuid.UUID, patch domain.PlacePatch) (domain.Place, error)
	GetForEdit(ctx context.Context, user domain.UserID, id uuid.UUID) (domain.Place, error)
	GetBySlug(ctx context.Context, slug string, includeRatings bool) (domain.Place, error)
	Page(ctx context.Context, page *int) (domain.PlacePage, error)
}

// SearchServicer defines the proximity and text search operations.
type SearchServicer interface {
	Near(ctx context.Context, q domain.NearQuery) ([]domain.Place, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Place, error)
}

// AggregateServicer defines the tag histogram and top-rated operations.
type AggregateServicer interface {
	TopRated(ctx context.Context) ([]domain.TopPlace, error)
	TagListing(ctx context.Context, tag string) (domain.TagPage, error)
}

// HeartServicer defines the favourites operations.
type HeartServicer interface {
	Toggle(ctx context.Context, user domain.UserID, placeID uuid.UUID) ([]uuid.UUID, error)
	Places(ctx context.Context, user domain.UserID) ([]domain.Place, error)
}

// RatingServicer defines the rating write.
type RatingServicer interface {
	Add(ctx context.Context, user domain.UserID, placeID uuid.UUID, score float64, text string) (domain.Rating, error)
}

// Server holds the services behind every endpoint.
// Wire it in main.go by mounting Routes under the middleware stack.
type Server struct {
	places     PlaceServicer
	search     SearchServicer
	aggregates AggregateServicer
	hearts     HeartServicer
	ratings    RatingServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(
	places PlaceServicer,
	search SearchServicer,
	aggregates AggregateServicer,
	hearts HeartServicer,
	ratings RatingServicer,
) *Server {
	return &Server{places: places, search: search, aggregates: aggregates, hearts: hearts, ratings: ratings}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil, nil)
}

// Routes returns the API router. Identity, logging and the rest of the
// middleware stack are applied by the caller.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/places", func(r chi.Router) {
		r.Get("/", s.ListPlaces)
		r.Post("/", s.CreatePlace)
		r.Get("/page/{page}", s.ListPlacesPage)
		r.Get("/slug/{slug}", s.GetPlaceBySlug)
		r.Get("/{id}/edit", s.GetPlaceForEdit)
		r.Put("/{id}", s.UpdatePlace)
		r.Post("/{id}/heart", s.ToggleHeart)
		r.Post("/{id}/ratings", s.AddRating)
	})
	r.Get("/hearts", s.ListHearts)
	r.Get("/tags", s.GetTags)
	r.Get("/tags/{tag}", s.GetTags)
	r.Get("/top", s.GetTopRated)

	r.Get("/api/search", s.SearchPlaces)
	r.Get("/api/places/near", s.NearPlaces)

	return r
}
