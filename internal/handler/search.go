package handler

import (
	"net/http"

	"github.com/pkordes/placebook/internal/domain"
)

// SearchPlaces handles GET /api/search?q=&limit=.
// Results are ordered by relevance and projected to name and slug.
func (s *Server) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	var (
		q     *string
		limit *int
	)
	if err := queryParam(r, "q", false, &q); err != nil {
		badParam(w, err)
		return
	}
	if err := queryParam(r, "limit", false, &limit); err != nil {
		badParam(w, err)
		return
	}

	query := ""
	if q != nil {
		query = *q
	}
	n := 0
	if limit != nil {
		n = *limit
	}

	found, err := s.search.Search(r.Context(), query, n)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]searchJSON, len(found))
	for i, p := range found {
		out[i] = searchJSON{Name: p.Name, Slug: p.Slug}
	}
	writeJSON(w, http.StatusOK, out)
}

// NearPlaces handles GET /api/places/near?lng=&lat=&max_distance=&limit=.
// lng and lat are required; the rest fall back to the service defaults.
func (s *Server) NearPlaces(w http.ResponseWriter, r *http.Request) {
	var (
		lng, lat    float64
		maxDistance *float64
		limit       *int
	)
	for _, p := range []struct {
		name     string
		required bool
		dest     any
	}{
		{"lng", true, &lng},
		{"lat", true, &lat},
		{"max_distance", false, &maxDistance},
		{"limit", false, &limit},
	} {
		if err := queryParam(r, p.name, p.required, p.dest); err != nil {
			badParam(w, err)
			return
		}
	}

	q := domain.NearQuery{Point: domain.Point{Lng: lng, Lat: lat}}
	if maxDistance != nil {
		q.MaxDistanceMeters = *maxDistance
	}
	if limit != nil {
		q.Limit = *limit
	}

	found, err := s.search.Near(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]nearJSON, len(found))
	for i, p := range found {
		out[i] = nearJSON{
			Slug:        p.Slug,
			Name:        p.Name,
			Description: p.Description,
			Location:    toLocationJSON(p.Location),
			Photo:       p.Photo,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
