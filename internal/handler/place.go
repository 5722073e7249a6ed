package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/placebook/internal/domain"
	"github.com/pkordes/placebook/internal/middleware"
)

// ListPlaces handles GET /places, the first page of the listing.
func (s *Server) ListPlaces(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, r, nil)
}

// ListPlacesPage handles GET /places/page/{page}.
// A page past the end answers 303 See Other to the last page, with the
// notice in the X-Notice header and the body.
func (s *Server) ListPlacesPage(w http.ResponseWriter, r *http.Request) {
	page, err := pathInt(r, "page")
	if err != nil {
		badParam(w, err)
		return
	}
	s.writePage(w, r, &page)
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, page *int) {
	result, err := s.places.Page(r.Context(), page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if c := result.Correction; c != nil {
		location := fmt.Sprintf("/places/page/%d", c.Target)
		w.Header().Set("Location", location)
		w.Header().Set("X-Notice", c.Notice())
		writeJSON(w, http.StatusSeeOther, correctionJSON{Notice: c.Notice(), Location: location})
		return
	}

	writeJSON(w, http.StatusOK, pageJSON{
		Places:     toPlacesJSON(result.Places),
		Page:       result.Page,
		TotalPages: result.TotalPages,
		Total:      result.Total,
	})
}

// CreatePlace handles POST /places. The acting user becomes the author.
func (s *Server) CreatePlace(w http.ResponseWriter, r *http.Request) {
	var req createPlaceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := s.places.Create(r.Context(), domain.NewPlace{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
		Coordinates: req.Location.Coordinates,
		Address:     req.Location.Address,
		Photo:       req.Photo,
		AuthorID:    middleware.UserFromContext(r.Context()),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/places/slug/"+created.Slug)
	writeJSON(w, http.StatusCreated, toPlaceJSON(created))
}

// GetPlaceForEdit handles GET /places/{id}/edit.
func (s *Server) GetPlaceForEdit(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badParam(w, err)
		return
	}

	place, err := s.places.GetForEdit(r.Context(), middleware.UserFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlaceJSON(place))
}

// UpdatePlace handles PUT /places/{id}. Only fields present in the body change.
func (s *Server) UpdatePlace(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badParam(w, err)
		return
	}
	var req updatePlaceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := s.places.Update(r.Context(), middleware.UserFromContext(r.Context()), id, req.patch())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlaceJSON(updated))
}

// GetPlaceBySlug handles GET /places/slug/{slug}.
// ?include=ratings attaches the place's ratings.
func (s *Server) GetPlaceBySlug(w http.ResponseWriter, r *http.Request) {
	var include *string
	if err := queryParam(r, "include", false, &include); err != nil {
		badParam(w, err)
		return
	}
	withRatings := include != nil && *include == "ratings"

	place, err := s.places.GetBySlug(r.Context(), chi.URLParam(r, "slug"), withRatings)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlaceJSON(place))
}
