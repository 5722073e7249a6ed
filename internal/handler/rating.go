package handler

import (
	"net/http"

	"github.com/pkordes/placebook/internal/middleware"
)

// AddRating handles POST /places/{id}/ratings. It returns 201 with the
// stored rating.
func (s *Server) AddRating(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badParam(w, err)
		return
	}

	var req ratingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rt, err := s.ratings.Add(r.Context(), middleware.UserFromContext(r.Context()), id, req.Rating, req.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRatingJSON(rt))
}
