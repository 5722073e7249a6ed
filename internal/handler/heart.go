package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pkordes/placebook/internal/middleware"
)

// ToggleHeart handles POST /places/{id}/heart and returns the user's
// favourites after the toggle.
func (s *Server) ToggleHeart(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badParam(w, err)
		return
	}

	hearts, err := s.hearts.Toggle(r.Context(), middleware.UserFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if hearts == nil {
		hearts = []uuid.UUID{}
	}
	writeJSON(w, http.StatusOK, heartsJSON{Hearts: hearts})
}

// ListHearts handles GET /hearts.
func (s *Server) ListHearts(w http.ResponseWriter, r *http.Request) {
	places, err := s.hearts.Places(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlacesJSON(places))
}
