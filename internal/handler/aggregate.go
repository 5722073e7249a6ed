package handler

import (
	"net/http"

	"github.com/pkordes/placebook/internal/domain"
)

// GetTags handles GET /tags and GET /tags/{tag}.
// Without a tag every tagged place is listed.
func (s *Server) GetTags(w http.ResponseWriter, r *http.Request) {
	tag, err := pathText(r, "tag")
	if err != nil {
		badParam(w, err)
		return
	}
	page, err := s.aggregates.TagListing(r.Context(), tag)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if page.Tags == nil {
		page.Tags = []domain.TagCount{}
	}
	writeJSON(w, http.StatusOK, tagPageJSON{
		Tag:    page.Tag,
		Tags:   page.Tags,
		Places: toPlacesJSON(page.Places),
	})
}

// GetTopRated handles GET /top.
func (s *Server) GetTopRated(w http.ResponseWriter, r *http.Request) {
	top, err := s.aggregates.TopRated(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]topPlaceJSON, len(top))
	for i, t := range top {
		out[i] = topPlaceJSON{
			placeJSON:     toPlaceJSON(t.Place),
			AverageRating: t.AverageRating,
			RatingCount:   t.RatingCount,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
