package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/placebook/internal/domain"
)

// locationJSON is a GeoJSON point with the street address alongside.
type locationJSON struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
	Address     string     `json:"address"`
}

type ratingJSON struct {
	ID      uuid.UUID `json:"id"`
	Rating  float64   `json:"rating"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Created time.Time `json:"created"`
}

type placeJSON struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Slug        string       `json:"slug"`
	Description string       `json:"description"`
	Tags        []string     `json:"tags"`
	Location    locationJSON `json:"location"`
	Photo       string       `json:"photo,omitempty"`
	Author      string       `json:"author"`
	Created     time.Time    `json:"created"`
	Ratings     []ratingJSON `json:"ratings,omitempty"`
}

type topPlaceJSON struct {
	placeJSON
	AverageRating float64 `json:"averageRating"`
	RatingCount   int     `json:"ratingCount"`
}

// nearJSON is the proximity search projection.
type nearJSON struct {
	Slug        string       `json:"slug"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Location    locationJSON `json:"location"`
	Photo       string       `json:"photo,omitempty"`
}

// searchJSON is the text search projection.
type searchJSON struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type pageJSON struct {
	Places     []placeJSON `json:"places"`
	Page       int         `json:"page"`
	TotalPages int         `json:"totalPages"`
	Total      int64       `json:"total"`
}

type correctionJSON struct {
	Notice   string `json:"notice"`
	Location string `json:"location"`
}

type tagPageJSON struct {
	Tag    string            `json:"tag"`
	Tags   []domain.TagCount `json:"tags"`
	Places []placeJSON       `json:"places"`
}

type heartsJSON struct {
	Hearts []uuid.UUID `json:"hearts"`
}

type locationRequest struct {
	Coordinates []float64 `json:"coordinates"`
	Address     string    `json:"address"`
}

type createPlaceRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Tags        []string        `json:"tags"`
	Location    locationRequest `json:"location"`
	Photo       string          `json:"photo"`
}

// updatePlaceRequest carries only mutable fields. An id or author sent by
// the client has nowhere to land and is dropped by the decoder.
type updatePlaceRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Tags        *[]string        `json:"tags"`
	Location    *locationRequest `json:"location"`
	Photo       *string          `json:"photo"`
}

type ratingRequest struct {
	Rating float64 `json:"rating"`
	Text   string  `json:"text"`
}

func (req updatePlaceRequest) patch() domain.PlacePatch {
	p := domain.PlacePatch{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
		Photo:       req.Photo,
	}
	if req.Location != nil {
		p.Location = &domain.LocationPatch{
			Coordinates: req.Location.Coordinates,
			Address:     req.Location.Address,
		}
	}
	return p
}

func toLocationJSON(l domain.Location) locationJSON {
	return locationJSON{Type: "Point", Coordinates: l.Point.Coordinates(), Address: l.Address}
}

func toPlaceJSON(p domain.Place) placeJSON {
	out := placeJSON{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Tags:        p.Tags,
		Location:    toLocationJSON(p.Location),
		Photo:       p.Photo,
		Author:      p.AuthorID.String(),
		Created:     p.CreatedAt,
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	for _, rt := range p.Ratings {
		out.Ratings = append(out.Ratings, toRatingJSON(rt))
	}
	return out
}

func toRatingJSON(rt domain.Rating) ratingJSON {
	return ratingJSON{
		ID:      rt.ID,
		Rating:  rt.Rating,
		Text:    rt.Text,
		Author:  rt.AuthorID.String(),
		Created: rt.CreatedAt,
	}
}

func toPlacesJSON(places []domain.Place) []placeJSON {
	out := make([]placeJSON, len(places))
	for i, p := range places {
		out[i] = toPlaceJSON(p)
	}
	return out
}
