package domain

import "github.com/google/uuid"

// PlaceTags is the tag list of a single place, the input of the tag histogram.
type PlaceTags struct {
	PlaceID uuid.UUID
	Tags    []string
}

// TagCount is one bucket of the tag histogram.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TagPage is the tag browsing view: the full histogram next to the places
// carrying the selected tag. An empty Tag selects every tagged place.
type TagPage struct {
	Tag    string
	Tags   []TagCount
	Places []Place
}
