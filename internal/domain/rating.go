package domain

import (
	"time"

	"github.com/google/uuid"
)

// Rating is a review left on a place: a score from 1 to 5 and optional text.
type Rating struct {
	ID        uuid.UUID
	PlaceID   uuid.UUID
	Rating    float64
	Text      string
	AuthorID  UserID
	CreatedAt time.Time
}

// RatedPlace is a place joined with the values of all its ratings.
// It is the input row of the top-rated pipeline.
type RatedPlace struct {
	Place   Place
	Ratings []float64
}

// TopPlace is a place with its computed average rating.
type TopPlace struct {
	Place         Place
	AverageRating float64
	RatingCount   int
}
