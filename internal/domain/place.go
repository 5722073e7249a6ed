// Package domain contains the core data types for the place directory.
// This package has no dependencies on storage or transport and is imported by
// every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserID identifies the acting user. Users are owned by an external identity
// collaborator; the directory only stores and compares their identifiers.
type UserID string

// String returns the raw identifier.
func (u UserID) String() string { return string(u) }

// IsZero reports whether the identifier is empty.
func (u UserID) IsZero() bool { return u == "" }

// Point is a geographic position in degrees. Coordinates are always ordered
// [longitude, latitude] on the wire, matching GeoJSON.
type Point struct {
	Lng float64
	Lat float64
}

// Coordinates returns the point as a GeoJSON-ordered pair.
func (p Point) Coordinates() [2]float64 {
	return [2]float64{p.Lng, p.Lat}
}

// Location is where a place is: a point plus a free-text address.
type Location struct {
	Point   Point
	Address string
}

// Place is a directory listing (a store, a cafe, a venue).
// Slug is unique across all places and derived from Name.
// AuthorID is set at creation and never changes.
type Place struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description string
	Tags        []string
	Location    Location
	Photo       string
	AuthorID    UserID
	CreatedAt   time.Time

	// Ratings is only populated when a read asks for it explicitly.
	Ratings []Rating
}

// LocationPatch replaces a place's location. Coordinates must hold exactly
// two values, [lng, lat].
type LocationPatch struct {
	Coordinates []float64
	Address     string
}

// PlacePatch carries the mutable fields of a place. Nil pointers leave the
// current value untouched. There is deliberately no ID or AuthorID here.
type PlacePatch struct {
	Name        *string
	Description *string
	Tags        *[]string
	Location    *LocationPatch
	Photo       *string
}

// NewPlace is the input for creating a place.
type NewPlace struct {
	Name        string
	Description string
	Tags        []string
	Coordinates []float64
	Address     string
	Photo       string
	AuthorID    UserID
}

// NearQuery describes a proximity search.
type NearQuery struct {
	Point             Point
	MaxDistanceMeters float64
	Limit             int
}

// Default proximity and text search settings.
const (
	DefaultNearDistanceMeters = 10000
	DefaultNearLimit          = 10
	MaxNearLimit              = 100
	DefaultSearchLimit        = 5
)
