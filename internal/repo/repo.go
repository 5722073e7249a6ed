// Package repo contains all storage access for the place directory.
// This file defines the interfaces the service layer depends on; place.go,
// rating.go, heart.go and aggregate.go hold the Postgres/PostGIS implementation.
// The mongostore and memstore subpackages implement the same interfaces.
// No business logic lives here, only queries and type mapping.
package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/placebook/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, pgx.Tx and
// pgxmock pools. Integration tests pass a transaction that is rolled back after
// each test; unit tests pass a pgxmock pool.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PlaceRepo defines the persistence operations for Places.
type PlaceRepo interface {
	// Create inserts a new place and returns the persisted record with its
	// generated id and created_at. Returns domain.ErrConflict when the slug is
	// already taken.
	Create(ctx context.Context, place domain.Place) (domain.Place, error)

	// GetByID returns domain.ErrNotFound if no place has that id.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Place, error)

	// GetBySlug returns domain.ErrNotFound if no place has that slug.
	GetBySlug(ctx context.Context, slug string) (domain.Place, error)

	// GetMany returns the places with the given ids. Unknown ids are skipped;
	// the order of the result is unspecified.
	GetMany(ctx context.Context, ids []uuid.UUID) ([]domain.Place, error)

	// Update overwrites the mutable fields (name, slug, description, tags,
	// location, photo) of an existing place. ID, AuthorID and CreatedAt are
	// never written. Returns domain.ErrNotFound or domain.ErrConflict.
	Update(ctx context.Context, place domain.Place) (domain.Place, error)

	// List returns one page of places, newest first.
	List(ctx context.Context, p domain.PaginationParams) ([]domain.Place, error)

	// Count returns the total number of places.
	Count(ctx context.Context) (int64, error)

	// ListByTag returns places carrying tag, newest first.
	// An empty tag returns every place that has at least one tag.
	ListByTag(ctx context.Context, tag string) ([]domain.Place, error)

	// SlugsMatching returns every slug equal to candidate or to a numbered
	// variant of it (case-insensitive), ignoring the place with id exclude.
	SlugsMatching(ctx context.Context, candidate string, exclude uuid.UUID) ([]string, error)

	// Near returns places within q.MaxDistanceMeters of q.Point, nearest first.
	Near(ctx context.Context, q domain.NearQuery) ([]domain.Place, error)

	// Search returns places matching any of terms (prefix match on name and
	// description), most relevant first.
	Search(ctx context.Context, terms []string, limit int) ([]domain.Place, error)
}

// RatingRepo stores and reads ratings.
type RatingRepo interface {
	// ListByPlace returns a place's ratings, newest first.
	ListByPlace(ctx context.Context, placeID uuid.UUID) ([]domain.Rating, error)

	// Add stores a rating and returns it with its id and creation time set.
	Add(ctx context.Context, rt domain.Rating) (domain.Rating, error)
}

// AggregateSource hands the aggregation pipelines their raw input rows.
type AggregateSource interface {
	// PlaceTags returns the tag list of every place that has tags.
	PlaceTags(ctx context.Context) ([]domain.PlaceTags, error)

	// RatedPlaces returns every place left-joined with its rating values.
	RatedPlaces(ctx context.Context) ([]domain.RatedPlace, error)
}

// HeartRepo stores each user's set of favourite places.
type HeartRepo interface {
	// Toggle removes placeID from the user's set if present, adds it otherwise,
	// and returns the resulting set. The toggle is a single atomic write.
	Toggle(ctx context.Context, userID domain.UserID, placeID uuid.UUID) ([]uuid.UUID, error)

	// List returns the user's set in the order places were added.
	List(ctx context.Context, userID domain.UserID) ([]uuid.UUID, error)
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scan helpers to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}
