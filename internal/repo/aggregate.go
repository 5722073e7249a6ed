package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/placebook/internal/domain"
)

// pgAggregateSource is the Postgres implementation of AggregateSource.
// It only fetches rows; grouping, averaging and sorting happen in the
// aggregate package so every store shares one implementation.
type pgAggregateSource struct {
	db db
}

// NewAggregateSource constructs an AggregateSource backed by the provided db connection.
func NewAggregateSource(db db) AggregateSource {
	return &pgAggregateSource{db: db}
}

// PlaceTags returns the tag arrays of every tagged place.
func (r *pgAggregateSource) PlaceTags(ctx context.Context) ([]domain.PlaceTags, error) {
	const q = `SELECT id, tags FROM places WHERE cardinality(tags) > 0 ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.AggregateSource.PlaceTags: %w", err)
	}
	defer rows.Close()

	out := []domain.PlaceTags{}
	for rows.Next() {
		var (
			id   pgtype.UUID
			tags []string
		)
		if err := rows.Scan(&id, &tags); err != nil {
			return nil, fmt.Errorf("repo.AggregateSource.PlaceTags: scan: %w", err)
		}
		out = append(out, domain.PlaceTags{PlaceID: uuid.UUID(id.Bytes), Tags: tags})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.AggregateSource.PlaceTags: rows: %w", err)
	}
	return out, nil
}

// RatedPlaces left-joins places with their rating values. Places without
// ratings come back with an empty Ratings slice.
func (r *pgAggregateSource) RatedPlaces(ctx context.Context) ([]domain.RatedPlace, error) {
	q := `
		SELECT ` + placeColumns("p.") + `,
		       COALESCE(array_agg(r.rating::float8 ORDER BY r.created_at)
		                FILTER (WHERE r.id IS NOT NULL), '{}')
		FROM places p
		LEFT JOIN ratings r ON r.place_id = p.id
		GROUP BY p.id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.AggregateSource.RatedPlaces: %w", err)
	}
	defer rows.Close()

	out := []domain.RatedPlace{}
	for rows.Next() {
		var (
			rp     domain.RatedPlace
			id     pgtype.UUID
			author string
		)
		p := &rp.Place
		err := rows.Scan(
			&id, &p.Name, &p.Slug, &p.Description, &p.Tags,
			&p.Location.Point.Lng, &p.Location.Point.Lat,
			&p.Location.Address, &p.Photo, &author, &p.CreatedAt,
			&rp.Ratings,
		)
		if err != nil {
			return nil, fmt.Errorf("repo.AggregateSource.RatedPlaces: scan: %w", err)
		}
		p.ID = uuid.UUID(id.Bytes)
		p.AuthorID = domain.UserID(author)
		out = append(out, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.AggregateSource.RatedPlaces: rows: %w", err)
	}
	return out, nil
}
