package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/placebook/internal/domain"
	"github.com/pkordes/placebook/internal/slug"
)

// slugConstraint is the unique constraint on places.slug.
const slugConstraint = "places_slug_key"

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// placeColumns lists the columns scanPlace expects, in order, with an optional
// table alias prefix (e.g. "p.").
func placeColumns(prefix string) string {
	return strings.NewReplacer("$", prefix).Replace(
		`$id, $name, $slug, $description, $tags,
		 ST_X($location::geometry), ST_Y($location::geometry),
		 $address, $photo, $author_id, $created_at`)
}

// pgPlaceRepo is the Postgres implementation of PlaceRepo.
type pgPlaceRepo struct {
	db db
}

// NewPlaceRepo constructs a PlaceRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewPlaceRepo(db db) PlaceRepo {
	return &pgPlaceRepo{db: db}
}

// Create inserts a new place row. The point is stored as geography so that
// distances are computed in meters.
func (r *pgPlaceRepo) Create(ctx context.Context, place domain.Place) (domain.Place, error) {
	q := `
		INSERT INTO places (name, slug, description, tags, location, address, photo, author_id)
		VALUES (@name, @slug, @description, @tags,
		        ST_SetSRID(ST_MakePoint(@lng, @lat), 4326)::geography,
		        @address, @photo, @author_id)
		RETURNING ` + placeColumns("")

	args := pgx.NamedArgs{
		"name":        place.Name,
		"slug":        place.Slug,
		"description": place.Description,
		"tags":        nonNilTags(place.Tags),
		"lng":         place.Location.Point.Lng,
		"lat":         place.Location.Point.Lat,
		"address":     place.Location.Address,
		"photo":       place.Photo,
		"author_id":   place.AuthorID.String(),
	}

	result, err := scanPlace(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Place{}, fmt.Errorf("repo.PlaceRepo.Create: %w", mapWriteError(err))
	}
	return result, nil
}

// GetByID retrieves a place by primary key.
func (r *pgPlaceRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Place, error) {
	q := `SELECT ` + placeColumns("") + ` FROM places WHERE id = @id`

	result, err := scanPlace(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Place{}, fmt.Errorf("repo.PlaceRepo.GetByID: %w", err)
	}
	return result, nil
}

// GetBySlug retrieves a place by its unique slug.
func (r *pgPlaceRepo) GetBySlug(ctx context.Context, s string) (domain.Place, error) {
	q := `SELECT ` + placeColumns("") + ` FROM places WHERE slug = @slug`

	result, err := scanPlace(r.db.QueryRow(ctx, q, pgx.NamedArgs{"slug": s}))
	if err != nil {
		return domain.Place{}, fmt.Errorf("repo.PlaceRepo.GetBySlug: %w", err)
	}
	return result, nil
}

// GetMany retrieves every place whose id is in ids.
func (r *pgPlaceRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]domain.Place, error) {
	if len(ids) == 0 {
		return []domain.Place{}, nil
	}
	q := `SELECT ` + placeColumns("") + ` FROM places WHERE id = ANY(@ids)`

	places, err := r.queryPlaces(ctx, q, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("repo.PlaceRepo.GetMany: %w", err)
	}
	return places, nil
}

// Update overwrites the mutable fields of a place. author_id and created_at
// are not part of the SET list.
func (r *pgPlaceRepo) Update(ctx context.Context, place domain.Place) (domain.Place, error) {
	q := `
		UPDATE places
		SET name        = @name,
		    slug        = @slug,
		    description = @description,
		    tags        = @tags,
		    location    = ST_SetSRID(ST_MakePoint(@lng, @lat), 4326)::geography,
		    address     = @address,
		    photo       = @photo
		WHERE id = @id
		RETURNING ` + placeColumns("")

	args := pgx.NamedArgs{
		"id":          place.ID,
		"name":        place.Name,
		"slug":        place.Slug,
		"description": place.Description,
		"tags":        nonNilTags(place.Tags),
		"lng":         place.Location.Point.Lng,
		"lat":         place.Location.Point.Lat,
		"address":     place.Location.Address,
		"photo":       place.Photo,
	}

	result, err := scanPlace(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Place{}, fmt.Errorf("repo.PlaceRepo.Update: %w", mapWriteError(err))
	}
	return result, nil
}

// List returns one page of places ordered by created_at descending.
// id breaks ties so that pages never overlap.
func (r *pgPlaceRepo) List(ctx context.Context, p domain.PaginationParams) ([]domain.Place, error) {
	q := `
		SELECT ` + placeColumns("") + `
		FROM places
		ORDER BY created_at DESC, id
		LIMIT @limit OFFSET @offset`

	places, err := r.queryPlaces(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, fmt.Errorf("repo.PlaceRepo.List: %w", err)
	}
	return places, nil
}

// Count returns the total number of places.
func (r *pgPlaceRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM places`).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.PlaceRepo.Count: %w", err)
	}
	return n, nil
}

// ListByTag returns places carrying tag, or every tagged place when tag is "".
func (r *pgPlaceRepo) ListByTag(ctx context.Context, tag string) ([]domain.Place, error) {
	filter := `@tag = ANY(tags)`
	if tag == "" {
		filter = `cardinality(tags) > 0`
	}
	q := `SELECT ` + placeColumns("") + ` FROM places WHERE ` + filter + ` ORDER BY created_at DESC, id`

	places, err := r.queryPlaces(ctx, q, pgx.NamedArgs{"tag": tag})
	if err != nil {
		return nil, fmt.Errorf("repo.PlaceRepo.ListByTag: %w", err)
	}
	return places, nil
}

// SlugsMatching uses the case-insensitive regex operator so "Cafe-2" counts
// against candidate "cafe" just as it would for the application.
func (r *pgPlaceRepo) SlugsMatching(ctx context.Context, candidate string, exclude uuid.UUID) ([]string, error) {
	const q = `
		SELECT slug
		FROM places
		WHERE slug ~* @pattern
		  AND id <> @exclude
		ORDER BY slug`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"pattern": slug.PatternBody(candidate), "exclude": exclude})
	if err != nil {
		return nil, fmt.Errorf("repo.PlaceRepo.SlugsMatching: %w", err)
	}
	defer rows.Close()

	slugs := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("repo.PlaceRepo.SlugsMatching: scan: %w", err)
		}
		slugs = append(slugs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.PlaceRepo.SlugsMatching: rows: %w", err)
	}
	return slugs, nil
}

// Near uses ST_DWithin against the GIST index and orders by distance.
// Both use the sphere (use_spheroid=false) so results agree with geo.Haversine.
func (r *pgPlaceRepo) Near(ctx context.Context, nq domain.NearQuery) ([]domain.Place, error) {
	q := `
		WITH origin AS (
			SELECT ST_SetSRID(ST_MakePoint(@lng, @lat), 4326)::geography AS point
		)
		SELECT ` + placeColumns("p.") + `
		FROM places p, origin o
		WHERE ST_DWithin(p.location, o.point, @max_distance, false)
		ORDER BY ST_Distance(p.location, o.point, false), p.id
		LIMIT @limit`

	args := pgx.NamedArgs{
		"lng":          nq.Point.Lng,
		"lat":          nq.Point.Lat,
		"max_distance": nq.MaxDistanceMeters,
		"limit":        nq.Limit,
	}

	places, err := r.queryPlaces(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.PlaceRepo.Near: %w", err)
	}
	return places, nil
}

// Search matches the generated search tsvector against an OR of prefix terms
// and ranks by ts_rank.
func (r *pgPlaceRepo) Search(ctx context.Context, terms []string, limit int) ([]domain.Place, error) {
	if len(terms) == 0 {
		return []domain.Place{}, nil
	}
	q := `
		SELECT ` + placeColumns("p.") + `
		FROM places p, to_tsquery('english', @query) AS query
		WHERE p.search @@ query
		ORDER BY ts_rank(p.search, query) DESC, p.created_at DESC, p.id
		LIMIT @limit`

	places, err := r.queryPlaces(ctx, q, pgx.NamedArgs{"query": tsQuery(terms), "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("repo.PlaceRepo.Search: %w", err)
	}
	return places, nil
}

// queryPlaces runs q and scans every row into a place.
// Always returns a non-nil slice on success.
func (r *pgPlaceRepo) queryPlaces(ctx context.Context, q string, args ...any) ([]domain.Place, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	places := []domain.Place{}
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return places, nil
}

// tsQuery turns search terms into a to_tsquery expression: any term, each as a
// prefix. Terms are already reduced to letters and digits by domain.SearchTerms.
func tsQuery(terms []string) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t + ":*"
	}
	return strings.Join(parts, " | ")
}

// nonNilTags keeps a nil slice from being written as NULL into the NOT NULL column.
func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// mapWriteError converts a unique violation on the slug into domain.ErrConflict.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == slugConstraint {
		return fmt.Errorf("%w: slug already taken", domain.ErrConflict)
	}
	return err
}

// scanPlace maps a single row selected with placeColumns into a domain.Place.
func scanPlace(s scanner) (domain.Place, error) {
	var (
		p      domain.Place
		id     pgtype.UUID
		author string
	)
	err := s.Scan(
		&id, &p.Name, &p.Slug, &p.Description, &p.Tags,
		&p.Location.Point.Lng, &p.Location.Point.Lat,
		&p.Location.Address, &p.Photo, &author, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Place{}, domain.ErrNotFound
		}
		return domain.Place{}, err
	}
	p.ID = uuid.UUID(id.Bytes)
	p.AuthorID = domain.UserID(author)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p, nil
}
