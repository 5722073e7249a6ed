package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/placebook/internal/domain"
)

// pgRatingRepo is the Postgres implementation of RatingRepo.
type pgRatingRepo struct {
	db db
}

// NewRatingRepo constructs a RatingRepo backed by the provided db connection.
func NewRatingRepo(db db) RatingRepo {
	return &pgRatingRepo{db: db}
}

// ListByPlace returns the ratings of one place, newest first.
func (r *pgRatingRepo) ListByPlace(ctx context.Context, placeID uuid.UUID) ([]domain.Rating, error) {
	const q = `
		SELECT id, place_id, rating::float8, text, author_id, created_at
		FROM ratings
		WHERE place_id = @place_id
		ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"place_id": placeID})
	if err != nil {
		return nil, fmt.Errorf("repo.RatingRepo.ListByPlace: %w", err)
	}
	defer rows.Close()

	ratings := []domain.Rating{}
	for rows.Next() {
		var (
			rt      domain.Rating
			id, pid pgtype.UUID
			author  string
		)
		if err := rows.Scan(&id, &pid, &rt.Rating, &rt.Text, &author, &rt.CreatedAt); err != nil {
			return nil, fmt.Errorf("repo.RatingRepo.ListByPlace: scan: %w", err)
		}
		rt.ID = uuid.UUID(id.Bytes)
		rt.PlaceID = uuid.UUID(pid.Bytes)
		rt.AuthorID = domain.UserID(author)
		ratings = append(ratings, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.RatingRepo.ListByPlace: rows: %w", err)
	}
	return ratings, nil
}

// Add inserts a rating. The place_id foreign key rejects unknown places.
func (r *pgRatingRepo) Add(ctx context.Context, rt domain.Rating) (domain.Rating, error) {
	const q = `
		INSERT INTO ratings (place_id, rating, text, author_id)
		VALUES (@place_id, @rating, @text, @author_id)
		RETURNING id, created_at`

	var id pgtype.UUID
	args := pgx.NamedArgs{
		"place_id":  rt.PlaceID,
		"rating":    rt.Rating,
		"text":      rt.Text,
		"author_id": rt.AuthorID.String(),
	}
	if err := r.db.QueryRow(ctx, q, args).Scan(&id, &rt.CreatedAt); err != nil {
		return domain.Rating{}, fmt.Errorf("repo.RatingRepo.Add: %w", err)
	}
	rt.ID = uuid.UUID(id.Bytes)
	return rt, nil
}
