package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/placebook/internal/domain"
)

// pgHeartRepo is the Postgres implementation of HeartRepo.
// Each user has one row holding an ordered uuid[] of hearted places.
type pgHeartRepo struct {
	db db
}

// NewHeartRepo constructs a HeartRepo backed by the provided db connection.
func NewHeartRepo(db db) HeartRepo {
	return &pgHeartRepo{db: db}
}

// Toggle is one upsert statement, so two concurrent toggles of the same place
// serialize on the user's row instead of racing a read-modify-write.
func (r *pgHeartRepo) Toggle(ctx context.Context, userID domain.UserID, placeID uuid.UUID) ([]uuid.UUID, error) {
	const q = `
		INSERT INTO user_hearts (user_id, hearts)
		VALUES (@user_id, ARRAY[@place_id::uuid])
		ON CONFLICT (user_id) DO UPDATE
		SET hearts = CASE
			WHEN @place_id::uuid = ANY(user_hearts.hearts)
				THEN array_remove(user_hearts.hearts, @place_id::uuid)
			ELSE array_append(user_hearts.hearts, @place_id::uuid)
		END
		RETURNING hearts`

	var raw []pgtype.UUID
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID.String(), "place_id": placeID}).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("repo.HeartRepo.Toggle: %w", err)
	}
	return toUUIDs(raw), nil
}

// List returns an empty set for users who have never hearted anything.
func (r *pgHeartRepo) List(ctx context.Context, userID domain.UserID) ([]uuid.UUID, error) {
	const q = `SELECT hearts FROM user_hearts WHERE user_id = @user_id`

	var raw []pgtype.UUID
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID.String()}).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []uuid.UUID{}, nil
		}
		return nil, fmt.Errorf("repo.HeartRepo.List: %w", err)
	}
	return toUUIDs(raw), nil
}

func toUUIDs(raw []pgtype.UUID) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, id := range raw {
		ids = append(ids, uuid.UUID(id.Bytes))
	}
	return ids
}
