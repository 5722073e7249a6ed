package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/placebook/internal/domain"
	"github.com/pkordes/placebook/internal/repo"
)

// HeartService manages each user's favourite places.
type HeartService struct {
	hearts repo.HeartRepo
	places repo.PlaceRepo
}

// NewHeartService constructs a HeartService.
func NewHeartService(hearts repo.HeartRepo, places repo.PlaceRepo) *HeartService {
	return &HeartService{hearts: hearts, places: places}
}

// Toggle adds placeID to the user's favourites, or removes it if already
// there, and returns the resulting set.
// Returns domain.ErrUnauthenticated or domain.ErrNotFound for an unknown place.
func (s *HeartService) Toggle(ctx context.Context, user domain.UserID, placeID uuid.UUID) ([]uuid.UUID, error) {
	if user.IsZero() {
		return nil, fmt.Errorf("service.HeartService.Toggle: %w", domain.ErrUnauthenticated)
	}
	if _, err := s.places.GetByID(ctx, placeID); err != nil {
		return nil, fmt.Errorf("service.HeartService.Toggle: %w", err)
	}
	set, err := s.hearts.Toggle(ctx, user, placeID)
	if err != nil {
		return nil, fmt.Errorf("service.HeartService.Toggle: %w", err)
	}
	return set, nil
}

// Places returns the user's favourite places in the order they were added.
// Favourites whose place no longer exists are skipped.
func (s *HeartService) Places(ctx context.Context, user domain.UserID) ([]domain.Place, error) {
	if user.IsZero() {
		return nil, fmt.Errorf("service.HeartService.Places: %w", domain.ErrUnauthenticated)
	}
	ids, err := s.hearts.List(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("service.HeartService.Places: %w", err)
	}
	found, err := s.places.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("service.HeartService.Places: %w", err)
	}

	byID := make(map[uuid.UUID]domain.Place, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]domain.Place, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
