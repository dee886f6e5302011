package repository

import (
	"context"

	"aventon/internal/domain"
)

// TripEventRepository persists the append-only audit log of a trip.
type TripEventRepository interface {
	// Append stores a new trip event.
	Append(ctx context.Context, event *domain.TripEvent) error

	// ListByTripID returns a trip's events, oldest first.
	ListByTripID(ctx context.Context, tripID string) ([]*domain.TripEvent, error)
}
