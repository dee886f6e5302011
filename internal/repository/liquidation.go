package repository

import (
	"context"

	"aventon/internal/domain"
)

// LiquidationRepository persists liquidation snapshots for audit and
// payout. Snapshots are append-only.
type LiquidationRepository interface {
	// Create persists a liquidation snapshot.
	Create(ctx context.Context, result *domain.LiquidationResult) error

	// GetLatestByTripID returns the most recent snapshot for a trip.
	GetLatestByTripID(ctx context.Context, tripID string) (*domain.LiquidationResult, error)

	// ListByTripID returns all snapshots for a trip, oldest first.
	ListByTripID(ctx context.Context, tripID string) ([]*domain.LiquidationResult, error)
}
