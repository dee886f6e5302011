package repository

import (
	"context"
	"time"

	"aventon/internal/domain"
)

// TripRepository defines the persistence operations for trips.
//
// The conditional updates (Accept, Cancel, UpdateStatusIf,
// MarkUnassignedIf) are compare-and-set: they succeed only when the
// stored status still matches the expected one, which is what keeps two
// drivers from both accepting the same trip.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetAll retrieves recent trips.
	GetAll(ctx context.Context) ([]*domain.Trip, error)

	// Update updates an existing trip.
	Update(ctx context.Context, trip *domain.Trip) error

	// Accept atomically assigns the driver if the trip is still
	// REQUESTED and the driver currently holds an offer. Returns false
	// when the condition did not hold.
	Accept(ctx context.Context, tripID, driverID string, at time.Time) (bool, error)

	// Cancel moves a non-terminal trip to CANCELLED. Returns false when
	// the trip was already terminal.
	Cancel(ctx context.Context, tripID, reason string, at time.Time) (bool, error)

	// UpdateStatusIf transitions status from one value to another.
	UpdateStatusIf(ctx context.Context, tripID string, from, to domain.TripStatus) (bool, error)

	// MarkUnassignedIf moves a still-REQUESTED trip to UNASSIGNED.
	MarkUnassignedIf(ctx context.Context, tripID string) (bool, error)

	// SetNotifiedDrivers records the candidate set currently holding an
	// offer for this trip.
	SetNotifiedDrivers(ctx context.Context, tripID string, driverIDs []string) error

	// AddRejectedDriver records an explicit rejection by a driver.
	AddRejectedDriver(ctx context.Context, tripID, driverID string) error

	// SetMatchResult records at which tier and radius the match happened.
	SetMatchResult(ctx context.Context, tripID string, tier int, radiusKm float64) error

	// UpdateProgress stores the driver's reported position and ETA.
	UpdateProgress(ctx context.Context, tripID string, lat, lng float64, etaMinutes int) error

	// SetCompleted moves an IN_PROGRESS trip to COMPLETED.
	SetCompleted(ctx context.Context, tripID string, at time.Time) (bool, error)

	// GetOffersForDriver returns REQUESTED trips currently offered to
	// the driver and not rejected by them.
	GetOffersForDriver(ctx context.Context, driverID string) ([]*domain.Trip, error)
}
