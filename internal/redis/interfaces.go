package redis

import (
	"context"
	"time"

	"aventon/internal/domain"
)

// LocationStoreInterface defines the interface for driver location operations.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, driverID string, category domain.VehicleCategory, lat, lng float64) error
	FindNearbyDrivers(ctx context.Context, category domain.VehicleCategory, lat, lng, radiusKm float64) ([]DriverLocation, error)
	RemoveLocation(ctx context.Context, driverID string, category domain.VehicleCategory) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error)
	ReleaseDriverLock(ctx context.Context, driverID string) error
	AcquireMatchLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error)
	ReleaseMatchLock(ctx context.Context, tripID string) error
}

// RateStoreInterface defines the interface for the exchange rate cache.
type RateStoreInterface interface {
	SetRate(ctx context.Context, rate float64, refreshedAt time.Time) error
	GetRate(ctx context.Context) (float64, time.Time, error)
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
	_ RateStoreInterface     = (*RateStore)(nil)
)
