package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"aventon/internal/domain"
)

// locationKey is the geo index for one vehicle category. Keeping one
// sorted set per category makes the radius query itself category-aware
// instead of filtering after the fact.
func locationKey(category domain.VehicleCategory) string {
	return fmt.Sprintf("drivers:locations:%s", category)
}

// DriverLocation represents a driver's position.
type DriverLocation struct {
	DriverID string
	Lat      float64
	Lng      float64
	DistKm   float64
}

// LocationStore handles driver location operations in Redis.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdateLocation stores a driver's location using GEOADD.
func (s *LocationStore) UpdateLocation(ctx context.Context, driverID string, category domain.VehicleCategory, lat, lng float64) error {
	return s.client.GeoAdd(ctx, locationKey(category), &redis.GeoLocation{
		Name:      driverID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// FindNearbyDrivers returns drivers of the given category within
// radiusKm of the point, closest first.
func (s *LocationStore) FindNearbyDrivers(ctx context.Context, category domain.VehicleCategory, lat, lng, radiusKm float64) ([]DriverLocation, error) {
	results, err := s.client.GeoRadius(ctx, locationKey(category), lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]DriverLocation, 0, len(results))
	for _, r := range results {
		locations = append(locations, DriverLocation{
			DriverID: r.Name,
			Lat:      r.Latitude,
			Lng:      r.Longitude,
			DistKm:   r.Dist,
		})
	}

	return locations, nil
}

// RemoveLocation removes a driver from the category's geo index.
func (s *LocationStore) RemoveLocation(ctx context.Context, driverID string, category domain.VehicleCategory) error {
	return s.client.ZRem(ctx, locationKey(category), driverID).Err()
}
