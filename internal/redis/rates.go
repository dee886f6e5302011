package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rateKey = "exchange:usd_ves"

	// A stale rate is still better than no rate after a restart, so the
	// cached value outlives many refresh intervals.
	rateTTL = 24 * time.Hour
)

// cachedRate is the stored exchange rate snapshot.
type cachedRate struct {
	Rate        float64   `json:"rate"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// RateStore shares the last fetched exchange rate across instances and
// restarts.
type RateStore struct {
	client *redis.Client
}

// NewRateStore creates a new RateStore.
func NewRateStore(client *redis.Client) *RateStore {
	return &RateStore{client: client}
}

// SetRate stores the rate and its refresh timestamp.
func (s *RateStore) SetRate(ctx context.Context, rate float64, refreshedAt time.Time) error {
	data, err := json.Marshal(cachedRate{Rate: rate, RefreshedAt: refreshedAt})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, rateKey, data, rateTTL).Err()
}

// GetRate returns the cached rate and when it was refreshed. Returns
// redis.Nil via the error when no rate has been cached yet.
func (s *RateStore) GetRate(ctx context.Context) (float64, time.Time, error) {
	data, err := s.client.Get(ctx, rateKey).Bytes()
	if err != nil {
		return 0, time.Time{}, err
	}

	var cached cachedRate
	if err := json.Unmarshal(data, &cached); err != nil {
		return 0, time.Time{}, err
	}

	return cached.Rate, cached.RefreshedAt, nil
}
