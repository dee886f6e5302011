package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"aventon/internal/redis"
)

// RateProvider exposes the current VES-per-USD exchange rate. The rate
// is read at the moment of each liquidation, never cached per trip, so
// a quote and a later settlement may legitimately use different rates.
type RateProvider interface {
	Current() (rate float64, refreshedAt time.Time)
}

// RateSource fetches a fresh exchange rate from an external feed.
type RateSource interface {
	Fetch(ctx context.Context) (float64, error)
}

// HTTPRateSource polls a JSON currency API and extracts a single
// numeric field from the response body.
type HTTPRateSource struct {
	url    string
	field  string
	client *http.Client
}

// NewHTTPRateSource creates a rate source for the given endpoint.
func NewHTTPRateSource(url, field string) *HTTPRateSource {
	return &HTTPRateSource{
		url:    url,
		field:  field,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch retrieves the current rate from the API.
func (s *HTTPRateSource) Fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate source returned status %d", resp.StatusCode)
	}

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, err
	}

	raw, ok := payload[s.field]
	if !ok {
		return 0, fmt.Errorf("rate source response missing field %q", s.field)
	}

	var rate float64
	if err := json.Unmarshal(raw, &rate); err != nil {
		return 0, fmt.Errorf("rate source field %q is not numeric: %w", s.field, err)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("rate source returned non-positive rate %f", rate)
	}

	return rate, nil
}

// ExchangeService keeps an in-memory snapshot of the exchange rate,
// refreshed on a fixed interval, with a Redis write-through so other
// instances and restarts pick up the last known rate.
type ExchangeService struct {
	source    RateSource
	rateStore redis.RateStoreInterface
	interval  time.Duration

	mu          sync.RWMutex
	rate        float64
	refreshedAt time.Time
}

// NewExchangeService creates an ExchangeService seeded with the
// fallback rate. rateStore may be nil.
func NewExchangeService(source RateSource, rateStore redis.RateStoreInterface, fallbackRate float64, interval time.Duration) *ExchangeService {
	return &ExchangeService{
		source:    source,
		rateStore: rateStore,
		interval:  interval,
		rate:      fallbackRate,
	}
}

// Start seeds the snapshot from the shared cache, refreshes once
// immediately, and then keeps refreshing until ctx is done.
func (s *ExchangeService) Start(ctx context.Context) {
	if s.rateStore != nil {
		if rate, at, err := s.rateStore.GetRate(ctx); err == nil && rate > 0 {
			s.set(rate, at)
		}
	}

	s.refresh(ctx)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.refresh(ctx)
			}
		}
	}()
}

// Current returns the latest known rate and when it was refreshed.
func (s *ExchangeService) Current() (float64, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rate, s.refreshedAt
}

func (s *ExchangeService) refresh(ctx context.Context) {
	rate, err := s.source.Fetch(ctx)
	if err != nil {
		// Keep serving the previous rate; a stale rate beats no rate.
		log.Printf("exchange rate refresh failed: %v", err)
		return
	}

	now := time.Now()
	s.set(rate, now)

	if s.rateStore != nil {
		if err := s.rateStore.SetRate(ctx, rate, now); err != nil {
			log.Printf("exchange rate cache write failed: %v", err)
		}
	}
}

func (s *ExchangeService) set(rate float64, at time.Time) {
	s.mu.Lock()
	s.rate = rate
	s.refreshedAt = at
	s.mu.Unlock()
}

// Ensure ExchangeService implements RateProvider.
var _ RateProvider = (*ExchangeService)(nil)
