package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"aventon/internal/domain"
	"aventon/internal/redis"
	"aventon/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository. The
// conditional updates mirror the SQL compare-and-set semantics so
// concurrency tests exercise the same win/lose behavior.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters for verification
	CreateCallCount             int32
	AcceptCallCount             int32
	CancelCallCount             int32
	SetNotifiedDriversCallCount int32
	MarkUnassignedCallCount     int32
	SetMatchResultCallCount     int32

	// Error injection
	CreateError  error
	GetByIDError error
	AcceptError  error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

// GetTrip returns the stored trip for test assertions.
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	if m.GetByIDError != nil {
		return nil, m.GetByIDError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *trip
	copy.NotifiedDriverIDs = append([]string(nil), trip.NotifiedDriverIDs...)
	copy.RejectedDriverIDs = append([]string(nil), trip.RejectedDriverIDs...)
	return &copy, nil
}

func (m *MockTripRepository) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0, len(m.trips))
	for _, t := range m.trips {
		copy := *t
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[trip.ID]; !ok {
		return repository.ErrNotFound
	}
	m.trips[trip.ID] = trip
	return nil
}

func (m *MockTripRepository) Accept(ctx context.Context, tripID, driverID string, at time.Time) (bool, error) {
	atomic.AddInt32(&m.AcceptCallCount, 1)
	if m.AcceptError != nil {
		return false, m.AcceptError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if trip.Status != domain.TripStatusRequested {
		return false, nil
	}
	if !contains(trip.NotifiedDriverIDs, driverID) || contains(trip.RejectedDriverIDs, driverID) {
		return false, nil
	}
	trip.Status = domain.TripStatusAccepted
	trip.DriverID = driverID
	trip.AcceptedAt = at
	return true, nil
}

func (m *MockTripRepository) Cancel(ctx context.Context, tripID, reason string, at time.Time) (bool, error) {
	atomic.AddInt32(&m.CancelCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if trip.Status.Terminal() {
		return false, nil
	}
	trip.Status = domain.TripStatusCancelled
	trip.CancelReason = reason
	trip.CancelledAt = at
	return true, nil
}

func (m *MockTripRepository) UpdateStatusIf(ctx context.Context, tripID string, from, to domain.TripStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if trip.Status != from {
		return false, nil
	}
	trip.Status = to
	return true, nil
}

func (m *MockTripRepository) MarkUnassignedIf(ctx context.Context, tripID string) (bool, error) {
	atomic.AddInt32(&m.MarkUnassignedCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if trip.Status != domain.TripStatusRequested {
		return false, nil
	}
	trip.Status = domain.TripStatusUnassigned
	return true, nil
}

func (m *MockTripRepository) SetNotifiedDrivers(ctx context.Context, tripID string, driverIDs []string) error {
	atomic.AddInt32(&m.SetNotifiedDriversCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return repository.ErrNotFound
	}
	trip.NotifiedDriverIDs = append([]string(nil), driverIDs...)
	return nil
}

func (m *MockTripRepository) AddRejectedDriver(ctx context.Context, tripID, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return repository.ErrNotFound
	}
	if !contains(trip.RejectedDriverIDs, driverID) {
		trip.RejectedDriverIDs = append(trip.RejectedDriverIDs, driverID)
	}
	return nil
}

func (m *MockTripRepository) SetMatchResult(ctx context.Context, tripID string, tier int, radiusKm float64) error {
	atomic.AddInt32(&m.SetMatchResultCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return repository.ErrNotFound
	}
	trip.MatchTier = tier
	trip.MatchRadiusKm = radiusKm
	return nil
}

func (m *MockTripRepository) UpdateProgress(ctx context.Context, tripID string, lat, lng float64, etaMinutes int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return repository.ErrNotFound
	}
	trip.ProgressLat = lat
	trip.ProgressLng = lng
	trip.ETAMinutes = etaMinutes
	return nil
}

func (m *MockTripRepository) SetCompleted(ctx context.Context, tripID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if trip.Status != domain.TripStatusInProgress {
		return false, nil
	}
	trip.Status = domain.TripStatusCompleted
	trip.CompletedAt = at
	return true, nil
}

func (m *MockTripRepository) GetOffersForDriver(ctx context.Context, driverID string) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Trip
	for _, t := range m.trips {
		if t.Status != domain.TripStatusRequested {
			continue
		}
		if !contains(t.NotifiedDriverIDs, driverID) || contains(t.RejectedDriverIDs, driverID) {
			continue
		}
		copy := *t
		result = append(result, &copy)
	}
	return result, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	CreateCallCount       int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	UpdateStatusError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

// GetDriver returns driver for test assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetByPhone(ctx context.Context, phone string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.drivers {
		if d.Phone == phone {
			copy := *d
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockDriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		copy := *d
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockDriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Status = status
	return nil
}

// ──────────────────────────────────────────────
// MOCK LIQUIDATION REPOSITORY
// ──────────────────────────────────────────────

// MockLiquidationRepository is a mock implementation of LiquidationRepository.
type MockLiquidationRepository struct {
	mu        sync.RWMutex
	snapshots map[string][]*domain.LiquidationResult

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockLiquidationRepository creates a new mock liquidation repository.
func NewMockLiquidationRepository() *MockLiquidationRepository {
	return &MockLiquidationRepository{
		snapshots: make(map[string][]*domain.LiquidationResult),
	}
}

func (m *MockLiquidationRepository) Create(ctx context.Context, result *domain.LiquidationResult) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[result.TripID] = append(m.snapshots[result.TripID], result)
	return nil
}

func (m *MockLiquidationRepository) GetLatestByTripID(ctx context.Context, tripID string) (*domain.LiquidationResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.snapshots[tripID]
	if len(list) == 0 {
		return nil, repository.ErrNotFound
	}
	return list[len(list)-1], nil
}

func (m *MockLiquidationRepository) ListByTripID(ctx context.Context, tripID string) ([]*domain.LiquidationResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.LiquidationResult(nil), m.snapshots[tripID]...), nil
}

// ──────────────────────────────────────────────
// MOCK TRIP EVENT REPOSITORY
// ──────────────────────────────────────────────

// MockTripEventRepository is a mock implementation of TripEventRepository.
type MockTripEventRepository struct {
	mu     sync.RWMutex
	events map[string][]*domain.TripEvent

	// Counters for verification
	AppendCallCount int32
}

// NewMockTripEventRepository creates a new mock trip event repository.
func NewMockTripEventRepository() *MockTripEventRepository {
	return &MockTripEventRepository{
		events: make(map[string][]*domain.TripEvent),
	}
}

func (m *MockTripEventRepository) Append(ctx context.Context, event *domain.TripEvent) error {
	atomic.AddInt32(&m.AppendCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.TripID] = append(m.events[event.TripID], event)
	return nil
}

func (m *MockTripEventRepository) ListByTripID(ctx context.Context, tripID string) ([]*domain.TripEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.TripEvent(nil), m.events[tripID]...), nil
}

// EventTypes returns the recorded event types for a trip, in order.
func (m *MockTripEventRepository) EventTypes(tripID string) []domain.TripEventType {
	m.mu.RLock()
	defer m.mu.RUnlock()
	types := make([]domain.TripEventType, 0, len(m.events[tripID]))
	for _, e := range m.events[tripID] {
		types = append(types, e.Type)
	}
	return types
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

type storedLocation struct {
	category domain.VehicleCategory
	lat      float64
	lng      float64
}

// MockLocationStore is a mock implementation of LocationStoreInterface.
// FindNearbyDrivers does a straight-line distance check, close enough
// to the Redis geo query for test radii.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations map[string]storedLocation

	// Counters for verification
	FindNearbyCallCount int32

	// Error injection
	FindNearbyError error
	UpdateError     error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make(map[string]storedLocation),
	}
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, driverID string, category domain.VehicleCategory, lat, lng float64) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[driverID] = storedLocation{category: category, lat: lat, lng: lng}
	return nil
}

func (m *MockLocationStore) FindNearbyDrivers(ctx context.Context, category domain.VehicleCategory, lat, lng, radiusKm float64) ([]redis.DriverLocation, error) {
	atomic.AddInt32(&m.FindNearbyCallCount, 1)
	if m.FindNearbyError != nil {
		return nil, m.FindNearbyError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []redis.DriverLocation
	for id, loc := range m.locations {
		if loc.category != category {
			continue
		}
		dist := flatDistanceKm(lat, lng, loc.lat, loc.lng)
		if dist <= radiusKm {
			result = append(result, redis.DriverLocation{
				DriverID: id,
				Lat:      loc.lat,
				Lng:      loc.lng,
				DistKm:   dist,
			})
		}
	}
	return result, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, driverID string, category domain.VehicleCategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, driverID)
	return nil
}

// flatDistanceKm approximates distance on a flat earth, fine for the
// sub-degree offsets tests use. One degree of latitude is ~111 km.
func flatDistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * 111.0
	dLng := (lng2 - lng1) * 111.0
	if dLat < 0 {
		dLat = -dLat
	}
	if dLng < 0 {
		dLng = -dLng
	}
	if dLat > dLng {
		return dLat
	}
	return dLng
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	// Counters for verification
	AcquireMatchCallCount int32
	ReleaseMatchCallCount int32
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]bool)}
}

func (m *MockLockStore) AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	return m.acquire("driver:" + driverID)
}

func (m *MockLockStore) ReleaseDriverLock(ctx context.Context, driverID string) error {
	m.release("driver:" + driverID)
	return nil
}

func (m *MockLockStore) AcquireMatchLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireMatchCallCount, 1)
	return m.acquire("match:" + tripID)
}

func (m *MockLockStore) ReleaseMatchLock(ctx context.Context, tripID string) error {
	atomic.AddInt32(&m.ReleaseMatchCallCount, 1)
	m.release("match:" + tripID)
	return nil
}

func (m *MockLockStore) acquire(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *MockLockStore) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
}

// ──────────────────────────────────────────────
// MOCK RATE PROVIDER
// ──────────────────────────────────────────────

// FixedRateProvider returns a constant exchange rate.
type FixedRateProvider struct {
	Rate        float64
	RefreshedAt time.Time
}

func (p *FixedRateProvider) Current() (float64, time.Time) {
	return p.Rate, p.RefreshedAt
}

// ──────────────────────────────────────────────
// MOCK RATE STORE
// ──────────────────────────────────────────────

// MockRateStore is a mock implementation of RateStoreInterface.
type MockRateStore struct {
	mu          sync.RWMutex
	rate        float64
	refreshedAt time.Time
	hasRate     bool

	// Counters for verification
	SetCallCount int32

	// Error injection
	GetError error
	SetError error
}

// NewMockRateStore creates a new mock rate store.
func NewMockRateStore() *MockRateStore {
	return &MockRateStore{}
}

// Seed stores a rate as if a previous instance had written it.
func (m *MockRateStore) Seed(rate float64, refreshedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rate = rate
	m.refreshedAt = refreshedAt
	m.hasRate = true
}

func (m *MockRateStore) SetRate(ctx context.Context, rate float64, refreshedAt time.Time) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rate = rate
	m.refreshedAt = refreshedAt
	m.hasRate = true
	return nil
}

func (m *MockRateStore) GetRate(ctx context.Context) (float64, time.Time, error) {
	if m.GetError != nil {
		return 0, time.Time{}, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.hasRate {
		return 0, time.Time{}, repository.ErrNotFound
	}
	return m.rate, m.refreshedAt, nil
}
