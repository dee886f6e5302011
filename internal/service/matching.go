package service

import (
	"context"
	"log"
	"time"

	"aventon/internal/domain"
	"aventon/internal/redis"
	"aventon/internal/repository"
)

const matchLockTTL = 2 * time.Minute

// MatchingConfig tunes the radius expansion search. RadiiKm must be
// monotonically increasing; each tier gets TierWait of wall-clock time
// to produce an acceptance, checked every PollInterval.
type MatchingConfig struct {
	RadiiKm      []float64
	TierWait     time.Duration
	PollInterval time.Duration
}

// DefaultMatchingConfig returns the reference search tuning.
func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		RadiiKm:      []float64{1, 3, 5},
		TierWait:     15 * time.Second,
		PollInterval: 2 * time.Second,
	}
}

// MatchStatus is the terminal outcome of a matching run.
type MatchStatus string

const (
	MatchStatusMatched    MatchStatus = "MATCHED"
	MatchStatusUnassigned MatchStatus = "UNASSIGNED"
	MatchStatusCancelled  MatchStatus = "CANCELLED"
)

// MatchOutcome describes how a matching run ended. Tier and RadiusKm
// identify the ring that produced the match (1-based), useful for
// search tuning.
type MatchOutcome struct {
	Status   MatchStatus
	DriverID string
	Tier     int
	RadiusKm float64
}

// MatchingService runs the per-trip driver search: it widens the
// geographic radius tier by tier, records the candidate set on the trip
// so driver clients can pick up the offer, and polls the trip's stored
// status until a driver accepts, the passenger cancels, or the tier's
// wait budget runs out.
//
// The service is read-only with respect to acceptance: drivers accept
// through a separate compare-and-set update path, and this process only
// observes the result on its next poll.
type MatchingService struct {
	cfg           MatchingConfig
	catalog       Catalog
	locationStore redis.LocationStoreInterface
	lockStore     redis.LockStoreInterface
	tripRepo      repository.TripRepository
	driverRepo    repository.DriverRepository
	eventRepo     repository.TripEventRepository
	notifier      *NotificationService
}

// NewMatchingService creates a new MatchingService. eventRepo and
// notifier may be nil.
func NewMatchingService(
	cfg MatchingConfig,
	catalog Catalog,
	locationStore redis.LocationStoreInterface,
	lockStore redis.LockStoreInterface,
	tripRepo repository.TripRepository,
	driverRepo repository.DriverRepository,
	eventRepo repository.TripEventRepository,
	notifier *NotificationService,
) *MatchingService {
	return &MatchingService{
		cfg:           cfg,
		catalog:       catalog,
		locationStore: locationStore,
		lockStore:     lockStore,
		tripRepo:      tripRepo,
		driverRepo:    driverRepo,
		eventRepo:     eventRepo,
		notifier:      notifier,
	}
}

// Run executes the radius expansion search for one trip. One invocation
// per REQUESTED trip; concurrent runs for the same trip are rejected
// via a distributed lock.
func (s *MatchingService) Run(ctx context.Context, tripID string) (*MatchOutcome, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireMatchLock(ctx, tripID, matchLockTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			return nil, ErrMatchingInProgress
		}
		defer func() {
			_ = s.lockStore.ReleaseMatchLock(context.WithoutCancel(ctx), tripID)
		}()
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != domain.TripStatusRequested {
		return nil, ErrTripNotRequested
	}

	svc, ok := s.catalog.Get(trip.ServiceID)
	if !ok {
		return nil, ErrUnknownService
	}

	rejected := toSet(trip.RejectedDriverIDs)

	for i, radius := range s.cfg.RadiiKm {
		tier := i + 1

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidates := s.candidatesAt(ctx, trip, svc.VehicleCategory, radius, rejected)
		if len(candidates) == 0 {
			// Nothing to wait for in an empty ring; widen immediately.
			continue
		}

		if err := s.tripRepo.SetNotifiedDrivers(ctx, trip.ID, candidates); err != nil {
			return nil, err
		}
		s.recordEvent(ctx, trip.ID, domain.TripEventOfferSent, offerDetail(tier, radius, len(candidates)))
		if s.notifier != nil {
			_ = s.notifier.NotifyOffer(ctx, trip, candidates, radius)
		}

		outcome, err := s.waitForAcceptance(ctx, trip.ID, tier, radius, rejected)
		if err != nil {
			return nil, err
		}
		if outcome != nil {
			return s.finish(ctx, trip, outcome)
		}
	}

	// Every ring exhausted without an acceptance. The CAS keeps a
	// last-second acceptance or cancellation from being overwritten.
	marked, err := s.tripRepo.MarkUnassignedIf(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	if !marked {
		fresh, err := s.tripRepo.GetByID(ctx, trip.ID)
		if err != nil {
			return nil, err
		}
		lastTier := len(s.cfg.RadiiKm)
		if outcome := outcomeFromStatus(fresh, lastTier, s.lastRadius()); outcome != nil {
			return s.finish(ctx, trip, outcome)
		}
		return nil, ErrTripNotRequested
	}

	s.recordEvent(ctx, trip.ID, domain.TripEventUnassigned, "no driver accepted within the search budget")
	if s.notifier != nil {
		_ = s.notifier.NotifyUnassigned(ctx, trip)
	}

	return &MatchOutcome{Status: MatchStatusUnassigned}, nil
}

// candidatesAt returns eligible driver IDs inside the ring: right
// vehicle category, ONLINE, and not in the rejected set. A geo-query
// failure degrades to an empty ring so a transient error does not
// strand the rider.
func (s *MatchingService) candidatesAt(ctx context.Context, trip *domain.Trip, category domain.VehicleCategory, radiusKm float64, rejected map[string]struct{}) []string {
	locations, err := s.locationStore.FindNearbyDrivers(ctx, category, trip.Origin.Lat, trip.Origin.Lng, radiusKm)
	if err != nil {
		log.Printf("matching: geo query failed for trip %s at %.1f km: %v", trip.ID, radiusKm, err)
		return nil
	}

	var candidates []string
	for _, loc := range locations {
		if _, ok := rejected[loc.DriverID]; ok {
			continue
		}

		driver, err := s.driverRepo.GetByID(ctx, loc.DriverID)
		if err != nil {
			if err != repository.ErrNotFound {
				log.Printf("matching: driver lookup failed for %s: %v", loc.DriverID, err)
			}
			continue
		}
		if driver.Status != domain.DriverStatusOnline {
			continue
		}
		if driver.VehicleCategory != category {
			continue
		}

		candidates = append(candidates, driver.ID)
	}

	return candidates
}

// waitForAcceptance polls the trip's stored status until a driver
// accepts, the trip is cancelled, or the tier's wait budget elapses.
// Returns nil when the tier timed out and the search should widen.
func (s *MatchingService) waitForAcceptance(ctx context.Context, tripID string, tier int, radiusKm float64, rejected map[string]struct{}) (*MatchOutcome, error) {
	deadline := time.Now().Add(s.cfg.TierWait)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}

		wait := s.cfg.PollInterval
		if wait > remaining {
			wait = remaining
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}

		fresh, err := s.tripRepo.GetByID(ctx, tripID)
		if err != nil {
			log.Printf("matching: status poll failed for trip %s: %v", tripID, err)
			continue
		}

		if outcome := outcomeFromStatus(fresh, tier, radiusKm); outcome != nil {
			return outcome, nil
		}

		// Still REQUESTED; fold in any rejections that arrived so the
		// next ring skips those drivers.
		for _, id := range fresh.RejectedDriverIDs {
			rejected[id] = struct{}{}
		}
	}
}

// outcomeFromStatus maps an externally observed status transition to a
// terminal outcome. Returns nil while the trip is still REQUESTED.
func outcomeFromStatus(trip *domain.Trip, tier int, radiusKm float64) *MatchOutcome {
	switch trip.Status {
	case domain.TripStatusRequested:
		return nil
	case domain.TripStatusCancelled:
		return &MatchOutcome{Status: MatchStatusCancelled}
	case domain.TripStatusUnassigned:
		return &MatchOutcome{Status: MatchStatusUnassigned}
	default:
		// ACCEPTED, or already progressed further by a fast driver.
		return &MatchOutcome{
			Status:   MatchStatusMatched,
			DriverID: trip.DriverID,
			Tier:     tier,
			RadiusKm: radiusKm,
		}
	}
}

func (s *MatchingService) finish(ctx context.Context, trip *domain.Trip, outcome *MatchOutcome) (*MatchOutcome, error) {
	if outcome.Status == MatchStatusMatched {
		if err := s.tripRepo.SetMatchResult(ctx, trip.ID, outcome.Tier, outcome.RadiusKm); err != nil {
			log.Printf("matching: failed to record match result for trip %s: %v", trip.ID, err)
		}
	}
	return outcome, nil
}

func (s *MatchingService) recordEvent(ctx context.Context, tripID string, eventType domain.TripEventType, detail string) {
	if s.eventRepo == nil {
		return
	}
	if err := s.eventRepo.Append(ctx, newTripEvent(tripID, eventType, detail)); err != nil {
		log.Printf("matching: failed to append %s event for trip %s: %v", eventType, tripID, err)
	}
}

func (s *MatchingService) lastRadius() float64 {
	if len(s.cfg.RadiiKm) == 0 {
		return 0
	}
	return s.cfg.RadiiKm[len(s.cfg.RadiiKm)-1]
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
