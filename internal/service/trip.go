package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"aventon/internal/domain"
	"aventon/internal/repository"
)

// Matcher starts the driver search for a trip. Implemented by
// MatchingService; an interface so tests can substitute it.
type Matcher interface {
	Run(ctx context.Context, tripID string) (*MatchOutcome, error)
}

// Ensure MatchingService implements Matcher.
var _ Matcher = (*MatchingService)(nil)

// TripService handles the trip lifecycle: quoting, creation, the driver
// accept/reject paths, progress updates, completion settlement, and
// cancellation.
type TripService struct {
	tripRepo   repository.TripRepository
	driverRepo repository.DriverRepository
	liqRepo    repository.LiquidationRepository
	eventRepo  repository.TripEventRepository
	liquidator *Liquidator
	rates      RateProvider
	matcher    Matcher
	notifier   *NotificationService
}

// NewTripService creates a new TripService. liqRepo, eventRepo, matcher
// and notifier may be nil.
func NewTripService(
	tripRepo repository.TripRepository,
	driverRepo repository.DriverRepository,
	liqRepo repository.LiquidationRepository,
	eventRepo repository.TripEventRepository,
	liquidator *Liquidator,
	rates RateProvider,
	matcher Matcher,
	notifier *NotificationService,
) *TripService {
	return &TripService{
		tripRepo:   tripRepo,
		driverRepo: driverRepo,
		liqRepo:    liqRepo,
		eventRepo:  eventRepo,
		liquidator: liquidator,
		rates:      rates,
		matcher:    matcher,
		notifier:   notifier,
	}
}

// CreateTripRequest contains the parameters for creating a trip.
type CreateTripRequest struct {
	PassengerID string
	Origin      domain.Location
	Destination domain.Location
	ServiceID   string
	DistanceKm  float64
	Beneficiary *domain.Beneficiary
}

// CreateTripResponse contains the created trip and its quote.
type CreateTripResponse struct {
	Trip  *domain.Trip
	Quote *domain.LiquidationResult
}

// CreateTrip quotes the fare at the current exchange rate, persists the
// trip in REQUESTED state, and kicks off the driver search
// asynchronously. The quote is returned so the rider sees the price
// before a driver is found.
func (s *TripService) CreateTrip(ctx context.Context, req CreateTripRequest) (*CreateTripResponse, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	rate, _ := s.rates.Current()
	quote, err := s.liquidator.Compute(req.ServiceID, req.DistanceKm, rate)
	if err != nil {
		return nil, err
	}

	trip := &domain.Trip{
		ID:          uuid.New().String(),
		PassengerID: req.PassengerID,
		Origin:      req.Origin,
		Destination: req.Destination,
		ServiceID:   req.ServiceID,
		Status:      domain.TripStatusRequested,
		PriceUSD:    quote.GrossUSD,
		PriceVES:    quote.GrossVES,
		DistanceKm:  quote.DistanceKm,
		Beneficiary: req.Beneficiary,
		CreatedAt:   time.Now(),
	}

	quote.TripID = trip.ID
	quote.Phase = domain.LiquidationPhaseQuote
	trip.Liquidation = quote

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}
	s.saveLiquidation(ctx, quote)
	s.recordEvent(ctx, trip.ID, domain.TripEventCreated,
		fmt.Sprintf("service=%s distance=%.2fkm quote=%.2f USD", trip.ServiceID, trip.DistanceKm, trip.PriceUSD))

	// The search runs on its own context: it must outlive the HTTP
	// request that created the trip.
	if s.matcher != nil {
		go func() {
			outcome, err := s.matcher.Run(context.Background(), trip.ID)
			if err != nil {
				log.Printf("matching run for trip %s failed: %v", trip.ID, err)
				return
			}
			log.Printf("matching run for trip %s finished: %s", trip.ID, outcome.Status)
		}()
	}

	return &CreateTripResponse{Trip: trip, Quote: quote}, nil
}

// GetTrip returns a trip with its latest liquidation snapshot attached.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if s.liqRepo != nil {
		if liq, err := s.liqRepo.GetLatestByTripID(ctx, tripID); err == nil {
			trip.Liquidation = liq
		}
	}

	return trip, nil
}

// GetAllTrips returns recent trips.
func (s *TripService) GetAllTrips(ctx context.Context) ([]*domain.Trip, error) {
	return s.tripRepo.GetAll(ctx)
}

// GetTripEvents returns a trip's audit log.
func (s *TripService) GetTripEvents(ctx context.Context, tripID string) ([]*domain.TripEvent, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if _, err := s.tripRepo.GetByID(ctx, tripID); err != nil {
		return nil, err
	}
	if s.eventRepo == nil {
		return nil, nil
	}
	return s.eventRepo.ListByTripID(ctx, tripID)
}

// AcceptTrip is the driver's acceptance path: an atomic conditional
// update that succeeds only while the trip is still REQUESTED and the
// driver holds an offer. Exactly one of several competing drivers wins.
func (s *TripService) AcceptTrip(ctx context.Context, tripID, driverID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	accepted, err := s.tripRepo.Accept(ctx, tripID, driverID, time.Now())
	if err != nil {
		return nil, err
	}
	if !accepted {
		return nil, s.acceptFailure(ctx, tripID, driverID)
	}

	if err := s.driverRepo.UpdateStatus(ctx, driverID, domain.DriverStatusOnTrip); err != nil && err != repository.ErrNotFound {
		log.Printf("failed to set driver %s on trip: %v", driverID, err)
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	s.recordEvent(ctx, tripID, domain.TripEventAccepted, "driver "+driverID)
	if s.notifier != nil {
		_ = s.notifier.NotifyAssigned(ctx, trip)
	}

	return trip, nil
}

// acceptFailure distinguishes why the conditional accept did not land.
func (s *TripService) acceptFailure(ctx context.Context, tripID, driverID string) error {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if trip.Status != domain.TripStatusRequested {
		return ErrTripNotRequested
	}
	for _, id := range trip.NotifiedDriverIDs {
		if id == driverID {
			// Holding an offer but the CAS refused: rejected earlier.
			return ErrOfferRejected
		}
	}
	return ErrOfferNotForDriver
}

// RejectTrip records a driver's explicit rejection so later search
// tiers skip them.
func (s *TripService) RejectTrip(ctx context.Context, tripID, driverID string) error {
	if tripID == "" {
		return ErrInvalidTripID
	}
	if driverID == "" {
		return ErrInvalidDriverID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if trip.Status != domain.TripStatusRequested {
		return ErrTripNotRequested
	}

	if err := s.tripRepo.AddRejectedDriver(ctx, tripID, driverID); err != nil {
		return err
	}

	s.recordEvent(ctx, tripID, domain.TripEventRejected, "driver "+driverID)
	return nil
}

// StartTrip moves an ACCEPTED trip to IN_PROGRESS. Only the assigned
// driver may start it.
func (s *TripService) StartTrip(ctx context.Context, tripID, driverID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.DriverID != driverID {
		return nil, ErrDriverNotAssigned
	}

	ok, err := s.tripRepo.UpdateStatusIf(ctx, tripID, domain.TripStatusAccepted, domain.TripStatusInProgress)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTripNotAccepted
	}

	trip.Status = domain.TripStatusInProgress
	s.recordEvent(ctx, tripID, domain.TripEventStarted, "driver "+driverID)

	return trip, nil
}

// CompleteTripResponse contains the completed trip and its settlement.
type CompleteTripResponse struct {
	Trip       *domain.Trip
	Settlement *domain.LiquidationResult
}

// CompleteTrip moves an IN_PROGRESS trip to COMPLETED and computes the
// final settlement at the exchange rate current right now, which may
// differ from the rate the quote used. The settlement snapshot is
// persisted for payout and tax reporting; a failed reconciliation is
// flagged on the snapshot, never blocks completion.
func (s *TripService) CompleteTrip(ctx context.Context, tripID, driverID string) (*CompleteTripResponse, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if driverID != "" && trip.DriverID != driverID {
		return nil, ErrDriverNotAssigned
	}

	now := time.Now()
	ok, err := s.tripRepo.SetCompleted(ctx, tripID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTripNotInProgress
	}

	trip.Status = domain.TripStatusCompleted
	trip.CompletedAt = now

	rate, _ := s.rates.Current()
	settlement, err := s.liquidator.Compute(trip.ServiceID, trip.DistanceKm, rate)
	if err != nil {
		return nil, err
	}
	settlement.TripID = trip.ID
	settlement.Phase = domain.LiquidationPhaseSettlement
	trip.Liquidation = settlement

	s.saveLiquidation(ctx, settlement)
	s.recordEvent(ctx, tripID, domain.TripEventCompleted,
		fmt.Sprintf("settlement=%.2f USD rate=%.2f valid=%t", settlement.GrossUSD, rate, settlement.Meta.Valid))

	if !settlement.Meta.Valid {
		log.Printf("liquidation for trip %s failed reconciliation, flagged for review", trip.ID)
	}

	if trip.DriverID != "" {
		if err := s.driverRepo.UpdateStatus(ctx, trip.DriverID, domain.DriverStatusOnline); err != nil && err != repository.ErrNotFound {
			log.Printf("failed to set driver %s back online: %v", trip.DriverID, err)
		}
	}

	if s.notifier != nil {
		_ = s.notifier.NotifySettlement(ctx, trip, settlement)
	}

	return &CompleteTripResponse{Trip: trip, Settlement: settlement}, nil
}

// CancelTrip moves a non-terminal trip to CANCELLED. The matching
// process, if running, observes the transition on its next poll and
// exits with a cancellation outcome.
func (s *TripService) CancelTrip(ctx context.Context, tripID, reason string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	cancelled, err := s.tripRepo.Cancel(ctx, tripID, reason, time.Now())
	if err != nil {
		return nil, err
	}
	if !cancelled {
		trip, err := s.tripRepo.GetByID(ctx, tripID)
		if err != nil {
			return nil, err
		}
		if trip.Status == domain.TripStatusCancelled {
			return nil, ErrTripAlreadyCancelled
		}
		return nil, ErrTripTerminal
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	s.recordEvent(ctx, tripID, domain.TripEventCancelled, reason)
	if s.notifier != nil {
		_ = s.notifier.NotifyCancelled(ctx, trip)
	}

	if trip.DriverID != "" {
		if err := s.driverRepo.UpdateStatus(ctx, trip.DriverID, domain.DriverStatusOnline); err != nil && err != repository.ErrNotFound {
			log.Printf("failed to set driver %s back online: %v", trip.DriverID, err)
		}
	}

	return trip, nil
}

// UpdateProgress stores the driver's reported position and ETA on an
// active trip.
func (s *TripService) UpdateProgress(ctx context.Context, tripID string, lat, lng float64, etaMinutes int) error {
	if tripID == "" {
		return ErrInvalidTripID
	}
	if !isValidLatitude(lat) || !isValidLongitude(lng) {
		return ErrInvalidLocation
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if trip.Status != domain.TripStatusAccepted && trip.Status != domain.TripStatusInProgress {
		return ErrTripNotInProgress
	}

	return s.tripRepo.UpdateProgress(ctx, tripID, lat, lng, etaMinutes)
}

func (s *TripService) validateCreateRequest(req CreateTripRequest) error {
	if req.PassengerID == "" {
		return ErrInvalidPassengerID
	}
	if req.Origin.Address == "" || !isValidLatitude(req.Origin.Lat) || !isValidLongitude(req.Origin.Lng) {
		return ErrInvalidOrigin
	}
	if req.Destination.Address == "" || !isValidLatitude(req.Destination.Lat) || !isValidLongitude(req.Destination.Lng) {
		return ErrInvalidDestination
	}
	return nil
}

func (s *TripService) saveLiquidation(ctx context.Context, result *domain.LiquidationResult) {
	if s.liqRepo == nil {
		return
	}
	if err := s.liqRepo.Create(ctx, result); err != nil {
		log.Printf("failed to persist %s liquidation for trip %s: %v", result.Phase, result.TripID, err)
	}
}

func (s *TripService) recordEvent(ctx context.Context, tripID string, eventType domain.TripEventType, detail string) {
	if s.eventRepo == nil {
		return
	}
	if err := s.eventRepo.Append(ctx, newTripEvent(tripID, eventType, detail)); err != nil {
		log.Printf("failed to append %s event for trip %s: %v", eventType, tripID, err)
	}
}

func newTripEvent(tripID string, eventType domain.TripEventType, detail string) *domain.TripEvent {
	return &domain.TripEvent{
		ID:        uuid.New().String(),
		TripID:    tripID,
		Type:      eventType,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
}

func offerDetail(tier int, radiusKm float64, candidates int) string {
	return fmt.Sprintf("tier=%d radius=%.1fkm candidates=%d", tier, radiusKm, candidates)
}

func isValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func isValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}
