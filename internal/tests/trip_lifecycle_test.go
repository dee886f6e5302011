package tests

import (
	"context"
	"sync"
	"testing"
	"time"

	"aventon/internal/config"
	"aventon/internal/domain"
	"aventon/internal/service"
)

type tripFixture struct {
	tripRepo   *MockTripRepository
	driverRepo *MockDriverRepository
	liqRepo    *MockLiquidationRepository
	eventRepo  *MockTripEventRepository
	rates      *FixedRateProvider
	svc        *service.TripService
}

func newTripFixture() *tripFixture {
	f := &tripFixture{
		tripRepo:   NewMockTripRepository(),
		driverRepo: NewMockDriverRepository(),
		liqRepo:    NewMockLiquidationRepository(),
		eventRepo:  NewMockTripEventRepository(),
		rates:      &FixedRateProvider{Rate: 40.0, RefreshedAt: time.Now()},
	}
	liquidator := service.NewLiquidator(config.DefaultCatalog(), service.DefaultRateTable())
	f.svc = service.NewTripService(f.tripRepo, f.driverRepo, f.liqRepo, f.eventRepo,
		liquidator, f.rates, nil, nil)
	return f
}

func validCreateRequest() service.CreateTripRequest {
	return service.CreateTripRequest{
		PassengerID: "passenger-1",
		Origin:      domain.Location{Address: "Plaza Venezuela", Lat: 10.0, Lng: -66.0},
		Destination: domain.Location{Address: "Chacao", Lat: 10.05, Lng: -66.05},
		ServiceID:   "mototaxi",
		DistanceKm:  8.0,
	}
}

func TestTripCreation_QuotesAndPersists(t *testing.T) {
	f := newTripFixture()
	ctx := context.Background()

	resp, err := f.svc.CreateTrip(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	trip := resp.Trip
	if trip.Status != domain.TripStatusRequested {
		t.Errorf("expected REQUESTED, got %s", trip.Status)
	}
	if !almostEqual(trip.PriceUSD, 2.39) {
		t.Errorf("expected quoted price 2.39 USD, got %.4f", trip.PriceUSD)
	}
	if !almostEqual(trip.PriceVES, 95.60) {
		t.Errorf("expected quoted price 95.60 VES, got %.4f", trip.PriceVES)
	}

	if resp.Quote.Phase != domain.LiquidationPhaseQuote {
		t.Errorf("expected QUOTE phase, got %s", resp.Quote.Phase)
	}
	if resp.Quote.TripID != trip.ID {
		t.Error("expected quote bound to the created trip")
	}

	// The quote snapshot and the creation event are persisted.
	if f.liqRepo.CreateCallCount != 1 {
		t.Errorf("expected 1 persisted snapshot, got %d", f.liqRepo.CreateCallCount)
	}
	types := f.eventRepo.EventTypes(trip.ID)
	if len(types) != 1 || types[0] != domain.TripEventCreated {
		t.Errorf("expected [TRIP_CREATED], got %v", types)
	}
}

func TestTripCreation_Validation(t *testing.T) {
	f := newTripFixture()
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(*service.CreateTripRequest)
		wantErr error
	}{
		{"missing passenger", func(r *service.CreateTripRequest) { r.PassengerID = "" }, service.ErrInvalidPassengerID},
		{"missing origin address", func(r *service.CreateTripRequest) { r.Origin.Address = "" }, service.ErrInvalidOrigin},
		{"origin latitude out of range", func(r *service.CreateTripRequest) { r.Origin.Lat = 91 }, service.ErrInvalidOrigin},
		{"destination longitude out of range", func(r *service.CreateTripRequest) { r.Destination.Lng = -181 }, service.ErrInvalidDestination},
		{"unknown service tier", func(r *service.CreateTripRequest) { r.ServiceID = "submarino" }, service.ErrUnknownService},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreateRequest()
			tc.mutate(&req)
			if _, err := f.svc.CreateTrip(ctx, req); err != tc.wantErr {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	if f.tripRepo.CreateCallCount != 0 {
		t.Errorf("invalid requests must not persist trips, got %d creates", f.tripRepo.CreateCallCount)
	}
}

func TestTripAccept_ExactlyOneDriverWins(t *testing.T) {
	f := newTripFixture()
	ctx := context.Background()

	resp, err := f.svc.CreateTrip(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tripID := resp.Trip.ID

	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-a", Status: domain.DriverStatusOnline, VehicleCategory: domain.VehicleMoto})
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-b", Status: domain.DriverStatusOnline, VehicleCategory: domain.VehicleMoto})
	if err := f.tripRepo.SetNotifiedDrivers(ctx, tripID, []string{"driver-a", "driver-b"}); err != nil {
		t.Fatalf("setup: %v", err)
	}

	var wg sync.WaitGroup
	results := make(map[string]error, 2)
	var mu sync.Mutex
	for _, driverID := range []string{"driver-a", "driver-b"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.AcceptTrip(ctx, tripID, id)
			mu.Lock()
			results[id] = err
			mu.Unlock()
		}(driverID)
	}
	wg.Wait()

	var winners, losers int
	for id, err := range results {
		switch err {
		case nil:
			winners++
			if got := f.tripRepo.GetTrip(tripID).DriverID; got != id {
				t.Errorf("winner %s not recorded on trip, got %s", id, got)
			}
			if got := f.driverRepo.GetDriver(id).Status; got != domain.DriverStatusOnTrip {
				t.Errorf("winner should be ON_TRIP, got %s", got)
			}
		case service.ErrTripNotRequested:
			losers++
		default:
			t.Errorf("unexpected error for %s: %v", id, err)
		}
	}

	if winners != 1 || losers != 1 {
		t.Errorf("expected exactly one winner and one loser, got %d/%d", winners, losers)
	}
	if got := f.tripRepo.GetTrip(tripID).Status; got != domain.TripStatusAccepted {
		t.Errorf("expected ACCEPTED, got %s", got)
	}
}

func TestTripAccept_RequiresAnOffer(t *testing.T) {
	f := newTripFixture()
	ctx := context.Background()

	resp, _ := f.svc.CreateTrip(ctx, validCreateRequest())
	tripID := resp.Trip.ID

	// No offer ever went to this driver.
	if _, err := f.svc.AcceptTrip(ctx, tripID, "driver-stranger"); err != service.ErrOfferNotForDriver {
		t.Errorf("expected ErrOfferNotForDriver, got %v", err)
	}
}

func TestTripReject_ExcludesDriverFromLaterOffers(t *testing.T) {
	f := newTripFixture()
	ctx := context.Background()

	resp, _ := f.svc.CreateTrip(ctx, validCreateRequest())
	tripID := resp.Trip.ID
	_ = f.tripRepo.SetNotifiedDrivers(ctx, tripID, []string{"driver-a"})

	if err := f.svc.RejectTrip(ctx, tripID, "driver-a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A rejection is final for this trip; the accept CAS refuses it.
	if _, err := f.svc.AcceptTrip(ctx, tripID, "driver-a"); err != service.ErrOfferRejected {
		t.Errorf("expected ErrOfferRejected after rejection, got %v", err)
	}
}

func TestTripLifecycle_StartGuards(t *testing.T) {
	f := newTripFixture()
	ctx := context.Background()

	resp, _ := f.svc.CreateTrip(ctx, validCreateRequest())
	tripID := resp.Trip.ID
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-a", Status: domain.DriverStatusOnline, VehicleCategory: domain.VehicleMoto})
	_ = f.tripRepo.SetNotifiedDrivers(ctx, tripID, []string{"driver-a"})

	// Cannot start a trip nobody accepted.
	if _, err := f.svc.StartTrip(ctx, tripID, "driver-a"); err != service.ErrDriverNotAssigned {
		t.Errorf("expected ErrDriverNotAssigned before acceptance, got %v", err)
	}

	if _, err := f.svc.AcceptTrip(ctx, tripID, "driver-a"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	// Only the assigned driver may start it.
	if _, err := f.svc.StartTrip(ctx, tripID, "driver-b"); err != service.ErrDriverNotAssigned {
		t.Errorf("expected ErrDriverNotAssigned for wrong driver, got %v", err)
	}

	trip, err := f.svc.StartTrip(ctx, tripID, "driver-a")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if trip.Status != domain.TripStatusInProgress {
		t.Errorf("expected IN_PROGRESS, got %s", trip.Status)
	}

	// Starting twice fails the ACCEPTED precondition.
	if _, err := f.svc.StartTrip(ctx, tripID, "driver-a"); err != service.ErrTripNotAccepted {
		t.Errorf("expected ErrTripNotAccepted on double start, got %v", err)
	}
}

func TestTripCompletion_SettlesAtCurrentRate(t *testing.T) {
	f := newTripFixture()
	ctx := context.Background()

	resp, _ := f.svc.CreateTrip(ctx, validCreateRequest())
	tripID := resp.Trip.ID
	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-a", Status: domain.DriverStatusOnline, VehicleCategory: domain.VehicleMoto})
	_ = f.tripRepo.SetNotifiedDrivers(ctx, tripID, []string{"driver-a"})

	if _, err := f.svc.AcceptTrip(ctx, tripID, "driver-a"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.svc.StartTrip(ctx, tripID, "driver-a"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// The bolivar moved between the quote and the dropoff.
	f.rates.Rate = 42.0

	result, err := f.svc.CompleteTrip(ctx, tripID, "driver-a")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	settlement := result.Settlement
	if settlement.Phase != domain.LiquidationPhaseSettlement {
		t.Errorf("expected SETTLEMENT phase, got %s", settlement.Phase)
	}
	if settlement.Meta.ExchangeRate != 42.0 {
		t.Errorf("expected settlement at the fresh rate 42.0, got %.2f", settlement.Meta.ExchangeRate)
	}
	// USD figures are rate-independent; VES figures move with the rate.
	if !almostEqual(settlement.GrossUSD, 2.39) {
		t.Errorf("expected gross 2.39 USD, got %.4f", settlement.GrossUSD)
	}
	if !almostEqual(settlement.GrossVES, 100.38) {
		t.Errorf("expected gross 100.38 VES at rate 42, got %.4f", settlement.GrossVES)
	}

	// Both snapshots kept: the quote and the settlement.
	snapshots, _ := f.liqRepo.ListByTripID(ctx, tripID)
	if len(snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snapshots))
	}
	if snapshots[0].Phase != domain.LiquidationPhaseQuote || snapshots[1].Phase != domain.LiquidationPhaseSettlement {
		t.Errorf("expected QUOTE then SETTLEMENT, got %s then %s", snapshots[0].Phase, snapshots[1].Phase)
	}

	// Driver goes back into the matchable pool.
	if got := f.driverRepo.GetDriver("driver-a").Status; got != domain.DriverStatusOnline {
		t.Errorf("expected driver ONLINE after completion, got %s", got)
	}

	// A completed trip cannot be completed again or cancelled.
	if _, err := f.svc.CompleteTrip(ctx, tripID, "driver-a"); err != service.ErrTripNotInProgress {
		t.Errorf("expected ErrTripNotInProgress on double complete, got %v", err)
	}
	if _, err := f.svc.CancelTrip(ctx, tripID, "too late"); err != service.ErrTripTerminal {
		t.Errorf("expected ErrTripTerminal, got %v", err)
	}
}

func TestTripCancel_IsIdempotentlyGuarded(t *testing.T) {
	f := newTripFixture()
	ctx := context.Background()

	resp, _ := f.svc.CreateTrip(ctx, validCreateRequest())
	tripID := resp.Trip.ID

	trip, err := f.svc.CancelTrip(ctx, tripID, "waited too long")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if trip.Status != domain.TripStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", trip.Status)
	}
	if trip.CancelReason != "waited too long" {
		t.Errorf("expected reason recorded, got %q", trip.CancelReason)
	}

	if _, err := f.svc.CancelTrip(ctx, tripID, "again"); err != service.ErrTripAlreadyCancelled {
		t.Errorf("expected ErrTripAlreadyCancelled, got %v", err)
	}
}

func TestTripProgress_OnlyWhileActive(t *testing.T) {
	f := newTripFixture()
	ctx := context.Background()

	resp, _ := f.svc.CreateTrip(ctx, validCreateRequest())
	tripID := resp.Trip.ID

	if err := f.svc.UpdateProgress(ctx, tripID, 10.01, -66.01, 7); err != service.ErrTripNotInProgress {
		t.Errorf("expected ErrTripNotInProgress while REQUESTED, got %v", err)
	}

	f.driverRepo.AddDriver(&domain.Driver{ID: "driver-a", Status: domain.DriverStatusOnline, VehicleCategory: domain.VehicleMoto})
	_ = f.tripRepo.SetNotifiedDrivers(ctx, tripID, []string{"driver-a"})
	if _, err := f.svc.AcceptTrip(ctx, tripID, "driver-a"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if err := f.svc.UpdateProgress(ctx, tripID, 10.01, -66.01, 7); err != nil {
		t.Fatalf("progress update failed: %v", err)
	}

	stored := f.tripRepo.GetTrip(tripID)
	if stored.ProgressLat != 10.01 || stored.ProgressLng != -66.01 || stored.ETAMinutes != 7 {
		t.Errorf("progress not recorded: lat=%.2f lng=%.2f eta=%d", stored.ProgressLat, stored.ProgressLng, stored.ETAMinutes)
	}
}
