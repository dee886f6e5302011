package tests

import (
	"context"
	"testing"
	"time"

	"aventon/internal/domain"
	"aventon/internal/service"
)

func newDriverService() (*service.DriverService, *MockDriverRepository, *MockLocationStore, *MockTripRepository) {
	driverRepo := NewMockDriverRepository()
	locationStore := NewMockLocationStore()
	tripRepo := NewMockTripRepository()
	return service.NewDriverService(locationStore, driverRepo, tripRepo), driverRepo, locationStore, tripRepo
}

func TestDriverRegistration(t *testing.T) {
	svc, driverRepo, _, _ := newDriverService()
	ctx := context.Background()

	driver, err := svc.Register(ctx, service.RegisterDriverRequest{
		Name:            "Pedro Pérez",
		Phone:           "+584121234567",
		VehicleCategory: domain.VehicleMoto,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if driver.Status != domain.DriverStatusOffline {
		t.Errorf("new drivers start OFFLINE, got %s", driver.Status)
	}
	if driverRepo.CreateCallCount != 1 {
		t.Errorf("expected 1 create, got %d", driverRepo.CreateCallCount)
	}

	// Unknown vehicle categories are rejected.
	_, err = svc.Register(ctx, service.RegisterDriverRequest{
		Name:            "Ana",
		Phone:           "+584120000000",
		VehicleCategory: "BICICLETA",
	})
	if err != service.ErrInvalidVehicleCategory {
		t.Errorf("expected ErrInvalidVehicleCategory, got %v", err)
	}
}

func TestDriverLocationUpdate_BringsDriverOnline(t *testing.T) {
	svc, driverRepo, locationStore, _ := newDriverService()
	ctx := context.Background()

	driverRepo.AddDriver(&domain.Driver{
		ID:              "driver-1",
		Status:          domain.DriverStatusOffline,
		VehicleCategory: domain.VehicleMoto,
	})

	err := svc.UpdateLocation(ctx, service.UpdateLocationRequest{
		DriverID: "driver-1",
		Lat:      10.5,
		Lng:      -66.9,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := driverRepo.GetDriver("driver-1").Status; got != domain.DriverStatusOnline {
		t.Errorf("expected ONLINE after location report, got %s", got)
	}

	// The driver is now in the moto geo set.
	nearby, err := locationStore.FindNearbyDrivers(ctx, domain.VehicleMoto, 10.5, -66.9, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nearby) != 1 || nearby[0].DriverID != "driver-1" {
		t.Errorf("expected driver-1 in the geo index, got %v", nearby)
	}
}

func TestDriverLocationUpdate_RejectsBadCoordinates(t *testing.T) {
	svc, driverRepo, _, _ := newDriverService()
	ctx := context.Background()

	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", VehicleCategory: domain.VehicleMoto})

	err := svc.UpdateLocation(ctx, service.UpdateLocationRequest{DriverID: "driver-1", Lat: 95, Lng: 0})
	if err != service.ErrInvalidLocation {
		t.Errorf("expected ErrInvalidLocation, got %v", err)
	}
}

func TestDriverSetOffline_RemovesFromGeoIndex(t *testing.T) {
	svc, driverRepo, locationStore, _ := newDriverService()
	ctx := context.Background()

	driverRepo.AddDriver(&domain.Driver{
		ID:              "driver-1",
		Status:          domain.DriverStatusOffline,
		VehicleCategory: domain.VehicleMoto,
	})
	_ = svc.UpdateLocation(ctx, service.UpdateLocationRequest{DriverID: "driver-1", Lat: 10.5, Lng: -66.9})

	if err := svc.SetOffline(ctx, "driver-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := driverRepo.GetDriver("driver-1").Status; got != domain.DriverStatusOffline {
		t.Errorf("expected OFFLINE, got %s", got)
	}
	nearby, _ := locationStore.FindNearbyDrivers(ctx, domain.VehicleMoto, 10.5, -66.9, 1.0)
	if len(nearby) != 0 {
		t.Errorf("expected empty geo index after going offline, got %v", nearby)
	}
}

func TestDriverOffers_OnlyOpenOffersForDriver(t *testing.T) {
	svc, _, _, tripRepo := newDriverService()
	ctx := context.Background()

	offered := newRequestedTrip("trip-offered")
	offered.NotifiedDriverIDs = []string{"driver-1", "driver-2"}
	tripRepo.AddTrip(offered)

	rejected := newRequestedTrip("trip-rejected")
	rejected.NotifiedDriverIDs = []string{"driver-1"}
	rejected.RejectedDriverIDs = []string{"driver-1"}
	tripRepo.AddTrip(rejected)

	taken := newRequestedTrip("trip-taken")
	taken.NotifiedDriverIDs = []string{"driver-1"}
	taken.Status = domain.TripStatusAccepted
	taken.DriverID = "driver-2"
	taken.AcceptedAt = time.Now()
	tripRepo.AddTrip(taken)

	offers, err := svc.Offers(ctx, "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(offers) != 1 || offers[0].ID != "trip-offered" {
		ids := make([]string, 0, len(offers))
		for _, o := range offers {
			ids = append(ids, o.ID)
		}
		t.Errorf("expected only trip-offered, got %v", ids)
	}
}
