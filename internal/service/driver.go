package service

import (
	"context"

	"github.com/google/uuid"

	"aventon/internal/domain"
	"aventon/internal/redis"
	"aventon/internal/repository"
)

// DriverService handles driver registration, presence and the offer
// polling side of the notification contract.
type DriverService struct {
	locationStore redis.LocationStoreInterface
	driverRepo    repository.DriverRepository
	tripRepo      repository.TripRepository
}

// NewDriverService creates a new DriverService.
func NewDriverService(
	locationStore redis.LocationStoreInterface,
	driverRepo repository.DriverRepository,
	tripRepo repository.TripRepository,
) *DriverService {
	return &DriverService{
		locationStore: locationStore,
		driverRepo:    driverRepo,
		tripRepo:      tripRepo,
	}
}

// RegisterDriverRequest contains the parameters for registering a driver.
type RegisterDriverRequest struct {
	Name            string
	Phone           string
	VehicleCategory domain.VehicleCategory
}

// Register creates a new driver in OFFLINE state.
func (s *DriverService) Register(ctx context.Context, req RegisterDriverRequest) (*domain.Driver, error) {
	if req.Name == "" || req.Phone == "" {
		return nil, ErrInvalidDriverID
	}
	switch req.VehicleCategory {
	case domain.VehicleMoto, domain.VehicleCarro:
	default:
		return nil, ErrInvalidVehicleCategory
	}

	driver := &domain.Driver{
		ID:              uuid.New().String(),
		Name:            req.Name,
		Phone:           req.Phone,
		Status:          domain.DriverStatusOffline,
		VehicleCategory: req.VehicleCategory,
	}

	if err := s.driverRepo.Create(ctx, driver); err != nil {
		return nil, err
	}

	return driver, nil
}

// UpdateLocationRequest contains the parameters for updating driver location.
type UpdateLocationRequest struct {
	DriverID string
	Lat      float64
	Lng      float64
}

// UpdateLocation updates a driver's position in the geo index and sets
// them ONLINE. Drivers report their position periodically while on
// shift; presence in the index is what makes them matchable.
func (s *DriverService) UpdateLocation(ctx context.Context, req UpdateLocationRequest) error {
	if req.DriverID == "" {
		return ErrInvalidDriverID
	}
	if !isValidLatitude(req.Lat) || !isValidLongitude(req.Lng) {
		return ErrInvalidLocation
	}

	driver, err := s.driverRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		return err
	}

	if err := s.locationStore.UpdateLocation(ctx, driver.ID, driver.VehicleCategory, req.Lat, req.Lng); err != nil {
		return err
	}

	if driver.Status == domain.DriverStatusOffline {
		if err := s.driverRepo.UpdateStatus(ctx, driver.ID, domain.DriverStatusOnline); err != nil {
			return err
		}
	}

	return nil
}

// SetOffline takes a driver off shift: OFFLINE status and removal from
// the geo index.
func (s *DriverService) SetOffline(ctx context.Context, driverID string) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return err
	}

	if err := s.driverRepo.UpdateStatus(ctx, driverID, domain.DriverStatusOffline); err != nil {
		return err
	}

	return s.locationStore.RemoveLocation(ctx, driverID, driver.VehicleCategory)
}

// Offers returns the REQUESTED trips currently offered to the driver,
// oldest first. Driver clients poll this; the matching process only
// records the candidate set, it does not push.
func (s *DriverService) Offers(ctx context.Context, driverID string) ([]*domain.Trip, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.tripRepo.GetOffersForDriver(ctx, driverID)
}

// GetAll returns all registered drivers.
func (s *DriverService) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	return s.driverRepo.GetAll(ctx)
}
