package domain

// DriverStatus represents the current status of a driver.
type DriverStatus string

const (
	DriverStatusOnline  DriverStatus = "ONLINE"
	DriverStatusOffline DriverStatus = "OFFLINE"
	DriverStatusOnTrip  DriverStatus = "ON_TRIP"
)

// Driver represents a driver in the system.
type Driver struct {
	ID              string
	Name            string
	Phone           string
	Status          DriverStatus
	VehicleCategory VehicleCategory
}
