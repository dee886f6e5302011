package service

import "errors"

var (
	// ErrUnknownService is returned when a service tier is not in the catalog.
	ErrUnknownService = errors.New("unknown service tier")

	// ErrInvalidExchangeRate is returned when the exchange rate is not positive.
	ErrInvalidExchangeRate = errors.New("invalid exchange rate")

	// ErrInvalidPassengerID is returned when passenger ID is empty.
	ErrInvalidPassengerID = errors.New("invalid passenger id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidOrigin is returned when the origin is missing or malformed.
	ErrInvalidOrigin = errors.New("invalid origin")

	// ErrInvalidDestination is returned when the destination is missing or malformed.
	ErrInvalidDestination = errors.New("invalid destination")

	// ErrInvalidLocation is returned when coordinates are out of range.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidVehicleCategory is returned when a driver registers with
	// an unknown vehicle category.
	ErrInvalidVehicleCategory = errors.New("invalid vehicle category")

	// ErrTripNotRequested is returned when an operation requires the trip
	// to still be in REQUESTED state.
	ErrTripNotRequested = errors.New("trip not in requested state")

	// ErrTripNotAccepted is returned when starting a trip that is not ACCEPTED.
	ErrTripNotAccepted = errors.New("trip not in accepted state")

	// ErrTripNotInProgress is returned when completing or tracking a trip
	// that is not IN_PROGRESS.
	ErrTripNotInProgress = errors.New("trip not in progress")

	// ErrTripAlreadyCancelled is returned when cancelling a cancelled trip.
	ErrTripAlreadyCancelled = errors.New("trip already cancelled")

	// ErrTripTerminal is returned when mutating a frozen trip record.
	ErrTripTerminal = errors.New("trip is in a terminal state")

	// ErrOfferNotForDriver is returned when a driver acts on a trip they
	// were not offered.
	ErrOfferNotForDriver = errors.New("trip not offered to this driver")

	// ErrOfferRejected is returned when a driver tries to accept a trip
	// they previously rejected. A rejection is final for that trip.
	ErrOfferRejected = errors.New("offer previously rejected by this driver")

	// ErrDriverNotAssigned is returned when a driver acts on a trip
	// assigned to someone else.
	ErrDriverNotAssigned = errors.New("driver not assigned to this trip")

	// ErrMatchingInProgress is returned when a matching run is already
	// active for the trip.
	ErrMatchingInProgress = errors.New("matching already in progress")
)
