package domain

import "time"

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusRequested  TripStatus = "REQUESTED"
	TripStatusAccepted   TripStatus = "ACCEPTED"
	TripStatusInProgress TripStatus = "IN_PROGRESS"
	TripStatusCompleted  TripStatus = "COMPLETED"
	TripStatusCancelled  TripStatus = "CANCELLED"
	TripStatusUnassigned TripStatus = "UNASSIGNED"
)

// Terminal reports whether the status freezes the trip record.
func (s TripStatus) Terminal() bool {
	return s == TripStatusCompleted || s == TripStatusCancelled || s == TripStatusUnassigned
}

// Location is an address with optional coordinates.
type Location struct {
	Address string
	Lat     float64
	Lng     float64
}

// Beneficiary is an optional third party the trip is requested for.
type Beneficiary struct {
	Name  string
	Phone string
}

// Trip represents a trip request in the system. Owned by the passenger
// who created it; the matching process mutates status and driver fields
// while the trip is REQUESTED, ride-progress updates mutate it
// afterwards. A terminal status freezes the record.
type Trip struct {
	ID          string
	PassengerID string
	DriverID    string
	Origin      Location
	Destination Location
	ServiceID   string
	Status      TripStatus
	PriceUSD    float64
	PriceVES    float64
	DistanceKm  float64

	// Matching state: the candidate set currently holding an offer, the
	// drivers who explicitly rejected this trip, and where the match
	// eventually happened.
	NotifiedDriverIDs []string
	RejectedDriverIDs []string
	MatchTier         int
	MatchRadiusKm     float64

	Beneficiary *Beneficiary
	Liquidation *LiquidationResult

	ProgressLat float64
	ProgressLng float64
	ETAMinutes  int

	CancelReason string
	CreatedAt    time.Time
	AcceptedAt   time.Time
	CompletedAt  time.Time
	CancelledAt  time.Time
}
