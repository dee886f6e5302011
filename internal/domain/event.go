package domain

import "time"

// TripEventType classifies an entry in a trip's audit log.
type TripEventType string

const (
	TripEventCreated    TripEventType = "TRIP_CREATED"
	TripEventOfferSent  TripEventType = "OFFER_SENT"
	TripEventAccepted   TripEventType = "TRIP_ACCEPTED"
	TripEventRejected   TripEventType = "OFFER_REJECTED"
	TripEventStarted    TripEventType = "TRIP_STARTED"
	TripEventCompleted  TripEventType = "TRIP_COMPLETED"
	TripEventCancelled  TripEventType = "TRIP_CANCELLED"
	TripEventUnassigned TripEventType = "TRIP_UNASSIGNED"
)

// TripEvent is one entry of a trip's append-only audit log.
type TripEvent struct {
	ID        string
	TripID    string
	Type      TripEventType
	Detail    string
	CreatedAt time.Time
}
