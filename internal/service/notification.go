package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"aventon/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationTripOffer      NotificationType = "TRIP_OFFER"
	NotificationDriverAssigned NotificationType = "DRIVER_ASSIGNED"
	NotificationTripUnassigned NotificationType = "TRIP_UNASSIGNED"
	NotificationTripCancelled  NotificationType = "TRIP_CANCELLED"
	NotificationSettlement     NotificationType = "SETTLEMENT_READY"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService makes matching and settlement events visible to
// riders and drivers. Delivery itself (push, SMS, websocket) is an
// external collaborator; this service only hands the payload over.
type NotificationService struct{}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyOffer tells the candidate drivers a trip is up for grabs.
func (s *NotificationService) NotifyOffer(ctx context.Context, trip *domain.Trip, driverIDs []string, radiusKm float64) error {
	for _, driverID := range driverIDs {
		s.send(ctx, Notification{
			Type:        NotificationTripOffer,
			RecipientID: driverID,
			Title:       "Nuevo viaje disponible",
			Message:     fmt.Sprintf("Pickup: %s (%.1f km from you)", trip.Origin.Address, radiusKm),
			Data: map[string]interface{}{
				"trip_id":   trip.ID,
				"origin":    trip.Origin.Address,
				"price_usd": trip.PriceUSD,
				"price_ves": trip.PriceVES,
			},
			CreatedAt: time.Now(),
		})
	}
	return nil
}

// NotifyAssigned tells the passenger a driver accepted.
func (s *NotificationService) NotifyAssigned(ctx context.Context, trip *domain.Trip) error {
	s.send(ctx, Notification{
		Type:        NotificationDriverAssigned,
		RecipientID: trip.PassengerID,
		Title:       "Conductor asignado",
		Message:     "A driver accepted your trip and is on the way",
		Data: map[string]interface{}{
			"trip_id":   trip.ID,
			"driver_id": trip.DriverID,
		},
		CreatedAt: time.Now(),
	})
	return nil
}

// NotifyUnassigned tells the passenger no driver was found.
func (s *NotificationService) NotifyUnassigned(ctx context.Context, trip *domain.Trip) error {
	s.send(ctx, Notification{
		Type:        NotificationTripUnassigned,
		RecipientID: trip.PassengerID,
		Title:       "Sin conductores disponibles",
		Message:     "No drivers available right now, please try again",
		Data:        map[string]interface{}{"trip_id": trip.ID},
		CreatedAt:   time.Now(),
	})
	return nil
}

// NotifyCancelled tells the other party the trip was cancelled.
func (s *NotificationService) NotifyCancelled(ctx context.Context, trip *domain.Trip) error {
	if trip.DriverID == "" {
		return nil
	}
	s.send(ctx, Notification{
		Type:        NotificationTripCancelled,
		RecipientID: trip.DriverID,
		Title:       "Viaje cancelado",
		Message:     "The passenger cancelled the trip",
		Data: map[string]interface{}{
			"trip_id": trip.ID,
			"reason":  trip.CancelReason,
		},
		CreatedAt: time.Now(),
	})
	return nil
}

// NotifySettlement tells the driver their payout breakdown is ready.
func (s *NotificationService) NotifySettlement(ctx context.Context, trip *domain.Trip, settlement *domain.LiquidationResult) error {
	if trip.DriverID == "" {
		return nil
	}
	s.send(ctx, Notification{
		Type:        NotificationSettlement,
		RecipientID: trip.DriverID,
		Title:       "Liquidación lista",
		Message:     fmt.Sprintf("Net deposit: %.4f USD / %.2f VES", settlement.Driver.NetUSD, settlement.Driver.NetVES),
		Data: map[string]interface{}{
			"trip_id":        trip.ID,
			"liquidation_id": settlement.ID,
			"net_usd":        settlement.Driver.NetUSD,
			"net_ves":        settlement.Driver.NetVES,
			"valid":          settlement.Meta.Valid,
		},
		CreatedAt: time.Now(),
	})
	return nil
}

// send hands a notification to the delivery collaborator.
func (s *NotificationService) send(ctx context.Context, notification Notification) {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)
}
