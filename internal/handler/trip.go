package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"aventon/internal/domain"
	"aventon/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// LocationPayload is an address with coordinates.
type LocationPayload struct {
	Address string  `json:"address" binding:"required"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// BeneficiaryPayload is an optional third party the trip is for.
type BeneficiaryPayload struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// CreateTripRequest is the HTTP request to create a trip.
type CreateTripRequest struct {
	PassengerID string              `json:"passenger_id" binding:"required"`
	Origin      LocationPayload     `json:"origin" binding:"required"`
	Destination LocationPayload     `json:"destination" binding:"required"`
	ServiceID   string              `json:"service_id" binding:"required"`
	DistanceKm  float64             `json:"distance_km"`
	Beneficiary *BeneficiaryPayload `json:"beneficiary,omitempty"`
}

// TripResponse is the HTTP response for trip operations.
type TripResponse struct {
	TripID        string                    `json:"trip_id"`
	PassengerID   string                    `json:"passenger_id"`
	DriverID      string                    `json:"driver_id,omitempty"`
	Origin        LocationPayload           `json:"origin"`
	Destination   LocationPayload           `json:"destination"`
	ServiceID     string                    `json:"service_id"`
	Status        string                    `json:"status"`
	PriceUSD      float64                   `json:"price_usd"`
	PriceVES      float64                   `json:"price_ves"`
	DistanceKm    float64                   `json:"distance_km"`
	MatchTier     int                       `json:"match_tier,omitempty"`
	MatchRadiusKm float64                   `json:"match_radius_km,omitempty"`
	Beneficiary   *BeneficiaryPayload       `json:"beneficiary,omitempty"`
	Liquidation   *domain.LiquidationResult `json:"liquidation,omitempty"`
	CancelReason  string                    `json:"cancel_reason,omitempty"`
	CreatedAt     string                    `json:"created_at"`
	CompletedAt   string                    `json:"completed_at,omitempty"`
}

// CreateTrip handles POST /v1/trips
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	var beneficiary *domain.Beneficiary
	if req.Beneficiary != nil {
		beneficiary = &domain.Beneficiary{
			Name:  req.Beneficiary.Name,
			Phone: req.Beneficiary.Phone,
		}
	}

	result, err := h.tripService.CreateTrip(c.Request.Context(), service.CreateTripRequest{
		PassengerID: req.PassengerID,
		Origin:      domain.Location{Address: req.Origin.Address, Lat: req.Origin.Lat, Lng: req.Origin.Lng},
		Destination: domain.Location{Address: req.Destination.Address, Lat: req.Destination.Lat, Lng: req.Destination.Lng},
		ServiceID:   req.ServiceID,
		DistanceKm:  req.DistanceKm,
		Beneficiary: beneficiary,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTripResponse(result.Trip))
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetAll handles GET /v1/trips
func (h *TripHandler) GetAll(c *gin.Context) {
	trips, err := h.tripService.GetAllTrips(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(trips))
	for _, trip := range trips {
		response = append(response, toTripResponse(trip))
	}

	respondJSON(c, http.StatusOK, response)
}

// CancelTrip handles POST /v1/trips/:id/cancel
func (h *TripHandler) CancelTrip(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	trip, err := h.tripService.CancelTrip(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// AcceptTrip handles POST /v1/trips/:id/accept
func (h *TripHandler) AcceptTrip(c *gin.Context) {
	var req struct {
		DriverID string `json:"driver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	trip, err := h.tripService.AcceptTrip(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// RejectTrip handles POST /v1/trips/:id/reject
func (h *TripHandler) RejectTrip(c *gin.Context) {
	var req struct {
		DriverID string `json:"driver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.tripService.RejectTrip(c.Request.Context(), c.Param("id"), req.DriverID); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": "rejected"})
}

// StartTrip handles POST /v1/trips/:id/start
func (h *TripHandler) StartTrip(c *gin.Context) {
	var req struct {
		DriverID string `json:"driver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	trip, err := h.tripService.StartTrip(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// CompleteTrip handles POST /v1/trips/:id/complete
func (h *TripHandler) CompleteTrip(c *gin.Context) {
	var req struct {
		DriverID string `json:"driver_id"`
	}
	_ = c.ShouldBindJSON(&req)

	result, err := h.tripService.CompleteTrip(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := toTripResponse(result.Trip)
	response.Liquidation = result.Settlement

	respondJSON(c, http.StatusOK, response)
}

// UpdateProgress handles POST /v1/trips/:id/progress
func (h *TripHandler) UpdateProgress(c *gin.Context) {
	var req struct {
		Lat        float64 `json:"lat"`
		Lng        float64 `json:"lng"`
		ETAMinutes int     `json:"eta_minutes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.tripService.UpdateProgress(c.Request.Context(), c.Param("id"), req.Lat, req.Lng, req.ETAMinutes); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

// TripEventResponse is one audit log entry.
type TripEventResponse struct {
	Type      string `json:"type"`
	Detail    string `json:"detail"`
	CreatedAt string `json:"created_at"`
}

// GetEvents handles GET /v1/trips/:id/events
func (h *TripHandler) GetEvents(c *gin.Context) {
	events, err := h.tripService.GetTripEvents(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripEventResponse, 0, len(events))
	for _, event := range events {
		response = append(response, TripEventResponse{
			Type:      string(event.Type),
			Detail:    event.Detail,
			CreatedAt: event.CreatedAt.Format(time.RFC3339),
		})
	}

	respondJSON(c, http.StatusOK, response)
}

func toTripResponse(trip *domain.Trip) TripResponse {
	response := TripResponse{
		TripID:        trip.ID,
		PassengerID:   trip.PassengerID,
		DriverID:      trip.DriverID,
		Origin:        LocationPayload{Address: trip.Origin.Address, Lat: trip.Origin.Lat, Lng: trip.Origin.Lng},
		Destination:   LocationPayload{Address: trip.Destination.Address, Lat: trip.Destination.Lat, Lng: trip.Destination.Lng},
		ServiceID:     trip.ServiceID,
		Status:        string(trip.Status),
		PriceUSD:      trip.PriceUSD,
		PriceVES:      trip.PriceVES,
		DistanceKm:    trip.DistanceKm,
		MatchTier:     trip.MatchTier,
		MatchRadiusKm: trip.MatchRadiusKm,
		Liquidation:   trip.Liquidation,
		CancelReason:  trip.CancelReason,
		CreatedAt:     trip.CreatedAt.Format(time.RFC3339),
	}

	if trip.Beneficiary != nil {
		response.Beneficiary = &BeneficiaryPayload{
			Name:  trip.Beneficiary.Name,
			Phone: trip.Beneficiary.Phone,
		}
	}
	if !trip.CompletedAt.IsZero() {
		response.CompletedAt = trip.CompletedAt.Format(time.RFC3339)
	}

	return response
}
