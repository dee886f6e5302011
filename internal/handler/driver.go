package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aventon/internal/domain"
	"aventon/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	driverService *service.DriverService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService) *DriverHandler {
	return &DriverHandler{driverService: driverService}
}

// RegisterDriverRequest is the HTTP request to register a driver.
type RegisterDriverRequest struct {
	Name            string `json:"name" binding:"required"`
	Phone           string `json:"phone" binding:"required"`
	VehicleCategory string `json:"vehicle_category" binding:"required"`
}

// DriverResponse is the HTTP response for driver operations.
type DriverResponse struct {
	DriverID        string `json:"driver_id"`
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Status          string `json:"status"`
	VehicleCategory string `json:"vehicle_category"`
}

// Register handles POST /v1/drivers
func (h *DriverHandler) Register(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	driver, err := h.driverService.Register(c.Request.Context(), service.RegisterDriverRequest{
		Name:            req.Name,
		Phone:           req.Phone,
		VehicleCategory: domain.VehicleCategory(req.VehicleCategory),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toDriverResponse(driver))
}

// UpdateLocation handles POST /v1/drivers/:id/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	var req struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	err := h.driverService.UpdateLocation(c.Request.Context(), service.UpdateLocationRequest{
		DriverID: c.Param("id"),
		Lat:      req.Lat,
		Lng:      req.Lng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

// SetOffline handles POST /v1/drivers/:id/offline
func (h *DriverHandler) SetOffline(c *gin.Context) {
	if err := h.driverService.SetOffline(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": "offline"})
}

// GetOffers handles GET /v1/drivers/:id/offers
func (h *DriverHandler) GetOffers(c *gin.Context) {
	trips, err := h.driverService.Offers(c.Request.Context(), c.Param("id"))
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

// GetAll handles GET /v1/drivers
func (h *DriverHandler) GetAll(c *gin.Context) {
	drivers, err := h.driverService.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]DriverResponse, 0, len(drivers))
	for _, driver := range drivers {
		response = append(response, toDriverResponse(driver))
	}

	respondJSON(c, http.StatusOK, response)
}

func toDriverResponse(driver *domain.Driver) DriverResponse {
	return DriverResponse{
		DriverID:        driver.ID,
		Name:            driver.Name,
		Phone:           driver.Phone,
		Status:          string(driver.Status),
		VehicleCategory: string(driver.VehicleCategory),
	}
}
