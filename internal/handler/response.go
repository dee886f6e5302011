package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"aventon/internal/repository"
	"aventon/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrUnknownService),
		errors.Is(err, service.ErrInvalidPassengerID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidOrigin),
		errors.Is(err, service.ErrInvalidDestination),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidVehicleCategory),
		errors.Is(err, service.ErrInvalidExchangeRate):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrTripNotRequested),
		errors.Is(err, service.ErrTripNotAccepted),
		errors.Is(err, service.ErrTripNotInProgress),
		errors.Is(err, service.ErrTripAlreadyCancelled),
		errors.Is(err, service.ErrTripTerminal),
		errors.Is(err, service.ErrMatchingInProgress):
		return http.StatusConflict

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrOfferNotForDriver),
		errors.Is(err, service.ErrOfferRejected),
		errors.Is(err, service.ErrDriverNotAssigned):
		return http.StatusForbidden

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
