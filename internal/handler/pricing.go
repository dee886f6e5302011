package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"aventon/internal/domain"
	"aventon/internal/service"
)

// PricingHandler exposes the fare catalog, standalone quotes and the
// current exchange rate.
type PricingHandler struct {
	liquidator *service.Liquidator
	rates      service.RateProvider
}

// NewPricingHandler creates a new PricingHandler.
func NewPricingHandler(liquidator *service.Liquidator, rates service.RateProvider) *PricingHandler {
	return &PricingHandler{liquidator: liquidator, rates: rates}
}

// QuoteRequest is the HTTP request for a standalone fare quote.
type QuoteRequest struct {
	ServiceID  string  `json:"service_id" binding:"required"`
	DistanceKm float64 `json:"distance_km"`
}

// Quote handles POST /v1/quotes
//
// Quotes are not persisted; the authoritative quote for a trip is the
// one computed at trip creation.
func (h *PricingHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	rate, _ := h.rates.Current()
	result, err := h.liquidator.Compute(req.ServiceID, req.DistanceKm, rate)
	if err != nil {
		respondError(c, err)
		return
	}
	result.Phase = domain.LiquidationPhaseQuote

	respondJSON(c, http.StatusOK, result)
}

// GetServices handles GET /v1/services
func (h *PricingHandler) GetServices(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.liquidator.Catalog().All())
}

// ExchangeRateResponse is the HTTP response for the exchange rate.
type ExchangeRateResponse struct {
	Rate        float64 `json:"rate"`
	Currency    string  `json:"currency"`
	RefreshedAt string  `json:"refreshed_at"`
}

// GetExchangeRate handles GET /v1/exchange-rate
func (h *PricingHandler) GetExchangeRate(c *gin.Context) {
	rate, refreshedAt := h.rates.Current()
	respondJSON(c, http.StatusOK, ExchangeRateResponse{
		Rate:        rate,
		Currency:    "VES",
		RefreshedAt: refreshedAt.Format(time.RFC3339),
	})
}
