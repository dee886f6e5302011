package domain

import "time"

// LiquidationPhase distinguishes the pre-confirmation quote from the
// settlement computed when the trip completes.
type LiquidationPhase string

const (
	LiquidationPhaseQuote      LiquidationPhase = "QUOTE"
	LiquidationPhaseSettlement LiquidationPhase = "SETTLEMENT"
)

// DriverSettlement is the driver's side of a liquidation: gross pay,
// withheld income tax (ISLR) and the net deposit, in both currencies.
// USD figures carry 4 decimal places, VES figures 2.
type DriverSettlement struct {
	GrossUSD     float64 `json:"gross_usd"`
	IncomeTaxUSD float64 `json:"income_tax_usd"`
	NetUSD       float64 `json:"net_usd"`
	GrossVES     float64 `json:"gross_ves"`
	IncomeTaxVES float64 `json:"income_tax_ves"`
	NetVES       float64 `json:"net_ves"`
}

// PlatformSettlement is the platform's side: gross commission, net
// income after backing out the VAT (IVA) included in the commission,
// and the resulting VAT liability.
type PlatformSettlement struct {
	CommissionUSD float64 `json:"commission_usd"`
	NetUSD        float64 `json:"net_usd"`
	VATUSD        float64 `json:"vat_usd"`
	CommissionVES float64 `json:"commission_ves"`
	NetVES        float64 `json:"net_ves"`
	VATVES        float64 `json:"vat_ves"`
}

// TaxTotals consolidates what is owed to the tax authority.
type TaxTotals struct {
	IncomeTaxUSD float64 `json:"income_tax_usd"`
	VATUSD       float64 `json:"vat_usd"`
	TotalUSD     float64 `json:"total_usd"`
	TotalVES     float64 `json:"total_ves"`
}

// LiquidationMeta records the exchange rate used, whether the breakdown
// reconciled against the gross fare, and when it was computed.
type LiquidationMeta struct {
	ExchangeRate float64   `json:"exchange_rate"`
	Valid        bool      `json:"valid"`
	ComputedAt   time.Time `json:"computed_at"`
}

// LiquidationResult is the output of one liquidation computation.
// Created fresh on each call, never mutated after construction, and
// attached to a trip record as an audit/payout snapshot.
type LiquidationResult struct {
	ID          string             `json:"id"`
	TripID      string             `json:"trip_id,omitempty"`
	Phase       LiquidationPhase   `json:"phase"`
	ServiceID   string             `json:"service_id"`
	ServiceName string             `json:"service_name"`
	DistanceKm  float64            `json:"distance_km"`
	GrossUSD    float64            `json:"gross_usd"`
	GrossVES    float64            `json:"gross_ves"`
	Driver      DriverSettlement   `json:"driver"`
	Platform    PlatformSettlement `json:"platform"`
	Tax         TaxTotals          `json:"tax"`
	Meta        LiquidationMeta    `json:"meta"`
}
