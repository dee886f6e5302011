package service

import (
	"math"
	"time"

	"github.com/google/uuid"

	"aventon/internal/domain"
)

// reconcileTolerance is the maximum acceptable drift, in USD, between
// the summed breakdown and the gross fare (two display-currency cents).
const reconcileTolerance = 0.02

// RateTable holds the regulatory constants applied during liquidation.
// These model the Venezuelan rules the platform operates under: the
// platform keeps a flat share of the gross fare, income tax (ISLR) is
// withheld from the driver's gross pay, and VAT (IVA) is included in
// the platform's gross commission rather than added on top.
type RateTable struct {
	CommissionRate float64
	IncomeTaxRate  float64
	VATRate        float64
}

// DefaultRateTable returns the current statutory rates.
func DefaultRateTable() RateTable {
	return RateTable{
		CommissionRate: 0.05,
		IncomeTaxRate:  0.03,
		VATRate:        0.16,
	}
}

// Catalog resolves service tiers. Implemented by config.Catalog.
type Catalog interface {
	Get(serviceID string) (*domain.ServiceConfig, bool)
	All() []domain.ServiceConfig
}

// Liquidator computes the driver/platform/tax split of a trip fare.
// Stateless and safe for concurrent use.
type Liquidator struct {
	catalog Catalog
	rates   RateTable
}

// NewLiquidator creates a new Liquidator.
func NewLiquidator(catalog Catalog, rates RateTable) *Liquidator {
	return &Liquidator{catalog: catalog, rates: rates}
}

// Compute produces the liquidation breakdown for one trip: the gross
// fare from the tier's tariff and distance, the driver and platform
// settlements, and the consolidated tax totals, in USD and VES.
//
// Display figures (gross fare, VES conversions) are rounded to 2
// decimals; audit subtotals keep 4 decimals so the reconciliation check
// does not accumulate rounding drift. A failed reconciliation marks the
// result invalid but never fails the call; the only error is an unknown
// service tier or a non-positive exchange rate.
func (l *Liquidator) Compute(serviceID string, distanceKm, exchangeRate float64) (*domain.LiquidationResult, error) {
	svc, ok := l.catalog.Get(serviceID)
	if !ok {
		return nil, ErrUnknownService
	}
	if exchangeRate <= 0 {
		return nil, ErrInvalidExchangeRate
	}

	// Negative distances come from upstream GPS glitches; treat them as
	// a base-fare trip rather than failing the computation.
	if distanceKm < 0 {
		distanceKm = 0
	}

	grossUSD := svc.BaseGrossUSD
	if distanceKm > svc.BaseDistanceKm {
		grossUSD += (distanceKm - svc.BaseDistanceKm) * svc.PerKmGrossUSD
	}
	grossUSD = round2(grossUSD)
	grossVES := round2(grossUSD * exchangeRate)

	driverGross := round4(grossUSD * (1 - l.rates.CommissionRate))
	driverTax := round4(driverGross * l.rates.IncomeTaxRate)
	driverNet := round4(driverGross - driverTax)

	platformGross := round4(grossUSD * l.rates.CommissionRate)
	platformNet := round4(platformGross / (1 + l.rates.VATRate))
	platformVAT := round4(platformGross - platformNet)

	taxTotal := round4(driverTax + platformVAT)

	// Reconciliation: every dollar of the gross fare must land with the
	// driver, the platform, or the tax authority.
	valid := math.Abs(driverNet+platformNet+platformVAT+driverTax-grossUSD) <= reconcileTolerance

	return &domain.LiquidationResult{
		ID:          uuid.New().String(),
		ServiceID:   svc.ID,
		ServiceName: svc.Name,
		DistanceKm:  distanceKm,
		GrossUSD:    grossUSD,
		GrossVES:    grossVES,
		Driver: domain.DriverSettlement{
			GrossUSD:     driverGross,
			IncomeTaxUSD: driverTax,
			NetUSD:       driverNet,
			GrossVES:     round2(driverGross * exchangeRate),
			IncomeTaxVES: round2(driverTax * exchangeRate),
			NetVES:       round2(driverNet * exchangeRate),
		},
		Platform: domain.PlatformSettlement{
			CommissionUSD: platformGross,
			NetUSD:        platformNet,
			VATUSD:        platformVAT,
			CommissionVES: round2(platformGross * exchangeRate),
			NetVES:        round2(platformNet * exchangeRate),
			VATVES:        round2(platformVAT * exchangeRate),
		},
		Tax: domain.TaxTotals{
			IncomeTaxUSD: driverTax,
			VATUSD:       platformVAT,
			TotalUSD:     taxTotal,
			TotalVES:     round2(taxTotal * exchangeRate),
		},
		Meta: domain.LiquidationMeta{
			ExchangeRate: exchangeRate,
			Valid:        valid,
			ComputedAt:   time.Now(),
		},
	}, nil
}

// Catalog returns the liquidator's service catalog.
func (l *Liquidator) Catalog() Catalog {
	return l.catalog
}

// roundTo rounds half away from zero at the given number of decimal
// places. The epsilon nudge compensates for binary floats that sit just
// under the .5 boundary (2.675*100 == 267.49999...).
func roundTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	if v < 0 {
		return -math.Floor(-v*pow+0.5+1e-9) / pow
	}
	return math.Floor(v*pow+0.5+1e-9) / pow
}

func round2(v float64) float64 { return roundTo(v, 2) }
func round4(v float64) float64 { return roundTo(v, 4) }
