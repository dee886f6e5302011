package tests

import (
	"math"
	"testing"

	"aventon/internal/config"
	"aventon/internal/service"
)

func newLiquidator() *service.Liquidator {
	return service.NewLiquidator(config.DefaultCatalog(), service.DefaultRateTable())
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestLiquidation_MototaxiWorkedExample(t *testing.T) {
	liq := newLiquidator()

	// 8 km mototaxi: 6 km included in the base, 2 km surplus at 0.535.
	result, err := liq.Compute("mototaxi", 8.0, 40.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !almostEqual(result.GrossUSD, 2.39) {
		t.Errorf("expected gross 2.39 USD, got %.4f", result.GrossUSD)
	}
	if !almostEqual(result.GrossVES, 95.60) {
		t.Errorf("expected gross 95.60 VES, got %.4f", result.GrossVES)
	}

	// Driver side: 95% of gross, minus 3% ISLR withholding.
	if !almostEqual(result.Driver.GrossUSD, 2.2705) {
		t.Errorf("expected driver gross 2.2705, got %.4f", result.Driver.GrossUSD)
	}
	if !almostEqual(result.Driver.IncomeTaxUSD, 0.0681) {
		t.Errorf("expected driver income tax 0.0681, got %.4f", result.Driver.IncomeTaxUSD)
	}
	if !almostEqual(result.Driver.NetUSD, 2.2024) {
		t.Errorf("expected driver net 2.2024, got %.4f", result.Driver.NetUSD)
	}

	// Platform side: 5% commission with 16% VAT included in it.
	if !almostEqual(result.Platform.CommissionUSD, 0.1195) {
		t.Errorf("expected commission 0.1195, got %.4f", result.Platform.CommissionUSD)
	}
	if !almostEqual(result.Platform.NetUSD, 0.1030) {
		t.Errorf("expected platform net 0.1030, got %.4f", result.Platform.NetUSD)
	}
	if !almostEqual(result.Platform.VATUSD, 0.0165) {
		t.Errorf("expected VAT 0.0165, got %.4f", result.Platform.VATUSD)
	}

	if !almostEqual(result.Tax.TotalUSD, 0.0846) {
		t.Errorf("expected tax total 0.0846, got %.4f", result.Tax.TotalUSD)
	}

	if !result.Meta.Valid {
		t.Error("expected breakdown to reconcile")
	}
	if result.Meta.ExchangeRate != 40.0 {
		t.Errorf("expected exchange rate 40.0, got %.2f", result.Meta.ExchangeRate)
	}
}

func TestLiquidation_DistanceWithinBaseChargesBaseFare(t *testing.T) {
	liq := newLiquidator()

	// The base fare covers the first 6 km of a mototaxi trip; a shorter
	// trip costs exactly the same.
	short, err := liq.Compute("mototaxi", 2.0, 40.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	exact, err := liq.Compute("mototaxi", 6.0, 40.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !almostEqual(short.GrossUSD, 1.32) {
		t.Errorf("expected base fare 1.32, got %.4f", short.GrossUSD)
	}
	if !almostEqual(short.GrossUSD, exact.GrossUSD) {
		t.Errorf("expected identical fare at and below base distance, got %.4f vs %.4f", short.GrossUSD, exact.GrossUSD)
	}
}

func TestLiquidation_NegativeDistanceTreatedAsBaseFare(t *testing.T) {
	liq := newLiquidator()

	result, err := liq.Compute("mototaxi", -3.0, 40.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(result.GrossUSD, 1.32) {
		t.Errorf("expected base fare for negative distance, got %.4f", result.GrossUSD)
	}
	if result.DistanceKm != 0 {
		t.Errorf("expected distance clamped to 0, got %.2f", result.DistanceKm)
	}
}

func TestLiquidation_UnknownServiceFails(t *testing.T) {
	liq := newLiquidator()

	_, err := liq.Compute("helicoptero", 5.0, 40.0)
	if err != service.ErrUnknownService {
		t.Errorf("expected ErrUnknownService, got %v", err)
	}
}

func TestLiquidation_NonPositiveRateFails(t *testing.T) {
	liq := newLiquidator()

	if _, err := liq.Compute("mototaxi", 5.0, 0); err != service.ErrInvalidExchangeRate {
		t.Errorf("expected ErrInvalidExchangeRate for zero rate, got %v", err)
	}
	if _, err := liq.Compute("mototaxi", 5.0, -36.5); err != service.ErrInvalidExchangeRate {
		t.Errorf("expected ErrInvalidExchangeRate for negative rate, got %v", err)
	}
}

func TestLiquidation_DeterministicForSameInputs(t *testing.T) {
	liq := newLiquidator()

	a, err := liq.Compute("economico", 12.5, 38.75)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := liq.Compute("economico", 12.5, 38.75)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Everything but the snapshot identity must be identical.
	if a.GrossUSD != b.GrossUSD || a.GrossVES != b.GrossVES {
		t.Error("gross figures differ between identical computations")
	}
	if a.Driver != b.Driver {
		t.Error("driver settlements differ between identical computations")
	}
	if a.Platform != b.Platform {
		t.Error("platform settlements differ between identical computations")
	}
	if a.Tax != b.Tax {
		t.Error("tax totals differ between identical computations")
	}
	if a.ID == b.ID {
		t.Error("expected distinct snapshot IDs")
	}
}

func TestLiquidation_FareMonotonicInDistance(t *testing.T) {
	liq := newLiquidator()

	prev := -1.0
	for _, km := range []float64{0, 1, 4, 5, 6, 7, 10, 25, 80} {
		result, err := liq.Compute("confort", km, 40.0)
		if err != nil {
			t.Fatalf("unexpected error at %.1f km: %v", km, err)
		}
		if result.GrossUSD < prev {
			t.Errorf("fare decreased at %.1f km: %.4f < %.4f", km, result.GrossUSD, prev)
		}
		prev = result.GrossUSD
	}
}

func TestLiquidation_ReconcilesAcrossCatalog(t *testing.T) {
	liq := newLiquidator()
	catalog := config.DefaultCatalog()

	for _, svc := range catalog.All() {
		// The boundary just past the included distance and the long-haul
		// cases are where rounding drift would show up.
		for _, km := range []float64{0, svc.BaseDistanceKm, svc.BaseDistanceKm + 0.1, 100, 10000} {
			result, err := liq.Compute(svc.ID, km, 36.5)
			if err != nil {
				t.Fatalf("%s at %.2f km: unexpected error: %v", svc.ID, km, err)
			}
			if !result.Meta.Valid {
				t.Errorf("%s at %.2f km: breakdown did not reconcile", svc.ID, km)
			}

			sum := result.Driver.NetUSD + result.Driver.IncomeTaxUSD + result.Platform.NetUSD + result.Platform.VATUSD
			if math.Abs(sum-result.GrossUSD) > 0.02 {
				t.Errorf("%s at %.2f km: parts sum to %.4f, gross is %.4f", svc.ID, km, sum, result.GrossUSD)
			}
		}
	}
}

func TestLiquidation_CustomRateTable(t *testing.T) {
	// A zero-commission table pays the whole gross to the driver, so the
	// platform owes no VAT either.
	liq := service.NewLiquidator(config.DefaultCatalog(), service.RateTable{
		CommissionRate: 0,
		IncomeTaxRate:  0.03,
		VATRate:        0.16,
	})

	result, err := liq.Compute("mototaxi", 8.0, 40.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(result.Driver.GrossUSD, result.GrossUSD) {
		t.Errorf("expected driver gross to equal trip gross, got %.4f vs %.4f", result.Driver.GrossUSD, result.GrossUSD)
	}
	if result.Platform.CommissionUSD != 0 || result.Platform.VATUSD != 0 {
		t.Errorf("expected zero platform take, got commission %.4f VAT %.4f", result.Platform.CommissionUSD, result.Platform.VATUSD)
	}
	if !result.Meta.Valid {
		t.Error("expected breakdown to reconcile")
	}
}
