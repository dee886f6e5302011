package config

import (
	"os"
	"path/filepath"
	"testing"

	"aventon/internal/domain"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()

	if len(catalog.All()) != 4 {
		t.Fatalf("expected 4 tiers, got %d", len(catalog.All()))
	}

	moto, ok := catalog.Get("mototaxi")
	if !ok {
		t.Fatal("expected mototaxi tier")
	}
	if moto.VehicleCategory != domain.VehicleMoto {
		t.Errorf("expected MOTO category, got %s", moto.VehicleCategory)
	}
	if moto.BaseGrossUSD != 1.32 || moto.BaseDistanceKm != 6 {
		t.Errorf("unexpected mototaxi tariff: base=%.2f included=%.0fkm", moto.BaseGrossUSD, moto.BaseDistanceKm)
	}

	if _, ok := catalog.Get("helicoptero"); ok {
		t.Error("expected unknown tier to miss")
	}
}

func TestLoadCatalog_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	content := `[
		{"id":"vip","nombre":"VIP","tarifa_base_neta_usd":5.0,"recargo_km_neto_usd":1.0,"tarifa_base_pfs_usd":6.0,"recargo_km_pfs_usd":1.2,"distancia_base_km":3,"categoria_vehiculo":"CARRO"}
	]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	vip, ok := catalog.Get("vip")
	if !ok {
		t.Fatal("expected vip tier")
	}
	if vip.BaseGrossUSD != 6.0 || vip.PerKmGrossUSD != 1.2 {
		t.Errorf("unexpected tariff: base=%.2f perkm=%.2f", vip.BaseGrossUSD, vip.PerKmGrossUSD)
	}
}

func TestLoadCatalog_EmptyPathUsesDefault(t *testing.T) {
	catalog, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := catalog.Get("mototaxi"); !ok {
		t.Error("expected default catalog")
	}
}

func TestLoadCatalog_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"not json", `tarifas`},
		{"empty list", `[]`},
		{"missing id", `[{"nombre":"X","tarifa_base_pfs_usd":1}]`},
		{"negative tariff", `[{"id":"x","tarifa_base_pfs_usd":-1}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.json")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("setup: %v", err)
			}
			if _, err := LoadCatalog(path); err == nil {
				t.Error("expected an error")
			}
		})
	}

	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
