package config

import (
	"encoding/json"
	"fmt"
	"os"

	"aventon/internal/domain"
)

// Catalog is the in-memory service catalog: one entry per service tier,
// loaded once at startup and read-only thereafter.
type Catalog struct {
	byID    map[string]domain.ServiceConfig
	ordered []domain.ServiceConfig
}

// NewCatalog builds a catalog from a list of service configs.
func NewCatalog(services []domain.ServiceConfig) *Catalog {
	c := &Catalog{
		byID:    make(map[string]domain.ServiceConfig, len(services)),
		ordered: services,
	}
	for _, s := range services {
		c.byID[s.ID] = s
	}
	return c
}

// Get returns the service config for the given tier ID.
func (c *Catalog) Get(serviceID string) (*domain.ServiceConfig, bool) {
	s, ok := c.byID[serviceID]
	if !ok {
		return nil, false
	}
	return &s, true
}

// All returns every configured service tier.
func (c *Catalog) All() []domain.ServiceConfig {
	return c.ordered
}

// LoadCatalog loads the service catalog from a JSON file, falling back
// to the compiled-in default tariff when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service catalog: %w", err)
	}

	var services []domain.ServiceConfig
	if err := json.Unmarshal(data, &services); err != nil {
		return nil, fmt.Errorf("failed to parse service catalog: %w", err)
	}
	if len(services) == 0 {
		return nil, fmt.Errorf("service catalog %s is empty", path)
	}

	for _, s := range services {
		if s.ID == "" {
			return nil, fmt.Errorf("service catalog %s: entry without id", path)
		}
		if s.BaseGrossUSD < 0 || s.PerKmGrossUSD < 0 || s.BaseNetUSD < 0 || s.PerKmNetUSD < 0 || s.BaseDistanceKm < 0 {
			return nil, fmt.Errorf("service catalog %s: negative tariff field on %q", path, s.ID)
		}
	}

	return NewCatalog(services), nil
}

// DefaultCatalog returns the built-in tariff table.
func DefaultCatalog() *Catalog {
	return NewCatalog([]domain.ServiceConfig{
		{
			ID:              "mototaxi",
			Name:            "Mototaxi",
			BaseNetUSD:      1.00,
			PerKmNetUSD:     0.45,
			BaseGrossUSD:    1.32,
			PerKmGrossUSD:   0.535,
			BaseDistanceKm:  6,
			VehicleCategory: domain.VehicleMoto,
		},
		{
			ID:              "economico",
			Name:            "Carro Económico",
			BaseNetUSD:      2.50,
			PerKmNetUSD:     0.60,
			BaseGrossUSD:    3.10,
			PerKmGrossUSD:   0.72,
			BaseDistanceKm:  5,
			VehicleCategory: domain.VehicleCarro,
		},
		{
			ID:              "confort",
			Name:            "Carro Confort",
			BaseNetUSD:      3.80,
			PerKmNetUSD:     0.85,
			BaseGrossUSD:    4.65,
			PerKmGrossUSD:   1.02,
			BaseDistanceKm:  5,
			VehicleCategory: domain.VehicleCarro,
		},
		{
			ID:              "delivery",
			Name:            "Moto Delivery",
			BaseNetUSD:      1.20,
			PerKmNetUSD:     0.50,
			BaseGrossUSD:    1.55,
			PerKmGrossUSD:   0.60,
			BaseDistanceKm:  4,
			VehicleCategory: domain.VehicleMoto,
		},
	})
}
