package domain

// VehicleCategory is the kind of vehicle a service tier requires.
type VehicleCategory string

const (
	VehicleMoto  VehicleCategory = "MOTO"
	VehicleCarro VehicleCategory = "CARRO"
)

// ServiceConfig is one row of the service catalog. All monetary fields
// are USD and non-negative; BaseDistanceKm is the free-ride radius
// before per-kilometer surcharges apply. Loaded once at startup and
// read-only thereafter.
type ServiceConfig struct {
	ID              string          `json:"id"`
	Name            string          `json:"nombre"`
	BaseNetUSD      float64         `json:"tarifa_base_neta_usd"`
	PerKmNetUSD     float64         `json:"recargo_km_neto_usd"`
	BaseGrossUSD    float64         `json:"tarifa_base_pfs_usd"`
	PerKmGrossUSD   float64         `json:"recargo_km_pfs_usd"`
	BaseDistanceKm  float64         `json:"distancia_base_km"`
	VehicleCategory VehicleCategory `json:"categoria_vehiculo"`
}
