package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	NewRelic    NewRelicConfig
	Exchange    ExchangeConfig
	Matching    MatchingConfig
	Liquidation LiquidationConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// ExchangeConfig holds the exchange rate source configuration. The rate
// is VES per USD, refreshed on a fixed interval; FallbackRate is used
// until the first successful refresh.
type ExchangeConfig struct {
	SourceURL       string
	SourceField     string
	RefreshInterval time.Duration
	FallbackRate    float64
}

// MatchingConfig tunes the radius expansion search. RadiiKm must be
// monotonically increasing.
type MatchingConfig struct {
	RadiiKm      []float64
	TierWait     time.Duration
	PollInterval time.Duration
}

// LiquidationConfig holds the regulatory constants applied during fare
// liquidation and the optional catalog file path.
type LiquidationConfig struct {
	CommissionRate float64
	IncomeTaxRate  float64
	VATRate        float64
	CatalogPath    string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "aventon"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "aventon-core"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Exchange: ExchangeConfig{
			SourceURL:       getEnv("EXCHANGE_SOURCE_URL", "https://ve.dolarapi.com/v1/dolares/oficial"),
			SourceField:     getEnv("EXCHANGE_SOURCE_FIELD", "promedio"),
			RefreshInterval: getDurationEnv("EXCHANGE_REFRESH_INTERVAL", 5*time.Minute),
			FallbackRate:    getFloatEnv("EXCHANGE_FALLBACK_RATE", 36.50),
		},
		Matching: MatchingConfig{
			RadiiKm:      getFloatsEnv("MATCHING_RADII_KM", []float64{1, 3, 5}),
			TierWait:     getDurationEnv("MATCHING_TIER_WAIT", 15*time.Second),
			PollInterval: getDurationEnv("MATCHING_POLL_INTERVAL", 2*time.Second),
		},
		Liquidation: LiquidationConfig{
			CommissionRate: getFloatEnv("LIQUIDATION_COMMISSION_RATE", 0.05),
			IncomeTaxRate:  getFloatEnv("LIQUIDATION_INCOME_TAX_RATE", 0.03),
			VATRate:        getFloatEnv("LIQUIDATION_VAT_RATE", 0.16),
			CatalogPath:    getEnv("SERVICE_CATALOG_PATH", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getFloatsEnv(key string, defaultValue []float64) []float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return defaultValue
		}
		result = append(result, f)
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
