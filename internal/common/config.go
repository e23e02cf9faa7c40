package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Gateway  GatewayConfig
	Store    StoreConfig
	Extract  ExtractConfig
	Defaults DefaultsConfig
}

// GatewayConfig holds catalog/order gateway connection settings
type GatewayConfig struct {
	URL      string
	Database string
	Username string
	APIKey   string
	Timeout  time.Duration
}

// StoreConfig holds bookkeeping database configuration
type StoreConfig struct {
	DSN string
}

// ExtractConfig holds line-extraction settings
type ExtractConfig struct {
	CurrencyMarker string // token prefixing amounts in invoice text
	Pdftotext      string // binary name or absolute path
	MaxPages       int    // 0 = no limit
}

// DefaultsConfig holds operator defaults for order creation
type DefaultsConfig struct {
	CompanyID  int64
	SupplierID int64
	AttrMap    string // optional attribute-mapping overrides file
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			URL:      getEnv("ODOO_URL", ""),
			Database: getEnv("ODOO_DB", ""),
			Username: getEnv("ODOO_USERNAME", ""),
			APIKey:   getEnv("ODOO_API_KEY", ""),
			Timeout:  getEnvAsDuration("ODOO_TIMEOUT", 30*time.Second),
		},
		Store: StoreConfig{
			DSN: getEnv("PO_STORE_DSN", "po-ingest.db"),
		},
		Extract: ExtractConfig{
			CurrencyMarker: getEnv("PO_CURRENCY_MARKER", "SR"),
			Pdftotext:      getEnv("PDFTOTEXT", "pdftotext"),
			MaxPages:       getEnvAsInt("PO_MAX_PAGES", 0),
		},
		Defaults: DefaultsConfig{
			CompanyID:  getEnvAsInt64("PO_COMPANY_ID", 0),
			SupplierID: getEnvAsInt64("PO_SUPPLIER_ID", 1),
			AttrMap:    getEnv("PO_ATTR_MAP", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateGateway checks that the gateway connection settings are complete.
func (c *Config) ValidateGateway() error {
	if c.Gateway.URL == "" {
		return NewAppError("CONFIG_ERROR", "ODOO_URL is required", ErrInvalidInput)
	}
	if c.Gateway.Database == "" {
		return NewAppError("CONFIG_ERROR", "ODOO_DB is required", ErrInvalidInput)
	}
	if c.Gateway.Username == "" {
		return NewAppError("CONFIG_ERROR", "ODOO_USERNAME is required", ErrInvalidInput)
	}
	if c.Gateway.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "ODOO_API_KEY is required", ErrInvalidInput)
	}
	return nil
}
