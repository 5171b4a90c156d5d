package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	RateLimit     string

	// Ledger behaviour knobs
	PostRetryAttempts   int
	IdempotencyTTL      time.Duration
	ReconcileWindowDays int
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("POST_RETRY_ATTEMPTS", 3)
	viper.SetDefault("IDEMPOTENCY_TTL", "24h")
	viper.SetDefault("RECONCILE_WINDOW_DAYS", 7)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	cfg.PostRetryAttempts = viper.GetInt("POST_RETRY_ATTEMPTS")
	if cfg.PostRetryAttempts < 1 {
		log.Printf("Warning: Invalid value for POST_RETRY_ATTEMPTS (%d). Defaulting to 3.\n", cfg.PostRetryAttempts)
		cfg.PostRetryAttempts = 3
	}

	idemTTLStr := viper.GetString("IDEMPOTENCY_TTL")
	idemTTL, err := time.ParseDuration(idemTTLStr)
	if err != nil || idemTTL <= 0 {
		idemTTL = 24 * time.Hour
		if idemTTLStr != "" {
			log.Printf("Warning: Invalid value for IDEMPOTENCY_TTL ('%s'). Defaulting to %s.\n", idemTTLStr, idemTTL.String())
		}
	}
	cfg.IdempotencyTTL = idemTTL

	cfg.ReconcileWindowDays = viper.GetInt("RECONCILE_WINDOW_DAYS")
	if cfg.ReconcileWindowDays < 1 {
		log.Printf("Warning: Invalid value for RECONCILE_WINDOW_DAYS (%d). Defaulting to 7.\n", cfg.ReconcileWindowDays)
		cfg.ReconcileWindowDays = 7
	}

	return cfg, nil
}
