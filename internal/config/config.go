package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL string
	Port        string
	Environment string

	// Marketplace credentials (optional; sources fall back to public access)
	CSFloatAPIKey string
	SteamAPIKey   string

	// Monitoring parameters
	UpdateInterval     time.Duration // pause between full update cycles
	MinProfitThreshold float64       // percent
	MinSpread          float64       // minimum qualifying buy/sell spread, USD
	ItemLimit          int           // max candidate items per cycle
	ItemDelay          time.Duration // pause between items within a cycle
	QuoteWindow        time.Duration // trailing window of quotes fed to detection
	CycleBackoff       time.Duration // wait after a failed cycle
}

func Load() *Config {
	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		CSFloatAPIKey: getEnv("CSFLOAT_API_KEY", ""),
		SteamAPIKey:   getEnv("STEAM_API_KEY", ""),

		UpdateInterval:     getEnvSeconds("UPDATE_INTERVAL", 300),
		MinProfitThreshold: getEnvFloat("MIN_PROFIT_THRESHOLD", 5.0),
		MinSpread:          loadMinSpread(),
		ItemLimit:          getEnvInt("ITEM_LIMIT", 100),
		ItemDelay:          getEnvSeconds("ITEM_DELAY", 1),
		QuoteWindow:        getEnvSeconds("QUOTE_WINDOW", 600),
		CycleBackoff:       getEnvSeconds("CYCLE_BACKOFF", 60),
	}
}

// loadMinSpread reads MIN_SPREAD, falling back to the legacy
// MAX_PRICE_DIFFERENCE name. Despite the old name, the value has always been
// the minimum spread a price gap must reach to qualify.
func loadMinSpread() float64 {
	if v := os.Getenv("MIN_SPREAD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return getEnvFloat("MAX_PRICE_DIFFERENCE", 50.0)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * time.Second
}
