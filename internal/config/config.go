package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the API server and CLIs.
type Config struct {
	Port        string
	DatabaseURL string

	// JWTSecret signs and verifies session tokens issued by the web frontend.
	JWTSecret string

	// ImageBucket is the GCS bucket for archiving captured screenshots.
	// Empty disables archiving.
	ImageBucket string

	// KRXBaseURL overrides the KRX listing endpoint (tests, proxies).
	KRXBaseURL string

	// SheetRange is the spreadsheet range transactions are appended to.
	SheetRange string
}

// Load reads configuration from the environment, loading a .env file if present.
// DATABASE_URL and JWT_SECRET are required; everything else has a default.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		ImageBucket: getEnv("STOCKNOTE_BUCKET", ""),
		KRXBaseURL:  getEnv("KRX_BASE_URL", "http://data.krx.co.kr"),
		SheetRange:  getEnv("SHEET_RANGE", "거래내역!A:G"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
