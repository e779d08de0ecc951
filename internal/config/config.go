package config

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/gin-gonic/gin"
)

// Config holds the process configuration. Domain thresholds live in the
// settings store, not here.
type Config struct {
	Port     string
	DBPath   string
	LogLevel string
	GinMode  string
}

// Load reads configuration from the environment, with a .env file as a
// convenience for local runs.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     envOr("PORT", ":8080"),
		DBPath:   envOr("DB_PATH", "./data/pricewatch.db"),
		LogLevel: envOr("LOG_LEVEL", "info"),
		GinMode:  envOr("GIN_MODE", gin.ReleaseMode),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
