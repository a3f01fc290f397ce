package app

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseFile        string        // Path to the SQLite database file (default: ./library.db)
	SessionSecret       string        // Required in prod: HMAC secret for session tokens
	TokenSecret         string        // Required in prod: secret keying the transport token cipher
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

// LoadConfig reads configuration from the environment, with an optional .env
// file for local development. Missing secrets fall back to ephemeral random
// values so a dev instance boots, at the cost of sessions not surviving a
// restart.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		DatabaseFile:        getEnvOrDefault("LIBRARY_DATABASE_FILE", "library.db"),
		SessionSecret:       os.Getenv("LIBRARY_SESSION_SECRET"),
		TokenSecret:         os.Getenv("LIBRARY_TOKEN_SECRET"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if cfg.SessionSecret == "" {
		cfg.SessionSecret = randomSecret()
		slog.Warn("LIBRARY_SESSION_SECRET not set; using an ephemeral secret, sessions will not survive a restart")
	}
	if cfg.TokenSecret == "" {
		cfg.TokenSecret = randomSecret()
		slog.Warn("LIBRARY_TOKEN_SECRET not set; using an ephemeral secret, tokens will not survive a restart")
	}

	return cfg
}

func randomSecret() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
