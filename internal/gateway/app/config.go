package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Issuer   string   // Required: expected issuer of provider tokens
	Audience []string // Optional: accepted audiences (empty disables the check)

	Algorithm    string        // Optional: provider signing algorithm (RS256, ES256, EdDSA) (default: RS256)
	JWKSURL      string        // Optional: URL of the provider's JWKS document
	JWKSFile     string        // Optional: path to a local JWKS file (used when no URL is set)
	JWKSRefresh  time.Duration // Optional: JWKS refresh interval, 0 disables refresh (default: 15m)
	DatabaseFile string        // Optional: path to SQLite directory database file (default: ./gateway.db)

	EnhancementEnabled           bool // Toggle the whole enhancement pipeline (default: true)
	EnhancementIncludeAttributes bool // Include directory attribute claims (default: true)
	EnhancementIncludeRoles      bool // Include role claims when attributes are off (default: true)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:       os.Getenv("GATEWAY_ISSUER"),
		Audience:     splitList(os.Getenv("GATEWAY_AUDIENCE")),
		Algorithm:    getEnvOrDefault("GATEWAY_ALGORITHM", "RS256"),
		JWKSURL:      os.Getenv("GATEWAY_JWKS_URL"),
		JWKSFile:     os.Getenv("GATEWAY_JWKS_FILE"),
		JWKSRefresh:  getEnvDurationOrDefault("GATEWAY_JWKS_REFRESH", 15*time.Minute),
		DatabaseFile: getEnvOrDefault("GATEWAY_DATABASE_FILE", "gateway.db"),

		EnhancementEnabled:           getEnvBoolOrDefault("ENHANCEMENT_ENABLED", true),
		EnhancementIncludeAttributes: getEnvBoolOrDefault("ENHANCEMENT_INCLUDE_USER_ATTRIBUTES", true),
		EnhancementIncludeRoles:      getEnvBoolOrDefault("ENHANCEMENT_INCLUDE_USER_ROLES", true),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	return cfg
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
