package app

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	UsersFile     string // Required: path to the encrypted credential file
	EncryptionKey string // Required: secret for the credential file cipher
	JWTSecret     string // Required: shared secret for session token verification
	ResetBaseURL  string // Required: dashboard origin used to mint reset links
	Issuer        string // Optional: issuer claim expected on session tokens (default: siteadmin)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	SweepInterval       time.Duration // Reset token sweep interval (default: 1h)
	TokenTTL            time.Duration // Reset token lifetime (default: 6h)
}

func LoadConfig() Config {
	return Config{
		UsersFile:     getEnvOrDefault("ADMIN_USERS_FILE", "users.enc"),
		EncryptionKey: os.Getenv("ADMIN_ENCRYPTION_KEY"),
		JWTSecret:     os.Getenv("ADMIN_JWT_SECRET"),
		ResetBaseURL:  os.Getenv("ADMIN_RESET_BASE_URL"),
		Issuer:        getEnvOrDefault("ADMIN_ISSUER", "siteadmin"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		SweepInterval:       getEnvDurationOrDefault("SWEEP_INTERVAL", 1*time.Hour),
		TokenTTL:            getEnvDurationOrDefault("RESET_TOKEN_TTL", 6*time.Hour),
	}
}

// Validate rejects a config that is missing a required secret. Failing at
// startup beats serving a store nobody can decrypt.
func (c Config) Validate() error {
	if c.EncryptionKey == "" {
		return errors.New("ADMIN_ENCRYPTION_KEY is required")
	}
	if c.JWTSecret == "" {
		return errors.New("ADMIN_JWT_SECRET is required")
	}
	if c.ResetBaseURL == "" {
		return errors.New("ADMIN_RESET_BASE_URL is required")
	}
	return nil
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

	// Plain integers are taken as minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
