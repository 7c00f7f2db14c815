// Package config provides configuration management for ComplyHub.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment represents the deployment environment.
type Environment string

const (
	// EnvDevelopment is the default local development environment.
	EnvDevelopment Environment = "development"
	// EnvStaging is the staging/pre-production environment.
	EnvStaging Environment = "staging"
	// EnvProduction is the production environment.
	EnvProduction Environment = "production"
)

// ServerConfig holds server-level configuration loaded from environment variables.
type ServerConfig struct {
	Environment Environment
	Port        int
	DatabaseURL string

	JWTSecret         string
	AccessTokenMins   int // access token lifetime in minutes (default: 30)
	RefreshTokenHours int // refresh token lifetime in hours (default: 168)

	S3Bucket          string
	S3Region          string
	S3Endpoint        string // custom endpoint for S3-compatible stores, empty for AWS
	S3AccessKeyID     string
	S3SecretAccessKey string

	GeminiAPIKey string // empty disables the assistant
	GeminiModel  string

	CORSOrigins []string

	UpcomingWindowDays int    // default window for the upcoming task view
	NotifyCronSpec     string // deadline scanner schedule
}

// LoadServerConfig reads server configuration from environment variables.
// Missing required values fail at boot rather than at first use.
func LoadServerConfig() (ServerConfig, error) {
	env := Environment(os.Getenv("ENV"))
	switch env {
	case EnvDevelopment, EnvStaging, EnvProduction:
		// valid
	default:
		env = EnvDevelopment
	}

	cfg := ServerConfig{
		Environment:        env,
		Port:               getEnvInt("PORT", 8080),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		AccessTokenMins:    getEnvInt("ACCESS_TOKEN_MINUTES", 30),
		RefreshTokenHours:  getEnvInt("REFRESH_TOKEN_HOURS", 168),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3Region:           getEnvDefault("S3_REGION", "ap-northeast-2"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:      os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:  os.Getenv("S3_SECRET_ACCESS_KEY"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        getEnvDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		CORSOrigins:        getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		UpcomingWindowDays: getEnvInt("UPCOMING_WINDOW_DAYS", 7),
		NotifyCronSpec:     getEnvDefault("NOTIFY_CRON", "0 9 * * *"),
	}

	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.S3Bucket == "" {
		return cfg, fmt.Errorf("S3_BUCKET is required")
	}
	if cfg.AccessTokenMins <= 0 || cfg.RefreshTokenHours <= 0 {
		return cfg, fmt.Errorf("token lifetimes must be positive")
	}

	return cfg, nil
}

// getEnvDefault reads a string from an environment variable, returning the default if unset.
func getEnvDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer from an environment variable, returning the default if unset or invalid.
func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// getEnvList reads a comma-separated list from an environment variable.
func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
