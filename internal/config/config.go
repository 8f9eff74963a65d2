package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Environment  string
	ServerPort   string
	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	JWTSecret string
	TokenTTL  time.Duration

	LogLevel string
	LogFile  string

	// Requests per minute allowed on the auth endpoints for a single client
	RateLimit int

	DefaultMaxStudents int
	UploadMaxSize      int64

	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string
	EmailDebug   bool
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Environment:        getEnv("APP_ENV", "development"),
		ServerPort:         getEnv("PORT", "3001"),
		DatabaseType:       strings.ToLower(getEnv("DB_TYPE", "sqlite")),
		DatabasePath:       getEnv("DB_PATH", "./ortografia.db"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		TokenTTL:           getDuration("TOKEN_TTL", 30*24*time.Hour),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFile:            getEnv("LOG_FILE", ""),
		RateLimit:          getInt("RATE_LIMIT", 20),
		DefaultMaxStudents: getInt("DEFAULT_MAX_STUDENTS", 40),
		UploadMaxSize:      5 * 1024 * 1024, // 5MB
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:       getEnv("SES_FROM_EMAIL", ""),
		SESFromName:        getEnv("SES_FROM_NAME", "Ortografía"),
		AppBaseURL:         getEnv("APP_BASE_URL", "http://localhost:3001"),
		EmailDebug:         getBool("EMAIL_DEBUG", false),
	}
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Validate checks the settings that cannot be defaulted
func (c *Config) Validate() error {
	var errs []error

	switch c.DatabaseType {
	case "sqlite", "sqlite3", "":
		if c.DatabasePath == "" {
			errs = append(errs, errors.New("DB_PATH is required for sqlite"))
		}
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for %s", c.DatabaseType))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported database type: %s", c.DatabaseType))
	}

	if c.JWTSecret == "" && !c.IsDevelopment() {
		errs = append(errs, errors.New("JWT_SECRET is required outside development"))
	}
	if c.DefaultMaxStudents <= 0 {
		errs = append(errs, errors.New("DEFAULT_MAX_STUDENTS must be positive"))
	}

	return errors.Join(errs...)
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}
