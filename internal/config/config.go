package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	NewRelic   NewRelicConfig
	Tracking   TrackingConfig
	Transition TransitionConfig
	Remittance RemittanceConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// TrackingConfig holds route tracking tunables.
type TrackingConfig struct {
	OffRouteThresholdMeters float64
	RerouteMinInterval      time.Duration
	RerouteMinMovedMeters   float64
}

// TransitionConfig holds status transition retry tunables.
type TransitionConfig struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

// RemittanceConfig holds cash remittance tunables.
type RemittanceConfig struct {
	OverdueAfter time.Duration
	Window       time.Duration
	FallbackRate float64
}

// Load loads configuration from a .env file (if present) and environment
// variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("could not load .env file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "courier"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "courier-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Tracking: TrackingConfig{
			OffRouteThresholdMeters: getFloatEnv("OFFROUTE_THRESHOLD_METERS", 50),
			RerouteMinInterval:      getDurationEnv("REROUTE_MIN_INTERVAL", 30*time.Second),
			RerouteMinMovedMeters:   getFloatEnv("REROUTE_MIN_MOVED_METERS", 100),
		},
		Transition: TransitionConfig{
			MaxAttempts: getIntEnv("TRANSITION_MAX_ATTEMPTS", 3),
			BaseBackoff: getDurationEnv("TRANSITION_BASE_BACKOFF", 200*time.Millisecond),
		},
		Remittance: RemittanceConfig{
			OverdueAfter: getDurationEnv("REMITTANCE_OVERDUE_AFTER", 24*time.Hour),
			Window:       getDurationEnv("REMITTANCE_WINDOW", 24*time.Hour),
			FallbackRate: getFloatEnv("COMMISSION_FALLBACK_RATE", 0.16),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
