package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the exposure service
type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	Server    ServerConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

// RedisConfig holds the optional boost-cache configuration. An empty Addr
// disables caching entirely; the engine then reads the boost set from MySQL
// on every feed request.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SchedulerConfig holds the recurring-job configuration. Enabled models the
// external trigger explicitly: when false the engine exposes its Distribute
// and Reset entry points but never ticks on its own.
type SchedulerConfig struct {
	Enabled            bool
	DistributeInterval time.Duration
	TopPageMax         int
	BoostCacheTTL      time.Duration
}

// ServerConfig holds server configuration
type ServerConfig struct {
	MetricsPort string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_DATABASE", "findmiss"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Scheduler: SchedulerConfig{
			Enabled:            getEnvBool("SCHEDULER_ENABLED", true),
			DistributeInterval: getEnvDuration("DISTRIBUTE_INTERVAL", time.Hour),
			TopPageMax:         getEnvInt("TOP_PAGE_MAX", 5),
			BoostCacheTTL:      getEnvDuration("BOOST_CACHE_TTL", time.Minute),
		},
		Server: ServerConfig{
			MetricsPort: getEnv("METRICS_PORT", "9090"),
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
