package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Upstream scheduling provider (raw open time units).
	SchedulerBaseURL     string
	SchedulerAPIKey      string
	SchedulerTimeout     time.Duration
	SchedulerShadowSync  bool
	SchedulerSyncEvery   time.Duration
	SchedulerWindowDays  int

	// Availability engine defaults.
	DefaultDateRangeDays int
	CatalogCacheTTL      time.Duration

	AdminJWTSecret     string
	CORSAllowedOrigins string
	RateLimitPerSec    float64
	RateLimitBurst     int

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	SyncQueueURL        string
	SyncRunsTable       string
	UseMemoryQueue      bool
	CatalogSyncEvery    time.Duration

	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		SchedulerBaseURL:    getEnv("SCHEDULER_BASE_URL", ""),
		SchedulerAPIKey:     getEnv("SCHEDULER_API_KEY", ""),
		SchedulerTimeout:    getEnvAsDuration("SCHEDULER_TIMEOUT", 10*time.Second),
		SchedulerShadowSync: getEnvAsBool("SCHEDULER_SHADOW_SYNC_ENABLED", false),
		SchedulerSyncEvery:  getEnvAsDuration("SCHEDULER_SYNC_INTERVAL", 15*time.Minute),
		SchedulerWindowDays: getEnvAsInt("SCHEDULER_SYNC_WINDOW_DAYS", 14),

		DefaultDateRangeDays: getEnvAsInt("DEFAULT_DATE_RANGE_DAYS", 7),
		CatalogCacheTTL:      getEnvAsDuration("CATALOG_CACHE_TTL", 5*time.Minute),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		RateLimitPerSec:    getEnvAsFloat("RATE_LIMIT_PER_SECOND", 0),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		SyncQueueURL:        getEnv("SYNC_QUEUE_URL", ""),
		SyncRunsTable:       getEnv("SYNC_RUNS_TABLE", "catalog_sync_runs"),
		UseMemoryQueue:      getEnvAsBool("USE_MEMORY_QUEUE", false),
		CatalogSyncEvery:    getEnvAsDuration("CATALOG_SYNC_INTERVAL", 0),

		EmailProvider:     getEnv("EMAIL_PROVIDER", "sendgrid"),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "ClinicBook"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
