// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinIOPublicBaseURL() string
	GetMinioBucketDamagePhotos() string
	IsMinIOEnabled() bool
}

// SchedulerConfig provides settings for the asynq review queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// IntakeConfig provides timings and rule overrides for the intake workflow.
type IntakeConfig interface {
	GetClaimQuietPeriod() time.Duration
	GetClaimEvaluationDelay() time.Duration
	GetDamageEvaluationDelay() time.Duration
	GetSessionIdleTTL() time.Duration
	GetIntakeRulesFile() string
	GetDefaultActor() string
}

// MetricsConfig provides settings for the metrics snapshot cache.
type MetricsConfig interface {
	GetRedisURL() string
	GetMetricsCacheTTL() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                   string
	HTTPAddr              string
	DatabaseURL           string
	MigrationsEnabled     bool
	JWTAccessSecret       string
	CORSAllowAll          bool
	CORSOrigins           []string
	CORSAllowCreds        bool
	MinIOEndpoint         string
	MinIOAccessKey        string
	MinIOSecretKey        string
	MinIOUseSSL           bool
	MinIOMaxFileSize      int64
	MinIOPublicBaseURL    string
	MinioBucketPhotos     string
	RedisURL              string
	RedisTLSInsecure      bool
	AsynqQueueName        string
	AsynqConcurrency      int
	ClaimQuietPeriod      time.Duration
	ClaimEvaluationDelay  time.Duration
	DamageEvaluationDelay time.Duration
	SessionIdleTTL        time.Duration
	IntakeRulesFile       string
	DefaultActor          string
	MetricsCacheTTL       time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string           { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string          { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string          { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool               { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64         { return c.MinIOMaxFileSize }
func (c *Config) GetMinIOPublicBaseURL() string      { return c.MinIOPublicBaseURL }
func (c *Config) GetMinioBucketDamagePhotos() string { return c.MinioBucketPhotos }
func (c *Config) IsMinIOEnabled() bool               { return c.MinIOEndpoint != "" }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// IntakeConfig implementation
func (c *Config) GetClaimQuietPeriod() time.Duration      { return c.ClaimQuietPeriod }
func (c *Config) GetClaimEvaluationDelay() time.Duration  { return c.ClaimEvaluationDelay }
func (c *Config) GetDamageEvaluationDelay() time.Duration { return c.DamageEvaluationDelay }
func (c *Config) GetSessionIdleTTL() time.Duration        { return c.SessionIdleTTL }
func (c *Config) GetIntakeRulesFile() string              { return c.IntakeRulesFile }
func (c *Config) GetDefaultActor() string                 { return c.DefaultActor }

// MetricsConfig implementation
func (c *Config) GetMetricsCacheTTL() time.Duration { return c.MetricsCacheTTL }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		MigrationsEnabled:     strings.EqualFold(getEnv("DB_MIGRATIONS_ENABLED", "true"), "true"),
		JWTAccessSecret:       getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:          corsAllowAll,
		CORSOrigins:           corsOrigins,
		CORSAllowCreds:        strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		MinIOEndpoint:         getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:        getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:        getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:           strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:      mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "20971520")),
		MinIOPublicBaseURL:    getEnv("MINIO_PUBLIC_BASE_URL", ""),
		MinioBucketPhotos:     getEnv("MINIO_BUCKET_DAMAGE_PHOTOS", "damage-photos"),
		RedisURL:              getEnv("REDIS_URL", ""),
		RedisTLSInsecure:      strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:        getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:      int(mustInt64(getEnv("ASYNQ_CONCURRENCY", "10"))),
		ClaimQuietPeriod:      mustDuration(getEnv("INTAKE_CLAIM_QUIET_PERIOD", "500ms")),
		ClaimEvaluationDelay:  mustDuration(getEnv("INTAKE_CLAIM_EVALUATION_DELAY", "3s")),
		DamageEvaluationDelay: mustDuration(getEnv("INTAKE_DAMAGE_EVALUATION_DELAY", "2500ms")),
		SessionIdleTTL:        mustDuration(getEnv("INTAKE_SESSION_IDLE_TTL", "30m")),
		IntakeRulesFile:       getEnv("INTAKE_RULES_FILE", ""),
		DefaultActor:          getEnv("INTAKE_DEFAULT_ACTOR", "Claims Agent"),
		MetricsCacheTTL:       mustDuration(getEnv("METRICS_CACHE_TTL", "5m")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.ClaimQuietPeriod <= 0 || cfg.ClaimEvaluationDelay <= 0 || cfg.DamageEvaluationDelay <= 0 {
		return nil, fmt.Errorf("intake timings must be positive durations")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
