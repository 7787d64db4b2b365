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
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	GetMigrationsDir() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// SchedulingConfig provides settings for the RDV negotiation service.
type SchedulingConfig interface {
	GetRdvReminderLead() time.Duration
	GetRdvLocation() *time.Location
}

// OutboxConfig provides retention settings for the notification outbox.
type OutboxConfig interface {
	GetOutboxRetention() time.Duration
	GetOutboxCleanupSchedule() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                   string        `yaml:"env"`
	HTTPAddr              string        `yaml:"http_addr"`
	DatabaseURL           string        `yaml:"-"`
	MigrationsDir         string        `yaml:"migrations_dir"`
	CORSAllowAll          bool          `yaml:"cors_allow_all"`
	CORSOrigins           []string      `yaml:"cors_origins"`
	RedisURL              string        `yaml:"-"`
	RedisTLSInsecure      bool          `yaml:"redis_tls_insecure"`
	AsynqQueueName        string        `yaml:"asynq_queue"`
	AsynqConcurrency      int           `yaml:"asynq_concurrency"`
	RdvReminderLead       time.Duration `yaml:"rdv_reminder_lead"`
	RdvTimezone           string        `yaml:"rdv_timezone"`
	OutboxRetention       time.Duration `yaml:"outbox_retention"`
	OutboxCleanupSchedule string        `yaml:"outbox_cleanup_schedule"`

	rdvLocation *time.Location
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string   { return c.DatabaseURL }
func (c *Config) GetMigrationsDir() string { return c.MigrationsDir }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string        { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool  { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string  { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int   { return c.AsynqConcurrency }
func (c *Config) IsSchedulerEnabled() bool   { return c.RedisURL != "" }

// SchedulingConfig implementation
func (c *Config) GetRdvReminderLead() time.Duration { return c.RdvReminderLead }
func (c *Config) GetRdvLocation() *time.Location {
	if c.rdvLocation == nil {
		return time.UTC
	}
	return c.rdvLocation
}

// OutboxConfig implementation
func (c *Config) GetOutboxRetention() time.Duration { return c.OutboxRetention }
func (c *Config) GetOutboxCleanupSchedule() string  { return c.OutboxCleanupSchedule }

// Load reads configuration from environment variables, then applies the
// optional YAML file named by CONFIG_FILE. Secrets (database and redis URLs)
// only come from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		MigrationsDir:         getEnv("MIGRATIONS_DIR", ""),
		CORSAllowAll:          corsAllowAll,
		CORSOrigins:           corsOrigins,
		RedisURL:              getEnv("REDIS_URL", ""),
		RedisTLSInsecure:      strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:        getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:      mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		RdvReminderLead:       mustDuration(getEnv("RDV_REMINDER_LEAD", "24h")),
		RdvTimezone:           getEnv("RDV_TIMEZONE", "Europe/Paris"),
		OutboxRetention:       mustDuration(getEnv("OUTBOX_RETENTION", "720h")),
		OutboxCleanupSchedule: getEnv("OUTBOX_CLEANUP_SCHEDULE", "@every 1h"),
	}

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile overlays non-secret settings from a YAML file.
func (c *Config) applyFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) finalize() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.RdvReminderLead < 0 {
		return fmt.Errorf("RDV_REMINDER_LEAD must not be negative")
	}

	loc, err := time.LoadLocation(c.RdvTimezone)
	if err != nil {
		return fmt.Errorf("invalid RDV_TIMEZONE %q: %w", c.RdvTimezone, err)
	}
	c.rdvLocation = loc

	if c.AsynqQueueName == "" {
		c.AsynqQueueName = "default"
	}
	if c.AsynqConcurrency < 1 {
		c.AsynqConcurrency = 10
	}
	return nil
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

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
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
