// Package config loads service configuration from defaults, an optional
// YAML file and LEXAMEN_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Config struct {
	// Addr is the HTTP listen address.
	Addr string `koanf:"addr"`

	DatabaseURL string `koanf:"database_url"`

	// GatewayToken is the bearer token every proxied request must carry.
	GatewayToken string `koanf:"gateway_token"`

	// CronSecret authorises POST /liga/process-week.
	CronSecret string `koanf:"cron_secret"`

	// AllowedOrigins is a comma-separated CORS origin list.
	AllowedOrigins string `koanf:"allowed_origins"`

	// Timezone is the IANA zone whose midnight resets daily caps and
	// anchors flashcard due dates. League weeks are always UTC.
	Timezone string `koanf:"timezone"`

	EnableScheduler bool   `koanf:"enable_scheduler"`
	RolloverCron    string `koanf:"rollover_cron"`

	// PendingCausaTTLHours expires unanswered challenges; 0 disables expiry.
	PendingCausaTTLHours int `koanf:"pending_causa_ttl_hours"`

	// EnforceCausaTimeLimit scores answers slower than the 30s limit as blank.
	EnforceCausaTimeLimit bool `koanf:"enforce_causa_time_limit"`

	SyncServiceURL      string `koanf:"sync_service_url"`
	SyncEndpointPath    string `koanf:"sync_endpoint_path"`
	SyncIntervalSeconds int    `koanf:"sync_interval_seconds"`

	R2AccountID       string `koanf:"r2_account_id"`
	R2AccessKeyID     string `koanf:"r2_access_key_id"`
	R2AccessKeySecret string `koanf:"r2_access_key_secret"`
	R2Bucket          string `koanf:"r2_bucket"`
	CDNBaseURL        string `koanf:"cdn_base_url"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Addr:                ":5200",
		AllowedOrigins:      "http://localhost:3000",
		Timezone:            "UTC",
		RolloverCron:        "5 0 * * 1",
		SyncEndpointPath:    "/api/v1/public/profiles",
		SyncIntervalSeconds: 60,
	}
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.Wrap(ErrInvalidConfig, "addr must not be empty")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "timezone %q: %v", c.Timezone, err)
	}
	if c.PendingCausaTTLHours < 0 {
		return errors.Wrap(ErrInvalidConfig, "pending_causa_ttl_hours must not be negative")
	}
	if c.SyncIntervalSeconds <= 0 {
		return errors.Wrap(ErrInvalidConfig, "sync_interval_seconds must be positive")
	}
	if c.EnableScheduler && strings.TrimSpace(c.RolloverCron) == "" {
		return errors.Wrap(ErrInvalidConfig, "rollover_cron is required when the scheduler is enabled")
	}
	return nil
}

// Location returns the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Origins splits AllowedOrigins and trims each entry.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalSeconds) * time.Second
}

func (c *Config) PendingCausaTTL() time.Duration {
	return time.Duration(c.PendingCausaTTLHours) * time.Hour
}

// ArchiveEnabled reports whether standings should be uploaded after a rollover.
func (c *Config) ArchiveEnabled() bool {
	return c.R2AccountID != "" && c.R2Bucket != ""
}
