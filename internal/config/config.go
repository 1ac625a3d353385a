package config

import (
	"time"

	"github.com/lexora-app/lexora-core/internal/domain"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Clock    ClockConfig    `mapstructure:"clock"    validate:"required"`
	Ledger   LedgerConfig   `mapstructure:"ledger"   validate:"required"`
}

// ServerConfig contains process-wide settings.
type ServerConfig struct {
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains authentication and login-throttle settings.
type AuthConfig struct {
	TokenSecret          string `mapstructure:"token_secret"           validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	LockThreshold        int    `mapstructure:"lock_threshold"         validate:"required,gt=0"`
	LockDurationMinutes  int    `mapstructure:"lock_duration_minutes"  validate:"required,gt=0"`
}

// LockDuration returns the lockout window as a duration.
func (c AuthConfig) LockDuration() time.Duration {
	return time.Duration(c.LockDurationMinutes) * time.Minute
}

// TokenLifetime returns the session token lifetime as a duration.
func (c AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeMinutes) * time.Minute
}

// ClockConfig contains settings for the trusted clock oracle.
type ClockConfig struct {
	// SourceURL is the server-controlled endpoint whose Date header
	// provides the authoritative time. When empty, the oracle is not
	// wired and the local clock is used in declared degraded mode.
	SourceURL             string `mapstructure:"source_url"              validate:"omitempty,url"`
	SyncIntervalMinutes   int    `mapstructure:"sync_interval_minutes"   validate:"required,gt=0"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
}

// SyncInterval returns how long a learned clock offset stays fresh.
func (c ClockConfig) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalMinutes) * time.Minute
}

// RequestTimeout returns the bound on a single clock round-trip.
func (c ClockConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// LedgerConfig contains the daily allotment amounts per tier and the trial
// window length.
type LedgerConfig struct {
	FreeDailyEnergy          int `mapstructure:"free_daily_energy"           validate:"required,gte=0"`
	FreeDailyRevealTokens    int `mapstructure:"free_daily_reveal_tokens"    validate:"required,gte=0"`
	PremiumDailyEnergy       int `mapstructure:"premium_daily_energy"        validate:"required,gte=0"`
	PremiumDailyRevealTokens int `mapstructure:"premium_daily_reveal_tokens" validate:"required,gte=0"`
	TrialDays                int `mapstructure:"trial_days"                  validate:"required,gt=0"`
}

// Allotments converts the configured amounts into the domain shape.
func (c LedgerConfig) Allotments() domain.Allotments {
	return domain.Allotments{
		FreeEnergy:          c.FreeDailyEnergy,
		FreeRevealTokens:    c.FreeDailyRevealTokens,
		PremiumEnergy:       c.PremiumDailyEnergy,
		PremiumRevealTokens: c.PremiumDailyRevealTokens,
	}
}
