package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables use the LEXORA_ prefix with
// underscores for nesting (e.g. LEXORA_DATABASE_URL) and take precedence
// over values from config files. Returns a populated Config struct or an
// error if loading or validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// A missing config file is fine; environment variables alone may carry
	// the full configuration.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("LEXORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so bind
	// every key explicitly to pick up env-only configuration.
	for _, key := range []string{
		"server.log_level",
		"database.url",
		"auth.token_secret",
		"auth.token_lifetime_minutes",
		"auth.lock_threshold",
		"auth.lock_duration_minutes",
		"clock.source_url",
		"clock.sync_interval_minutes",
		"clock.request_timeout_seconds",
		"ledger.free_daily_energy",
		"ledger.free_daily_reveal_tokens",
		"ledger.premium_daily_energy",
		"ledger.premium_daily_reveal_tokens",
		"ledger.trial_days",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers the product-default values so that only secrets and
// the database URL must come from the environment.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.log_level", "info")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.lock_threshold", 5)
	v.SetDefault("auth.lock_duration_minutes", 60)
	v.SetDefault("clock.sync_interval_minutes", 15)
	v.SetDefault("clock.request_timeout_seconds", 5)
	v.SetDefault("ledger.free_daily_energy", 50)
	v.SetDefault("ledger.free_daily_reveal_tokens", 3)
	v.SetDefault("ledger.premium_daily_energy", 200)
	v.SetDefault("ledger.premium_daily_reveal_tokens", 10)
	v.SetDefault("ledger.trial_days", 7)
}
