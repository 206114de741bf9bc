// Package config loads reporter settings from the environment and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sthembisoo/bugsnag-notifier/bugsnag"
)

// Config holds notifier configuration loaded from the environment.
type Config struct {
	// APIKey is the Bugsnag project API key.
	APIKey string `mapstructure:"BUGSNAG_API_KEY"`
	// Endpoint is the notify URL (default https://notify.bugsnag.com).
	Endpoint string `mapstructure:"BUGSNAG_ENDPOINT"`
	// ReleaseStage is the stage this process runs in (default production).
	ReleaseStage string `mapstructure:"BUGSNAG_RELEASE_STAGE"`
	// NotifyReleaseStages is a comma-separated allow-list; unset means every stage notifies.
	NotifyReleaseStages string `mapstructure:"BUGSNAG_NOTIFY_RELEASE_STAGES"`
	// Timeout bounds a single delivery (e.g. "10s").
	Timeout string `mapstructure:"BUGSNAG_TIMEOUT"`
	// FallbackMessage is used for errors that carry no reason.
	FallbackMessage string `mapstructure:"BUGSNAG_FALLBACK_MESSAGE"`
}

// Load reads .env (if present), then builds Config from the environment via Viper.
// Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("BUGSNAG_API_KEY", "")
	v.SetDefault("BUGSNAG_ENDPOINT", bugsnag.DefaultEndpoint)
	v.SetDefault("BUGSNAG_RELEASE_STAGE", "production")
	v.SetDefault("BUGSNAG_NOTIFY_RELEASE_STAGES", "")
	v.SetDefault("BUGSNAG_TIMEOUT", bugsnag.DefaultTimeout.String())
	v.SetDefault("BUGSNAG_FALLBACK_MESSAGE", bugsnag.DefaultMessage)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.ReleaseStage == "" {
		return nil, errors.New("config: BUGSNAG_RELEASE_STAGE must not be empty")
	}
	if _, err := time.ParseDuration(cfg.Timeout); err != nil {
		return nil, errors.New("config: BUGSNAG_TIMEOUT must be a duration")
	}

	return &cfg, nil
}

// TimeoutDuration parses Timeout. Returns the notifier default if unset or invalid.
func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return bugsnag.DefaultTimeout
	}
	return d
}

// NotifyReleaseStagesList returns the allow-list from the comma-separated config,
// or nil when it is blank so that every stage notifies.
func (c *Config) NotifyReleaseStagesList() []string {
	if c == nil || strings.TrimSpace(c.NotifyReleaseStages) == "" {
		return nil
	}
	parts := strings.Split(c.NotifyReleaseStages, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Reporter returns the settings a bugsnag.Reporter is built from.
func (c *Config) Reporter() bugsnag.Config {
	return bugsnag.Config{
		APIKey:              c.APIKey,
		Endpoint:            c.Endpoint,
		Timeout:             c.TimeoutDuration(),
		ReleaseStage:        c.ReleaseStage,
		NotifyReleaseStages: c.NotifyReleaseStagesList(),
		FallbackMessage:     c.FallbackMessage,
	}
}
