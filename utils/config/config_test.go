package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sthembisoo/bugsnag-notifier/bugsnag"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BUGSNAG_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, bugsnag.DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, "production", cfg.ReleaseStage)
	assert.Equal(t, bugsnag.DefaultTimeout, cfg.TimeoutDuration())
	assert.Nil(t, cfg.NotifyReleaseStagesList())
	assert.Equal(t, bugsnag.DefaultMessage, cfg.FallbackMessage)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("BUGSNAG_API_KEY", "key")
	t.Setenv("BUGSNAG_ENDPOINT", "http://collector.local")
	t.Setenv("BUGSNAG_RELEASE_STAGE", "staging")
	t.Setenv("BUGSNAG_NOTIFY_RELEASE_STAGES", "production, staging ,")
	t.Setenv("BUGSNAG_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	rc := cfg.Reporter()
	assert.Equal(t, "key", rc.APIKey)
	assert.Equal(t, "http://collector.local", rc.Endpoint)
	assert.Equal(t, "staging", rc.ReleaseStage)
	assert.Equal(t, []string{"production", "staging"}, rc.NotifyReleaseStages)
	assert.Equal(t, 3*time.Second, rc.Timeout)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv("BUGSNAG_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestNotifyReleaseStagesList_Blank(t *testing.T) {
	cfg := &Config{NotifyReleaseStages: "  "}
	assert.Nil(t, cfg.NotifyReleaseStagesList())

	var nilCfg *Config
	assert.Nil(t, nilCfg.NotifyReleaseStagesList())
}
