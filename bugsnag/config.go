package bugsnag

import (
	"time"

	"github.com/samber/lo"
)

const (
	DefaultEndpoint = "https://notify.bugsnag.com"
	DefaultTimeout  = 10 * time.Second

	notifierName    = "bugsnag-notifier"
	notifierURL     = "https://github.com/sthembisoo/bugsnag-notifier"
	notifierVersion = "1.0.0"
	payloadVersion  = "4"
)

// Config is read once when a Reporter is built and never changed afterwards
type Config struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration

	// ReleaseStage is the stage this process runs in, e.g. "production"
	ReleaseStage string
	// NotifyReleaseStages lists the stages that send reports. A nil slice
	// notifies from every stage, an empty one from none.
	NotifyReleaseStages []string

	// FallbackMessage replaces DefaultMessage for errors without a reason
	FallbackMessage string
}

func (c Config) shouldNotify() bool {
	if c.NotifyReleaseStages == nil {
		return true
	}
	return lo.Contains(c.NotifyReleaseStages, c.ReleaseStage)
}

func (c Config) withDefaults() Config {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.FallbackMessage == "" {
		c.FallbackMessage = DefaultMessage
	}
	if c.NotifyReleaseStages != nil {
		c.NotifyReleaseStages = append([]string{}, c.NotifyReleaseStages...)
	}
	return c
}
