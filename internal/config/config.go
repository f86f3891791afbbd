// Package config defines service configuration and its loading.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches the log handler to JSON output.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// FlashDurationMS is how long a change flash stays active.
	FlashDurationMS int `koanf:"flash_duration_ms"`

	// MinChangeThreshold is the smallest support shift, in points, that
	// counts as a change and flashes.
	MinChangeThreshold float64 `koanf:"min_change_threshold"`

	// HighIntensityThreshold is the shift at which a flash is high intensity.
	HighIntensityThreshold float64 `koanf:"high_intensity_threshold"`

	// PollIntervalMS sets the decision polling cadence. Polling runs only
	// when a host embeds the service with a decision source; the agora
	// binary receives decisions by push and ignores it.
	PollIntervalMS int `koanf:"poll_interval_ms"`

	// ScoringWeights overrides feed factor weights by key: trending,
	// topic_relevance, freshness, quality, user_content.
	ScoringWeights map[string]float64 `koanf:"scoring_weights"`

	// MinReasonStrength drops feed items whose reason priority is lower.
	MinReasonStrength int `koanf:"min_reason_strength"`

	// QueueSize bounds the pushed update queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize sets how many update ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxFeedLimit caps POST /feed/rank?limit.
	MaxFeedLimit int `koanf:"max_feed_limit"`

	// ShutdownTimeoutMS bounds graceful shutdown.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		FlashDurationMS:        2000,
		MinChangeThreshold:     2,
		HighIntensityThreshold: 10,
		PollIntervalMS:         5000,
		ScoringWeights: map[string]float64{
			"trending":        35,
			"topic_relevance": 25,
			"freshness":       20,
			"quality":         15,
			"user_content":    5,
		},
		MinReasonStrength: 0,
		QueueSize:         1024,
		DedupeSize:        50_000,
		MaxFeedLimit:      100,
		ShutdownTimeoutMS: 10_000,
	}
}

// FlashDuration returns FlashDurationMS as a duration.
func (c *Config) FlashDuration() time.Duration {
	return time.Duration(c.FlashDurationMS) * time.Millisecond
}

// PollInterval returns PollIntervalMS as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// ShutdownTimeout returns ShutdownTimeoutMS as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.FlashDurationMS <= 0:
		return fmt.Errorf("%w: flash_duration_ms must be positive", ErrInvalidConfig)
	case c.PollIntervalMS <= 0:
		return fmt.Errorf("%w: poll_interval_ms must be positive", ErrInvalidConfig)
	case c.MinChangeThreshold <= 0:
		return fmt.Errorf("%w: min_change_threshold must be positive", ErrInvalidConfig)
	case c.HighIntensityThreshold <= 0:
		return fmt.Errorf("%w: high_intensity_threshold must be positive", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.MaxFeedLimit <= 0:
		return fmt.Errorf("%w: max_feed_limit must be positive", ErrInvalidConfig)
	case c.ShutdownTimeoutMS <= 0:
		return fmt.Errorf("%w: shutdown_timeout_ms must be positive", ErrInvalidConfig)
	}

	var sum float64
	for key, w := range c.ScoringWeights {
		if w < 0 {
			return fmt.Errorf("%w: scoring weight %q is negative", ErrInvalidConfig, key)
		}
		sum += w
	}
	if sum <= 0 {
		return fmt.Errorf("%w: scoring weights must sum to a positive value", ErrInvalidConfig)
	}
	return nil
}
