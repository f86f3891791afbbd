package flash

import (
	"time"

	"github.com/okian/agora/pkg/logger"
)

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithDuration sets how long a flash stays live.
func WithDuration(duration time.Duration) Option {
	return func(d *Detector) {
		if duration > 0 {
			d.duration = duration
		}
	}
}

// WithMinChangeThreshold sets the smallest |delta| that flashes. Zero lets
// every reported change flash, including neutral ones.
func WithMinChangeThreshold(threshold float64) Option {
	return func(d *Detector) {
		if threshold >= 0 {
			d.minChange = threshold
		}
	}
}

// WithHighIntensityThreshold sets the |delta| graded as high intensity.
func WithHighIntensityThreshold(threshold float64) Option {
	return func(d *Detector) {
		if threshold > 0 {
			d.highIntensity = threshold
		}
	}
}

// WithScheduler replaces time.AfterFunc for scheduling clears.
func WithScheduler(s Scheduler) Option {
	return func(d *Detector) {
		if s != nil {
			d.scheduler = s
		}
	}
}

// WithClock sets the clock used to timestamp flashes.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		if now != nil {
			d.now = now
		}
	}
}

// WithOnFlash registers a hook called after a flash starts.
func WithOnFlash(fn func(State)) Option {
	return func(d *Detector) { d.onFlash = fn }
}

// WithOnClear registers a hook called after a flash expires.
func WithOnClear(fn func(itemID string)) Option {
	return func(d *Detector) { d.onClear = fn }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.logger = l
		}
	}
}
