package subscription

import (
	"time"

	"github.com/okian/agora/internal/domain/flash"
	"github.com/okian/agora/internal/domain/model"
	"github.com/okian/agora/pkg/logger"
)

// Option applies a configuration option to the Coordinator.
type Option func(*Coordinator)

// WithFlashDetector sets the detector significant changes are routed to.
func WithFlashDetector(d *flash.Detector) Option {
	return func(c *Coordinator) {
		if d != nil {
			c.flash = d
		}
	}
}

// WithTicker sets the ticker driving polling.
func WithTicker(t Ticker) Option {
	return func(c *Coordinator) {
		if t != nil {
			c.ticker = t
		}
	}
}

// WithSource sets the function polled for the decision list.
func WithSource(s Source) Option {
	return func(c *Coordinator) { c.source = s }
}

// WithPollInterval sets the polling cadence.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Coordinator) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

// WithChangeThreshold sets the support shift, in points, that counts as a
// change.
func WithChangeThreshold(points int) Option {
	return func(c *Coordinator) {
		if points > 0 {
			c.changeThreshold = points
		}
	}
}

// WithClock sets the clock used to decide whether decisions are closed.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithOnNewDecision registers the callback for first-seen decisions.
func WithOnNewDecision(fn func(model.Decision)) Option {
	return func(c *Coordinator) { c.onNew = fn }
}

// WithOnDecisionChange registers the callback for significant changes.
func WithOnDecisionChange(fn func(Change)) Option {
	return func(c *Coordinator) { c.onChange = fn }
}

// WithOnDecisionClosed registers the callback for closed decisions.
func WithOnDecisionClosed(fn func(Closure)) Option {
	return func(c *Coordinator) { c.onClosed = fn }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}
