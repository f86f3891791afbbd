package subscription

import (
	"sync"
	"time"
)

// Ticker drives a repeating callback. Implementations must make Stop
// idempotent and must not invoke the callback after Stop returns.
type Ticker interface {
	Start(callback func(), interval time.Duration)
	Stop()
}

// TimeTicker is a Ticker backed by time.Ticker.
type TimeTicker struct {
	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewTimeTicker returns a stopped TimeTicker.
func NewTimeTicker() *TimeTicker {
	return &TimeTicker{}
}

// Start begins calling callback every interval. A running ticker is
// restarted with the new callback.
func (t *TimeTicker) Start(callback func(), interval time.Duration) {
	t.Stop()

	t.mu.Lock()
	defer t.mu.Unlock()
	stop := make(chan struct{})
	done := make(chan struct{})
	t.stop, t.done = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				callback()
			}
		}
	}()
}

// Stop halts the ticker and waits for an in-flight callback to return.
func (t *TimeTicker) Stop() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}
