// Package flashtest provides a manually advanced Scheduler for tests.
package flashtest

import (
	"sort"
	"sync"
	"time"

	"github.com/okian/agora/internal/domain/flash"
)

// Scheduler fires callbacks only when Advance moves its clock past their
// deadline.
type Scheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*timer
}

type timer struct {
	s        *Scheduler
	deadline time.Duration
	f        func()
	done     bool
}

func (t *timer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// NewScheduler returns a scheduler at time zero.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// AfterFunc implements flash.Scheduler.
func (s *Scheduler) AfterFunc(d time.Duration, f func()) flash.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &timer{s: s, deadline: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward by d and runs due callbacks in deadline
// order on the calling goroutine.
func (s *Scheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*timer
	pending := s.timers[:0]
	for _, t := range s.timers {
		switch {
		case t.done:
		case t.deadline <= s.now:
			t.done = true
			due = append(due, t)
		default:
			pending = append(pending, t)
		}
	}
	s.timers = pending
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].deadline < due[j].deadline })
	for _, t := range due {
		t.f()
	}
}

// Pending returns the number of timers neither fired nor stopped.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.done {
			n++
		}
	}
	return n
}
