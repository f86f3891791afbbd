// Package status derives the live status of a decision from its end time.
//
// All functions are pure; the caller supplies the wall-clock "now".
package status

import (
	"fmt"
	"time"

	"github.com/okian/agora/internal/domain/model"
)

// Status is the discrete live state of a decision.
type Status string

// Time-bucket statuses, from furthest to nearest the end.
const (
	StatusOpen         Status = "open"
	StatusClosingSoon  Status = "closing_soon"
	StatusLastHour     Status = "last_hour"
	StatusFinalMinutes Status = "final_minutes"
)

// Terminal statuses.
const (
	StatusClosed  Status = "closed"
	StatusPassed  Status = Status(model.ResultPassed)
	StatusFailed  Status = Status(model.ResultFailed)
	StatusTied    Status = Status(model.ResultTied)
	StatusElected Status = Status(model.ResultElected)
)

// IsTerminal reports whether s is a post-deadline status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusClosed, StatusPassed, StatusFailed, StatusTied, StatusElected:
		return true
	default:
		return false
	}
}

func (s Status) String() string { return string(s) }

// bucket maps an upper bound on remaining time to a status.
type bucket struct {
	upTo   time.Duration
	status Status
}

// buckets is the single threshold table shared by Resolve and the
// predicates. Ordered by ascending upper bound.
var buckets = [...]bucket{ //nolint:gochecknoglobals // immutable lookup table
	{upTo: 15 * time.Minute, status: StatusFinalMinutes},
	{upTo: time.Hour, status: StatusLastHour},
	{upTo: 24 * time.Hour, status: StatusClosingSoon},
}

// windowOf returns the upper bound of the bucket for s.
func windowOf(s Status) time.Duration {
	for _, b := range buckets {
		if b.status == s {
			return b.upTo
		}
	}
	panic(fmt.Sprintf("status: no bucket for %q", s))
}

// Remaining returns the time left until endsAt, clamped at zero.
func Remaining(now, endsAt time.Time) time.Duration {
	d := endsAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Resolve maps a decision's end time and optional result to a status.
func Resolve(now, endsAt time.Time, result model.Result) Status {
	remaining := endsAt.Sub(now)
	if remaining <= 0 {
		if result != model.ResultNone {
			return Status(result)
		}
		return StatusClosed
	}
	for _, b := range buckets {
		if remaining <= b.upTo {
			return b.status
		}
	}
	return StatusOpen
}

// IsClosed reports whether no time remains.
func IsClosed(now, endsAt time.Time) bool {
	return endsAt.Sub(now) <= 0
}

// IsUrgent reports whether remaining time is within (0, 1h].
func IsUrgent(now, endsAt time.Time) bool {
	return within(now, endsAt, windowOf(StatusLastHour))
}

// IsClosingSoon reports whether remaining time is within (0, 24h].
func IsClosingSoon(now, endsAt time.Time) bool {
	return within(now, endsAt, windowOf(StatusClosingSoon))
}

func within(now, endsAt time.Time, window time.Duration) bool {
	remaining := endsAt.Sub(now)
	return remaining > 0 && remaining <= window
}

// Derived bundles the status fields computed for one decision.
type Derived struct {
	ID            string        `json:"id"`
	Status        Status        `json:"status"`
	IsClosed      bool          `json:"is_closed"`
	IsClosingSoon bool          `json:"is_closing_soon"`
	IsUrgent      bool          `json:"is_urgent"`
	Remaining     time.Duration `json:"remaining"`
}

// Derive computes the status fields for d at now.
func Derive(now time.Time, d *model.Decision) Derived {
	return Derived{
		ID:            d.ID,
		Status:        Resolve(now, d.EndsAt, d.Result),
		IsClosed:      IsClosed(now, d.EndsAt),
		IsClosingSoon: IsClosingSoon(now, d.EndsAt),
		IsUrgent:      IsUrgent(now, d.EndsAt),
		Remaining:     Remaining(now, d.EndsAt),
	}
}
