// Package trend computes support trends and volatility from vote tallies.
package trend

import (
	"math"

	"github.com/okian/agora/internal/domain/model"
)

// Direction classifies a trend.
type Direction string

// Trend directions. Volatile marks an unstable history rather than a
// specific direction.
const (
	DirectionUp       Direction = "up"
	DirectionDown     Direction = "down"
	DirectionStable   Direction = "stable"
	DirectionVolatile Direction = "volatile"
)

const (
	// deadBand suppresses flicker from rounding noise: shifts smaller than
	// one percentage point are stable.
	deadBand = 1

	// minVolatileSnapshots is the shortest history that can be volatile.
	minVolatileSnapshots = 3

	// volatileReversals is the reversal count at which history is volatile.
	volatileReversals = 2
)

// Trend is a signed shift in support share, in whole percentage points.
type Trend struct {
	Direction  Direction `json:"direction"`
	Percentage int       `json:"percentage"`
}

// Stable is the neutral trend.
var Stable = Trend{Direction: DirectionStable} //nolint:gochecknoglobals // value constant

// share returns support/total, or false when total is zero.
func share(t model.Tally) (float64, bool) {
	total := t.Total()
	if total == 0 {
		return 0, false
	}
	return float64(t.Support) / float64(total), true
}

// Calculate compares current against previous. A nil previous or a zero
// total on either side yields a stable trend.
func Calculate(current model.Tally, previous *model.Tally) Trend {
	if previous == nil {
		return Stable
	}
	cur, ok := share(current)
	if !ok {
		return Stable
	}
	prev, ok := share(*previous)
	if !ok {
		return Stable
	}

	pct := int(math.Round(cur*100 - prev*100))
	return Trend{Direction: directionOf(pct), Percentage: pct}
}

func directionOf(pct int) Direction {
	switch {
	case abs(pct) < deadBand:
		return DirectionStable
	case pct > 0:
		return DirectionUp
	default:
		return DirectionDown
	}
}

// Reversals counts direction changes across consecutive snapshots. Stable
// steps are skipped; each non-stable step that differs from the last
// non-stable step counts once.
func Reversals(history []model.Tally) int {
	var (
		count int
		last  Direction
	)
	for i := 1; i < len(history); i++ {
		d := Calculate(history[i], &history[i-1]).Direction
		if d == DirectionStable {
			continue
		}
		if last != "" && d != last {
			count++
		}
		last = d
	}
	return count
}

// IsVolatile reports whether history (oldest first) reversed direction at
// least twice. Fewer than three snapshots are never volatile.
func IsVolatile(history []model.Tally) bool {
	if len(history) < minVolatileSnapshots {
		return false
	}
	return Reversals(history) >= volatileReversals
}

// WithHistory returns the trend to display for current given its history
// (oldest first). A volatile history reports the bulk change from the
// oldest snapshot with DirectionVolatile; otherwise current is compared with
// the most recent snapshot.
func WithHistory(current model.Tally, history []model.Tally) Trend {
	if len(history) == 0 {
		return Stable
	}
	if IsVolatile(history) {
		bulk := Calculate(current, &history[0])
		return Trend{Direction: DirectionVolatile, Percentage: bulk.Percentage}
	}
	return Calculate(current, &history[len(history)-1])
}

// ForDecision derives the display trend from a decision's own snapshots.
func ForDecision(d *model.Decision) Trend {
	return WithHistory(d.Tally, d.History())
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
