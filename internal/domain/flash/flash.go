// Package flash tracks transient "flash" states raised when a tracked value
// changes significantly. Each item id has at most one live flash; a flash
// clears itself after the configured duration and a new qualifying change
// restarts that countdown.
package flash

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/okian/agora/pkg/logger"
	"github.com/okian/agora/pkg/metrics"
)

// Default detector configuration.
const (
	DefaultDuration               = 2000 * time.Millisecond
	DefaultMinChangeThreshold     = 2.0
	DefaultHighIntensityThreshold = 10.0
)

// Type is the direction of the change that raised a flash.
type Type string

// Flash types.
const (
	TypeUp      Type = "up"
	TypeDown    Type = "down"
	TypeNeutral Type = "neutral"
)

// Intensity grades the size of the change.
type Intensity string

// Flash intensities.
const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

// State is a live flash for one item.
type State struct {
	ItemID    string    `json:"item_id"`
	Type      Type      `json:"type"`
	Intensity Intensity `json:"intensity"`
	Delta     float64   `json:"delta"`
	Timestamp time.Time `json:"timestamp"`
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// entry pairs a live state with its pending clear. gen identifies the
// trigger that scheduled the clear so a superseded callback is a no-op.
type entry struct {
	state State
	timer Timer
	gen   uint64
}

// Detector owns the flash map for one consumer. It is safe for concurrent
// use; timer callbacks run on their own goroutines.
type Detector struct {
	mu       sync.Mutex
	entries  map[string]*entry
	last     map[string]float64
	gen      uint64
	disposed bool

	duration      time.Duration
	minChange     float64
	highIntensity float64

	scheduler Scheduler
	now       func() time.Time
	onFlash   func(State)
	onClear   func(itemID string)

	logger logger.Logger
}

// New creates a Detector with configuration options.
func New(opts ...Option) *Detector {
	d := &Detector{
		entries:       make(map[string]*entry),
		last:          make(map[string]float64),
		duration:      DefaultDuration,
		minChange:     DefaultMinChangeThreshold,
		highIntensity: DefaultHighIntensityThreshold,
		scheduler:     timeScheduler{},
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logger.Named("flash")
	}
	return d
}

// Classify returns the type and intensity a change of delta would flash
// with. ok is false when delta is below the minimum change threshold.
func (d *Detector) Classify(delta float64) (Type, Intensity, bool) {
	size := math.Abs(delta)
	if size < d.minChange {
		return "", "", false
	}

	t := TypeNeutral
	switch {
	case delta > 0:
		t = TypeUp
	case delta < 0:
		t = TypeDown
	}

	i := IntensityLow
	switch {
	case size >= d.highIntensity:
		i = IntensityHigh
	case size >= 2*d.minChange:
		i = IntensityMedium
	}
	return t, i, true
}

// Trigger reports a change of delta for itemID. It returns true when the
// change was large enough to (re)start a flash.
func (d *Detector) Trigger(itemID string, delta float64) bool {
	t, i, ok := d.Classify(delta)
	if !ok {
		return false
	}

	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return false
	}
	if old, exists := d.entries[itemID]; exists {
		old.timer.Stop()
	}
	d.gen++
	gen := d.gen
	st := State{ItemID: itemID, Type: t, Intensity: i, Delta: delta, Timestamp: d.now()}
	d.entries[itemID] = &entry{
		state: st,
		gen:   gen,
		timer: d.scheduler.AfterFunc(d.duration, func() { d.expire(itemID, gen) }),
	}
	active := len(d.entries)
	onFlash := d.onFlash
	d.mu.Unlock()

	metrics.RecordFlashTriggered(string(t), string(i))
	metrics.UpdateFlashActive(active)
	if onFlash != nil {
		onFlash(st)
	}
	return true
}

// expire clears itemID if gen is still the live trigger.
func (d *Detector) expire(itemID string, gen uint64) {
	d.mu.Lock()
	e, ok := d.entries[itemID]
	if !ok || e.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.entries, itemID)
	active := len(d.entries)
	onClear := d.onClear
	d.mu.Unlock()

	metrics.RecordFlashCleared()
	metrics.UpdateFlashActive(active)
	if onClear != nil {
		onClear(itemID)
	}
}

// Observe diffs values against the values seen on the previous call and
// triggers for every item whose change qualifies. Items seen for the first
// time only establish a baseline. Returns the flashes started, by item id.
func (d *Detector) Observe(values map[string]float64) []State {
	d.mu.Lock()
	prev := d.last
	next := make(map[string]float64, len(values))
	for id, v := range values {
		next[id] = v
	}
	d.last = next
	d.mu.Unlock()

	ids := make([]string, 0, len(values))
	for id := range values {
		if _, seen := prev[id]; seen {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var started []State
	for _, id := range ids {
		if d.Trigger(id, values[id]-prev[id]) {
			if st, ok := d.Get(id); ok {
				started = append(started, st)
			}
		}
	}
	return started
}

// IsFlashing reports whether itemID has a live flash.
func (d *Detector) IsFlashing(itemID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.entries[itemID]
	return ok
}

// Get returns the live flash for itemID.
func (d *Detector) Get(itemID string) (State, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.entries[itemID]
	if !ok {
		return State{}, false
	}
	return e.state, true
}

// Active returns all live flashes ordered by item id.
func (d *Detector) Active() []State {
	d.mu.Lock()
	out := make([]State, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e.state)
	}
	d.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

// ClearAll cancels every pending clear and drops all live flashes.
func (d *Detector) ClearAll() {
	d.mu.Lock()
	for id, e := range d.entries {
		e.timer.Stop()
		delete(d.entries, id)
	}
	d.mu.Unlock()
	metrics.UpdateFlashActive(0)
}

// Dispose clears all flashes and rejects further triggers.
func (d *Detector) Dispose() {
	d.mu.Lock()
	d.disposed = true
	d.last = make(map[string]float64)
	d.mu.Unlock()
	d.ClearAll()
	d.logger.Debug(context.Background(), "flash detector disposed")
}
