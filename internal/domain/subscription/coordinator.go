// Package subscription coordinates live decision tracking: it diffs each
// observed decision list against the previous one and raises lifecycle
// callbacks exactly once per transition.
package subscription

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/agora/internal/domain/flash"
	"github.com/okian/agora/internal/domain/model"
	"github.com/okian/agora/internal/domain/status"
	"github.com/okian/agora/internal/domain/trend"
	"github.com/okian/agora/pkg/logger"
	"github.com/okian/agora/pkg/metrics"
)

// Default coordinator configuration.
const (
	DefaultPollInterval    = 5000 * time.Millisecond
	DefaultChangeThreshold = 2
)

// Event kinds, used as metric labels.
const (
	KindNew    = "new"
	KindChange = "change"
	KindClosed = "closed"
)

// CloseReason explains a closed event.
type CloseReason string

// Close reasons.
const (
	ClosedDeadline CloseReason = "deadline"
	ClosedRemoved  CloseReason = "removed"
)

// Change describes a significant support shift between two evaluations.
type Change struct {
	ID       string         `json:"id"`
	Decision model.Decision `json:"decision"`
	Previous int            `json:"previous"`
	Current  int            `json:"current"`
	Delta    int            `json:"delta"`
}

// Closure describes a decision that closed or disappeared.
type Closure struct {
	ID       string         `json:"id"`
	Decision model.Decision `json:"decision"`
	Reason   CloseReason    `json:"reason"`
}

// Events collects everything one evaluation emitted.
type Events struct {
	New     []model.Decision `json:"new"`
	Changed []Change         `json:"changed"`
	Closed  []Closure        `json:"closed"`
}

// Empty reports whether no event was emitted.
func (e *Events) Empty() bool {
	return len(e.New) == 0 && len(e.Changed) == 0 && len(e.Closed) == 0
}

// Source supplies the current decision list on each poll.
type Source func(ctx context.Context) ([]model.Decision, error)

// tracked is the per-decision record kept between evaluations.
type tracked struct {
	decision model.Decision
	support  int
	closed   bool
}

type snapshot map[string]tracked

// Coordinator owns the previous-evaluation snapshot and a flash detector.
// Evaluations are serialized; callbacks run on the evaluating goroutine
// and must not call Evaluate.
type Coordinator struct {
	mu       sync.Mutex
	snapshot atomic.Pointer[snapshot]

	flash           *flash.Detector
	ticker          Ticker
	source          Source
	interval        time.Duration
	changeThreshold int
	now             func() time.Time

	onNew    func(model.Decision)
	onChange func(Change)
	onClosed func(Closure)

	runMu   sync.Mutex
	started bool
	closed  bool

	logger logger.Logger
}

// New creates a Coordinator with configuration options.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		interval:        DefaultPollInterval,
		changeThreshold: DefaultChangeThreshold,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Named("coordinator")
	}
	if c.flash == nil {
		c.flash = flash.New(flash.WithLogger(c.logger))
	}
	if c.ticker == nil {
		c.ticker = NewTimeTicker()
	}
	empty := snapshot{}
	c.snapshot.Store(&empty)
	return c
}

// Flash returns the detector fed by this coordinator.
func (c *Coordinator) Flash() *flash.Detector {
	return c.flash
}

// Evaluate diffs decisions against the previous evaluation, routes
// significant support changes to the flash detector, fires callbacks and
// replaces the snapshot as a whole.
func (c *Coordinator) Evaluate(ctx context.Context, decisions []model.Decision) Events {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	now := c.now()
	prev := *c.snapshot.Load()
	next := make(snapshot, len(decisions))

	var ev Events
	for i := range decisions {
		d := decisions[i]
		if _, dup := next[d.ID]; dup {
			c.logger.Warn(ctx, "duplicate decision id in evaluation", logger.String("id", d.ID))
			continue
		}
		cur := tracked{
			decision: d,
			support:  trend.SupportPercentage(d.Tally),
			closed:   status.IsClosed(now, d.EndsAt),
		}
		next[d.ID] = cur

		old, seen := prev[d.ID]
		if !seen {
			ev.New = append(ev.New, d)
			continue
		}
		if delta := cur.support - old.support; abs(delta) >= c.changeThreshold {
			ev.Changed = append(ev.Changed, Change{
				ID:       d.ID,
				Decision: d,
				Previous: old.support,
				Current:  cur.support,
				Delta:    delta,
			})
			c.flash.Trigger(d.ID, float64(delta))
		}
		if !old.closed && cur.closed {
			ev.Closed = append(ev.Closed, Closure{ID: d.ID, Decision: d, Reason: ClosedDeadline})
		}
	}

	removed := make([]string, 0)
	for id, old := range prev {
		if _, ok := next[id]; ok || old.closed {
			continue
		}
		removed = append(removed, id)
	}
	sort.Strings(removed)
	for _, id := range removed {
		ev.Closed = append(ev.Closed, Closure{ID: id, Decision: prev[id].decision, Reason: ClosedRemoved})
	}

	c.snapshot.Store(&next)

	c.dispatch(ctx, &ev)
	metrics.RecordEvaluation(len(next), float64(time.Since(start).Microseconds())/1000)
	return ev
}

func (c *Coordinator) dispatch(ctx context.Context, ev *Events) {
	for _, d := range ev.New {
		metrics.RecordLifecycleEvent(KindNew)
		c.logger.Debug(ctx, "new decision", logger.String("id", d.ID))
		if c.onNew != nil {
			c.onNew(d)
		}
	}
	for _, ch := range ev.Changed {
		metrics.RecordLifecycleEvent(KindChange)
		c.logger.Debug(ctx, "decision changed",
			logger.String("id", ch.ID),
			logger.Int("delta", ch.Delta),
		)
		if c.onChange != nil {
			c.onChange(ch)
		}
	}
	for _, cl := range ev.Closed {
		metrics.RecordLifecycleEvent(KindClosed)
		c.logger.Debug(ctx, "decision closed",
			logger.String("id", cl.ID),
			logger.String("reason", string(cl.Reason)),
		)
		if c.onClosed != nil {
			c.onClosed(cl)
		}
	}
}

// Tracked returns the ids in the current snapshot, sorted.
func (c *Coordinator) Tracked() []string {
	snap := *c.snapshot.Load()
	ids := make([]string, 0, len(snap))
	for id := range snap {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Start polls the source once and then on every tick until Stop.
func (c *Coordinator) Start(ctx context.Context) error {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	switch {
	case c.closed:
		return ErrClosed
	case c.started:
		return ErrAlreadyStarted
	case c.source == nil:
		return ErrNoSource
	}

	c.poll(ctx)
	c.ticker.Start(func() { c.poll(ctx) }, c.interval)
	c.started = true
	c.logger.Info(ctx, "decision polling started", logger.Duration("interval", c.interval))
	return nil
}

func (c *Coordinator) poll(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	metrics.RecordPollTick()
	decisions, err := c.source(ctx)
	if err != nil {
		c.logger.Warn(ctx, "decision source failed", logger.Error(err))
		return
	}
	c.Evaluate(ctx, decisions)
}

// Stop halts polling and clears every pending flash. The snapshot is kept
// so a restart does not re-announce known decisions.
func (c *Coordinator) Stop() {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if c.started {
		c.ticker.Stop()
		c.started = false
		c.logger.Info(context.Background(), "decision polling stopped")
	}
	c.flash.ClearAll()
}

// Close stops the coordinator and disposes its flash detector.
func (c *Coordinator) Close() error {
	c.Stop()

	c.runMu.Lock()
	c.closed = true
	c.runMu.Unlock()

	c.flash.Dispose()
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
