// Package worker applies queued decision updates to the tracking engine.
//
// A single worker owns the engine's mutable state, so updates are applied
// strictly in arrival order.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/agora/internal/adapters/mq/queue"
	"github.com/okian/agora/pkg/logger"
	"github.com/okian/agora/pkg/metrics"
)

// Update abstracts what the worker reads off the queue.
type Update = queue.Update

// Applier applies one update to the engine.
type Applier interface {
	Apply(ctx context.Context, u Update) error
}

// ApplierFunc adapts a function to Applier.
type ApplierFunc func(ctx context.Context, u Update) error

// Apply calls f(ctx, u).
func (f ApplierFunc) Apply(ctx context.Context, u Update) error { //nolint:gocritic // hugeParam: Update is passed by value for channel semantics
	return f(ctx, u)
}

// Queue defines how the worker receives updates.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Update
}

// Worker processes updates using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown closes the queue when it can, waits for buffered updates to
	// be applied, and returns once the loop exits or ctx expires.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	applier Applier
	name    string

	done chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, applier Applier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:   q,
		applier: applier,
		name:    "worker",
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	updates := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := w.process(ctx, u); err != nil {
				w.logger.Error(ctx, "error applying update", logger.Error(err))
			}
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	if closer, ok := w.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			w.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, u Update) error { //nolint:gocritic // hugeParam: Update is passed by value for channel semantics
	start := time.Now()
	if err := w.applier.Apply(ctx, u); err != nil {
		metrics.RecordUpdateApplyFailure()
		return fmt.Errorf("apply update %s: %w", u.ID, err)
	}
	metrics.RecordUpdateApplied()
	w.logger.Debug(ctx, "update applied",
		logger.String("update_id", u.ID),
		logger.Int("decisions", len(u.Decisions)),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}
