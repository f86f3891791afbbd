// Package service wires the decision tracking and feed ranking engine into
// the operations the HTTP API exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	updatequeue "github.com/okian/agora/internal/adapters/mq/queue"
	"github.com/okian/agora/internal/adapters/mq/worker"
	"github.com/okian/agora/internal/domain/dedupe"
	"github.com/okian/agora/internal/domain/flash"
	"github.com/okian/agora/internal/domain/model"
	"github.com/okian/agora/internal/domain/reason"
	"github.com/okian/agora/internal/domain/scoring"
	"github.com/okian/agora/internal/domain/subscription"
	"github.com/okian/agora/internal/domain/trend"
	"github.com/okian/agora/pkg/logger"
	"github.com/okian/agora/pkg/metrics"
)

// Service implements the API dependencies for the engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	coordinator *subscription.Coordinator
	scorer      *scoring.Scorer
	deduper     dedupe.Deduper
	queue       *updatequeue.InMemoryQueue
	worker      *worker.InMemoryWorker

	// Configuration
	queueSize              int
	dedupeSize             int
	flashDuration          time.Duration
	minChangeThreshold     float64
	highIntensityThreshold float64
	pollInterval           time.Duration
	scoringWeights         map[string]float64
	minReasonStrength      int
	maxFeedLimit           int
	quorum                 int
	now                    func() time.Time
	source                 subscription.Source
	ticker                 subscription.Ticker
	scheduler              flash.Scheduler

	// State
	started bool
	stopped bool
	polling bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueueSize sets the capacity of the pushed update queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many update ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		s.dedupeSize = size
	}
}

// WithFlashDuration sets how long a change flash lasts.
func WithFlashDuration(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.flashDuration = d
		}
	}
}

// WithChangeThresholds sets the minimum and high intensity change thresholds.
func WithChangeThresholds(minChange, highIntensity float64) Option {
	return func(s *Service) {
		if minChange > 0 {
			s.minChangeThreshold = minChange
		}
		if highIntensity > 0 {
			s.highIntensityThreshold = highIntensity
		}
	}
}

// WithPollInterval sets the decision polling cadence.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithScoringWeights overrides feed factor weights by key.
func WithScoringWeights(weights map[string]float64) Option {
	return func(s *Service) {
		s.scoringWeights = weights
	}
}

// WithMinReasonStrength sets the default minimum reason priority for feeds.
func WithMinReasonStrength(priority int) Option {
	return func(s *Service) {
		if priority >= 0 {
			s.minReasonStrength = priority
		}
	}
}

// WithMaxFeedLimit caps the number of ranked items returned.
func WithMaxFeedLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxFeedLimit = limit
		}
	}
}

// WithQuorum sets the turnout percentage that reaches quorum.
func WithQuorum(percent int) Option {
	return func(s *Service) {
		if percent > 0 {
			s.quorum = percent
		}
	}
}

// WithClock sets the clock used for status and freshness.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDecisionSource enables polling of src once the service starts.
func WithDecisionSource(src subscription.Source) Option {
	return func(s *Service) { s.source = src }
}

// WithTicker sets the ticker driving decision polling.
func WithTicker(t subscription.Ticker) Option {
	return func(s *Service) { s.ticker = t }
}

// WithFlashScheduler sets the scheduler for flash expiry.
func WithFlashScheduler(sched flash.Scheduler) Option {
	return func(s *Service) { s.scheduler = sched }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Components are built immediately; Start only
// launches background work.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:              updatequeue.DefaultCapacity,
		dedupeSize:             dedupe.DefaultMaxSize,
		flashDuration:          flash.DefaultDuration,
		minChangeThreshold:     flash.DefaultMinChangeThreshold,
		highIntensityThreshold: flash.DefaultHighIntensityThreshold,
		pollInterval:           subscription.DefaultPollInterval,
		maxFeedLimit:           100,
		quorum:                 trend.DefaultQuorum,
		now:                    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	detector := flash.New(
		flash.WithDuration(s.flashDuration),
		flash.WithMinChangeThreshold(s.minChangeThreshold),
		flash.WithHighIntensityThreshold(s.highIntensityThreshold),
		flash.WithScheduler(s.scheduler),
		flash.WithClock(s.now),
		flash.WithLogger(s.logger.Named("flash")),
	)
	coordOpts := []subscription.Option{
		subscription.WithFlashDetector(detector),
		subscription.WithSource(s.source),
		subscription.WithPollInterval(s.pollInterval),
		subscription.WithChangeThreshold(int(s.minChangeThreshold + 0.5)),
		subscription.WithClock(s.now),
		subscription.WithLogger(s.logger.Named("coordinator")),
	}
	if s.ticker != nil {
		coordOpts = append(coordOpts, subscription.WithTicker(s.ticker))
	}
	s.coordinator = subscription.New(coordOpts...)

	s.scorer = scoring.New(
		scoring.WithWeightsFromConfig(s.scoringWeights),
		scoring.WithNow(s.now),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = updatequeue.NewInMemoryQueue(updatequeue.WithCapacity(s.queueSize))
	s.worker = worker.NewInMemoryWorker(
		s.queue,
		worker.ApplierFunc(s.apply),
		worker.WithLogger(s.logger.Named("worker")),
	)
	return s
}

// Start launches the update worker and, when a source is configured,
// decision polling. A stopped service cannot be restarted.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.stopped {
		return ErrStopped
	}
	s.logger.Info(ctx, "starting engine service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.worker.Run(runCtx)

	if s.source != nil {
		if err := s.coordinator.Start(runCtx); err != nil {
			cancel()
			return fmt.Errorf("start polling: %w", err)
		}
		s.polling = true
	}

	s.started = true
	s.logger.Info(ctx, "engine service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("polling", s.polling),
	)
	return nil
}

// Stop halts polling, drains queued updates and releases every flash timer.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping engine service...")

	s.coordinator.Stop()
	s.polling = false

	err := s.worker.Shutdown(ctx)
	s.cancel()
	_ = s.coordinator.Close()

	s.started = false
	s.stopped = true
	s.logger.Info(ctx, "engine service stopped")
	return err
}

// apply evaluates one queued update; it runs on the worker goroutine.
func (s *Service) apply(ctx context.Context, u model.Update) error { //nolint:gocritic // hugeParam: Update is passed by value for channel semantics
	s.coordinator.Evaluate(ctx, u.Decisions)
	return nil
}

// PushUpdate queues a full decision list for asynchronous evaluation.
// Updates are deduplicated by id; a missing id is generated.
func (s *Service) PushUpdate(ctx context.Context, u model.Update) (PushResult, error) { //nolint:gocritic // hugeParam: Update is passed by value for channel semantics
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return PushResult{}, ErrNotStarted
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.ReceivedAt.IsZero() {
		u.ReceivedAt = s.now()
	}

	if s.deduper.SeenAndRecord(ctx, u.ID) {
		metrics.RecordUpdateDuplicate()
		s.logger.Debug(ctx, "duplicate update skipped", logger.String("update_id", u.ID))
		return PushResult{ID: u.ID, Duplicate: true}, nil
	}

	if err := s.queue.Enqueue(ctx, u); err != nil {
		s.deduper.Unrecord(ctx, u.ID)
		if errors.Is(err, updatequeue.ErrQueueFull) {
			return PushResult{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return PushResult{}, err
	}
	return PushResult{ID: u.ID}, nil
}

// EvaluateDecisions synchronously evaluates decisions and returns their
// derived views together with the lifecycle events raised.
func (s *Service) EvaluateDecisions(ctx context.Context, decisions []model.Decision) Evaluation {
	events := s.coordinator.Evaluate(ctx, decisions)
	now := s.now()
	views := make([]DecisionView, len(decisions))
	for i := range decisions {
		views[i] = s.view(now, &decisions[i])
	}
	return Evaluation{Decisions: views, Events: events}
}

// FlashState returns the active flash for id, if any.
func (s *Service) FlashState(id string) (flash.State, bool) {
	return s.coordinator.Flash().Get(id)
}

// ActiveFlashes returns every active flash ordered by id.
func (s *Service) ActiveFlashes() []flash.State {
	return s.coordinator.Flash().Active()
}

// RankFeed filters items by reason strength, scores and sorts them,
// optionally applies the diversity penalty, and caps the result.
func (s *Service) RankFeed(ctx context.Context, req FeedRequest) (Feed, error) { //nolint:gocritic // hugeParam: request is a value object
	if req.Limit < 0 {
		return Feed{}, fmt.Errorf("%w: limit must not be negative", ErrBadRequest)
	}
	limit := req.Limit
	if limit == 0 || limit > s.maxFeedLimit {
		limit = s.maxFeedLimit
	}
	minReason := s.minReasonStrength
	if req.MinReason != nil {
		minReason = *req.MinReason
	}

	start := time.Now()
	items := reason.FilterByReasonStrength(req.Items, req.User, minReason)
	filtered := len(req.Items) - len(items)

	scored := s.scorer.ScoreAndSort(items, req.User)
	if req.Diversity {
		scored = scoring.ApplyDiversityPenalty(scored)
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}

	out := make([]FeedItem, len(scored))
	for i, sc := range scored {
		r := reason.Attribute(sc.Content, req.User)
		out[i] = FeedItem{ScoredContent: sc, Reason: r, Label: r.Category.Label()}
		metrics.RecordReason(string(r.Category))
	}

	metrics.RecordItemsScored(len(items), float64(time.Since(start).Microseconds())/1000)
	metrics.RecordReasonFiltered(filtered)
	metrics.RecordFeedRanked()
	s.logger.Debug(ctx, "feed ranked",
		logger.Int("items", len(req.Items)),
		logger.Int("filtered", filtered),
		logger.Int("returned", len(out)),
	)
	return Feed{Items: out, Filtered: filtered}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	queueLen := s.queue.Len()
	active := len(s.coordinator.Flash().Active())
	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateFlashActive(active)

	return Stats{
		Started:       s.started,
		Polling:       s.polling,
		Tracked:       s.coordinator.Tracked(),
		ActiveFlashes: active,
		QueueLength:   queueLen,
		QueueCapacity: s.queue.Cap(),
		DedupeSize:    s.deduper.Size(),
	}
}
