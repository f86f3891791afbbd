// Package metrics provides Prometheus metrics for the Agora engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector used by the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Decision tracking
	decisionsEvaluated  prometheus.Counter
	decisionsTracked    prometheus.Gauge
	evaluationLatency   prometheus.Histogram
	lifecycleEvents     *prometheus.CounterVec
	flashTriggered      *prometheus.CounterVec
	flashCleared        prometheus.Counter
	flashActive         prometheus.Gauge
	pollTicks           prometheus.Counter
	updatesApplied      prometheus.Counter
	updatesDuplicate    prometheus.Counter
	updateApplyFailures prometheus.Counter

	// Feed ranking
	itemsScored      prometheus.Counter
	scoringLatency   prometheus.Histogram
	feedsRanked      prometheus.Counter
	reasonCategories *prometheus.CounterVec
	reasonFiltered   prometheus.Counter

	// Update queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "agora",
		subsystem:        "engine",
		histogramBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.decisionsEvaluated = m.counter("decisions_evaluated_total", "Total number of decision list evaluations")
	m.decisionsTracked = m.gauge("decisions_tracked", "Decisions present in the latest snapshot")
	m.evaluationLatency = m.histogram("evaluation_latency_milliseconds", "Latency of one coordinator evaluation in milliseconds")
	m.lifecycleEvents = m.counterVec("lifecycle_events_total", "Lifecycle events emitted by the coordinator", "kind")
	m.flashTriggered = m.counterVec("flash_triggered_total", "Flashes triggered by significant changes", "type", "intensity")
	m.flashCleared = m.counter("flash_cleared_total", "Flashes cleared after their duration elapsed")
	m.flashActive = m.gauge("flash_active", "Items currently flashing")
	m.pollTicks = m.counter("poll_ticks_total", "Polling ticks handled by the coordinator")
	m.updatesApplied = m.counter("updates_applied_total", "Pushed decision updates applied")
	m.updatesDuplicate = m.counter("updates_duplicate_total", "Pushed decision updates dropped as duplicates")
	m.updateApplyFailures = m.counter("update_apply_failures_total", "Pushed decision updates that failed to apply")

	m.itemsScored = m.counter("feed_items_scored_total", "Content items scored")
	m.scoringLatency = m.histogram("feed_scoring_latency_milliseconds", "Latency of one scoring pass in milliseconds")
	m.feedsRanked = m.counter("feeds_ranked_total", "Feed ranking requests served")
	m.reasonCategories = m.counterVec("feed_reasons_total", "Winning feed reasons by category", "category")
	m.reasonFiltered = m.counter("feed_reason_filtered_total", "Items dropped by the minimum reason strength")

	m.queueSize = m.gauge("queue_size", "Current size of the update queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum update queue capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Updates enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Updates dequeued")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total", "Enqueue failures by reason", "reason")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.httpErrors = m.counterVec("http_errors_total", "HTTP errors by endpoint and type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordEvaluation records one coordinator evaluation over tracked decisions.
func RecordEvaluation(tracked int, latencyMs float64) {
	globalManager.decisionsEvaluated.Inc()
	globalManager.decisionsTracked.Set(float64(tracked))
	globalManager.evaluationLatency.Observe(latencyMs)
}

// RecordLifecycleEvent counts a new, change or closed event.
func RecordLifecycleEvent(kind string) {
	globalManager.lifecycleEvents.WithLabelValues(kind).Inc()
}

// RecordFlashTriggered counts a flash by type and intensity.
func RecordFlashTriggered(flashType, intensity string) {
	globalManager.flashTriggered.WithLabelValues(flashType, intensity).Inc()
}

// RecordFlashCleared counts a flash that expired.
func RecordFlashCleared() {
	globalManager.flashCleared.Inc()
}

// UpdateFlashActive sets the number of live flashes.
func UpdateFlashActive(count int) {
	globalManager.flashActive.Set(float64(count))
}

// RecordPollTick counts a polling tick.
func RecordPollTick() {
	globalManager.pollTicks.Inc()
}

// RecordUpdateApplied counts a pushed update applied to the coordinator.
func RecordUpdateApplied() {
	globalManager.updatesApplied.Inc()
}

// RecordUpdateDuplicate counts a redelivered update.
func RecordUpdateDuplicate() {
	globalManager.updatesDuplicate.Inc()
}

// RecordUpdateApplyFailure counts an update the worker could not apply.
func RecordUpdateApplyFailure() {
	globalManager.updateApplyFailures.Inc()
}

// RecordItemsScored records a scoring pass over count items.
func RecordItemsScored(count int, latencyMs float64) {
	globalManager.itemsScored.Add(float64(count))
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordFeedRanked counts a served feed.
func RecordFeedRanked() {
	globalManager.feedsRanked.Inc()
}

// RecordReason counts a winning reason category.
func RecordReason(category string) {
	globalManager.reasonCategories.WithLabelValues(category).Inc()
}

// RecordReasonFiltered counts items dropped by the reason strength filter.
func RecordReasonFiltered(count int) {
	globalManager.reasonFiltered.Add(float64(count))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an HTTP error by endpoint.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap memory in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry holding the engine metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
