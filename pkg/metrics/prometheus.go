// Package metrics provides Prometheus metrics for the innings tracker.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Ingestion
	eventsReceived    *prometheus.CounterVec
	eventsApplied     *prometheus.CounterVec
	eventsRejected    *prometheus.CounterVec
	eventsDuplicate   prometheus.Counter
	transitionLatency prometheus.Histogram
	stateVersion      prometheus.Gauge

	// Match state
	drawProbability prometheus.Gauge
	totalRuns       prometheus.Gauge
	wicketsLost     prometheus.Gauge
	oversPlayed     prometheus.Gauge

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueErrors *prometheus.CounterVec

	// Producers
	polls *prometheus.CounterVec

	// Query answering
	queries      *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	llmLatency   *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	streamClients       prometheus.Gauge

	// Errors and runtime
	errorsByComponent    *prometheus.CounterVec
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry served on /healthz

var globalManager = NewManager(WithPrometheusRegistry(customRegistry)) //nolint:gochecknoglobals // singleton behind package-level recorders

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "innings",
		subsystem:        "tracker",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
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

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.eventsReceived = m.counterVec("events_received_total", "Events handed to the ingestion loop by source", "source")
	m.eventsApplied = m.counterVec("events_applied_total", "Events that produced a new match state by event type", "event_type")
	m.eventsRejected = m.counterVec("events_rejected_total", "Events dropped by stage and reason", "stage", "reason")
	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "events_duplicate_total", Help: "Events ignored because their id was already seen",
	})
	m.transitionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "transition_latency_milliseconds", Help: "Time from dequeue to publish of a new state",
		Buckets: m.histogramBuckets,
	})
	m.stateVersion = m.gauge("state_version", "Version number of the published match state")

	m.drawProbability = m.gauge("draw_probability", "Current probability of a draw")
	m.totalRuns = m.gauge("total_runs", "Runs scored by the batting side")
	m.wicketsLost = m.gauge("wickets_lost", "Wickets lost by the batting side")
	m.oversPlayed = m.gauge("overs_played", "Overs bowled in cricket notation")

	m.queueSize = m.gauge("queue_size", "Candidates waiting in the ingestion queue")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the ingestion queue")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total", "Candidates refused by the queue", "reason")

	m.polls = m.counterVec("provider_polls_total", "Score provider polls by result", "result")

	m.queries = m.counterVec("queries_total", "Answered questions by label and answer source", "label", "source")
	m.cacheLookups = m.counterVec("response_cache_lookups_total", "Response cache lookups by result", "result")
	m.llmLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "llm_latency_milliseconds", Help: "Response generator call latency",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
	}, []string{"outcome"})

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "http_request_duration_milliseconds", Help: "HTTP request duration",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.streamClients = m.gauge("stream_clients", "Connected websocket snapshot subscribers")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")
	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes in use")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
}

// GetRegistry returns the registry served by the metrics endpoint.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RecordEventReceived counts a candidate entering the ingestion loop.
func RecordEventReceived(source string) {
	globalManager.eventsReceived.WithLabelValues(source).Inc()
}

// RecordEventApplied counts an accepted event.
func RecordEventApplied(eventType string) {
	globalManager.eventsApplied.WithLabelValues(eventType).Inc()
}

// RecordEventRejected counts a dropped event. stage is validate or transition.
func RecordEventRejected(stage, reason string) {
	globalManager.eventsRejected.WithLabelValues(stage, reason).Inc()
}

// RecordEventDuplicate counts an event id seen before.
func RecordEventDuplicate() {
	globalManager.eventsDuplicate.Inc()
}

// RecordTransitionLatency records how long one event took to publish.
func RecordTransitionLatency(d time.Duration) {
	globalManager.transitionLatency.Observe(float64(d) / float64(time.Millisecond))
}

// UpdateMatchState mirrors the published state into gauges.
func UpdateMatchState(version uint64, runs, wickets int, overs, pDraw float64) {
	globalManager.stateVersion.Set(float64(version))
	globalManager.totalRuns.Set(float64(runs))
	globalManager.wicketsLost.Set(float64(wickets))
	globalManager.oversPlayed.Set(overs)
	globalManager.drawProbability.Set(pDraw)
}

// UpdateQueueMetrics sets size, capacity and utilization together.
func UpdateQueueMetrics(size, capacity int) {
	globalManager.queueSize.Set(float64(size))
	globalManager.queueCapacity.Set(float64(capacity))
	if capacity > 0 {
		globalManager.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// RecordQueueEnqueueError counts a refused candidate.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// RecordPoll counts a provider poll. result is one of event, unchanged, error.
func RecordPoll(result string) {
	globalManager.polls.WithLabelValues(result).Inc()
}

// RecordQuery counts an answered question.
func RecordQuery(label, source string) {
	globalManager.queries.WithLabelValues(label, source).Inc()
}

// RecordCacheLookup counts a response cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	globalManager.cacheLookups.WithLabelValues(result).Inc()
}

// RecordLLMLatency records a generator call. outcome is ok, error or empty.
func RecordLLMLatency(d time.Duration, outcome string) {
	globalManager.llmLatency.WithLabelValues(outcome).Observe(float64(d) / float64(time.Millisecond))
}

// RecordHTTPRequest records a served request and its duration.
func RecordHTTPRequest(endpoint, method string, status int, d time.Duration) {
	code := strconv.Itoa(status)
	globalManager.httpRequests.WithLabelValues(endpoint, method, code).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, code).Observe(float64(d) / float64(time.Millisecond))
}

// UpdateStreamClients sets the websocket subscriber count.
func UpdateStreamClients(n int) {
	globalManager.streamClients.Set(float64(n))
}

// RecordError counts an error by component and type.
func RecordError(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMetrics sets runtime gauges.
func UpdateSystemMetrics(memoryBytes uint64, goroutines int) {
	globalManager.systemMemoryUsage.Set(float64(memoryBytes))
	globalManager.systemGoroutineCount.Set(float64(goroutines))
}
