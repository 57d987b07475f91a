// Package metrics provides Prometheus metrics for the lead-time analysis service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
	defaultNamespace       = "leadtime"
	defaultSubsystem       = "analysis"
)

// Manager owns every collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Analysis pipeline
	analysesSubmitted   prometheus.Counter
	analysesCompleted   prometheus.Counter
	analysesFailed      prometheus.Counter
	analysesDuplicate   prometheus.Counter
	analysisLatency     prometheus.Histogram
	recordsIngested     prometheus.Counter
	recordsSkipped      *prometheus.CounterVec
	insufficientAnswers *prometheus.CounterVec
	ingestErrors        *prometheus.CounterVec

	// Store
	storedAnalyses    prometheus.Gauge
	storeEvictions    prometheus.Counter
	storeQueryLatency prometheus.Histogram

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Watch folder
	watchEvents *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        defaultNamespace,
		subsystem:        defaultSubsystem,
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// name applies the optional metric prefix.
func (m *Manager) name(base string) string {
	if m.metricPrefix == "" {
		return base
	}
	return m.metricPrefix + "_" + base
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	// Analysis pipeline
	m.analysesSubmitted = m.counter("submitted_total", "Total number of datasets accepted for analysis")
	m.analysesCompleted = m.counter("completed_total", "Total number of analyses that produced a report")
	m.analysesFailed = m.counter("failed_total", "Total number of analyses that failed")
	m.analysesDuplicate = m.counter("duplicate_total", "Total number of uploads matching an already analysed dataset")
	m.analysisLatency = m.histogram("latency_milliseconds", "Time spent building a report in milliseconds", m.histogramBuckets)
	m.recordsIngested = m.counter("records_ingested_total", "Total number of records read from uploads")
	m.recordsSkipped = m.counterVec("records_skipped_total",
		"Records excluded from a metric because a date did not parse", "metric")
	m.insufficientAnswers = m.counterVec("insufficient_answers_total",
		"Questions answered with insufficient data", "question")
	m.ingestErrors = m.counterVec("ingest_errors_total", "Uploads that could not be read", "format")

	// Store
	m.storedAnalyses = m.gauge("store_analyses", "Number of analyses currently held in memory")
	m.storeEvictions = m.counter("store_evictions_total", "Analyses evicted to respect store capacity")
	m.storeQueryLatency = m.histogram("store_query_latency_milliseconds", "Store query latency in milliseconds", m.histogramBuckets)

	// Queue
	m.queueSize = m.gauge("queue_size", "Current number of queued analysis jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Total number of jobs enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Total number of jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of rejected enqueues")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds",
		"Enqueue latency in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100})

	// Workers
	m.workerCount = m.gauge("worker_count", "Number of analysis workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Job processing latency in milliseconds", m.histogramBuckets)
	m.workerErrorRate = m.counter("worker_errors_total", "Total number of failed jobs")

	// Watch folder
	m.watchEvents = m.counterVec("watch_events_total", "Inbox file events by outcome", "outcome")

	// HTTP
	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	// Errors
	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds",
		"Latency of operations that ended in an error", "component", "error_type")

	// System
	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds",
		"Average GC pause in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Analysis pipeline.

// RecordAnalysisSubmitted increments the submitted counter.
func RecordAnalysisSubmitted() {
	if globalManager.enabled {
		globalManager.analysesSubmitted.Inc()
	}
}

// RecordAnalysisCompleted increments the completed counter and observes latency.
func RecordAnalysisCompleted(latencyMs float64) {
	if globalManager.enabled {
		globalManager.analysesCompleted.Inc()
		globalManager.analysisLatency.Observe(latencyMs)
	}
}

// RecordAnalysisFailed increments the failed counter.
func RecordAnalysisFailed() {
	if globalManager.enabled {
		globalManager.analysesFailed.Inc()
	}
}

// RecordAnalysisDuplicate increments the duplicate counter.
func RecordAnalysisDuplicate() {
	if globalManager.enabled {
		globalManager.analysesDuplicate.Inc()
	}
}

// RecordRecordsIngested adds n to the ingested records counter.
func RecordRecordsIngested(n int) {
	if globalManager.enabled && n > 0 {
		globalManager.recordsIngested.Add(float64(n))
	}
}

// RecordRecordsSkipped adds n skipped records for a metric kind.
func RecordRecordsSkipped(metric string, n int) {
	if globalManager.enabled && n > 0 {
		globalManager.recordsSkipped.WithLabelValues(metric).Add(float64(n))
	}
}

// RecordInsufficientAnswer counts a question answered with insufficient data.
func RecordInsufficientAnswer(questionID string) {
	if globalManager.enabled {
		globalManager.insufficientAnswers.WithLabelValues(questionID).Inc()
	}
}

// RecordIngestError counts an unreadable upload by format.
func RecordIngestError(format string) {
	if globalManager.enabled {
		globalManager.ingestErrors.WithLabelValues(format).Inc()
	}
}

// Store.

// UpdateStoredAnalyses sets the number of analyses held in memory.
func UpdateStoredAnalyses(count int) {
	globalManager.storedAnalyses.Set(float64(count))
}

// RecordStoreEviction increments the eviction counter.
func RecordStoreEviction() {
	globalManager.storeEvictions.Inc()
}

// RecordStoreQueryLatency observes a store read latency.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// Queue.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records enqueue latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Workers.

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// Watch folder.

// RecordWatchEvent counts an inbox event by outcome (submitted, skipped, failed).
func RecordWatchEvent(outcome string) {
	globalManager.watchEvents.WithLabelValues(outcome).Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// Configure rebuilds the global collectors from opts on a fresh registry.
// Call it once at startup, before handlers capture GetRegistry.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// RefreshInterval reports how often gauge refreshers should run.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
