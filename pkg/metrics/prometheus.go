// Package metrics provides Prometheus metrics for the wardflow scheduler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Manager owns every scheduler metric.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Scheduler
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	queueLength       prometheus.Gauge
	bedsOccupied      prometheus.Gauge
	bedsCapacity      prometheus.Gauge
	admissions        prometheus.Counter

	// Storage and coordination
	storeLoadLatency prometheus.Histogram
	storeSaveLatency prometheus.Histogram
	lockWait         prometheus.Histogram
	activityErrors   prometheus.Counter

	// Asynchronous activity delivery
	deliveryQueueDepth prometheus.Gauge
	deliveryEnqueued   prometheus.Counter
	deliveryDropped    *prometheus.CounterVec
	deliveryLatency    prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "wardflow",
		subsystem:        "scheduler",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.operations = auto.NewCounterVec(
		m.counterOpts("operations_total", "Scheduler operations by op and outcome"),
		[]string{"op", "outcome"},
	)
	m.operationDuration = auto.NewHistogramVec(
		m.histogramOpts("operation_duration_milliseconds", "Full reload-mutate-persist cycle duration"),
		[]string{"op"},
	)
	m.queueLength = auto.NewGauge(m.gaugeOpts("queue_length", "Waiting patients after the last operation"))
	m.bedsOccupied = auto.NewGauge(m.gaugeOpts("beds_occupied", "Occupied beds after the last operation"))
	m.bedsCapacity = auto.NewGauge(m.gaugeOpts("beds_capacity", "Size of the bed pool"))
	m.admissions = auto.NewCounter(m.counterOpts("admissions_total", "Patients moved from the queue into a bed"))

	m.storeLoadLatency = auto.NewHistogram(m.histogramOpts("store_load_latency_milliseconds", "Record store LoadAll latency"))
	m.storeSaveLatency = auto.NewHistogram(m.histogramOpts("store_save_latency_milliseconds", "Record store SaveAll latency"))
	m.lockWait = auto.NewHistogram(m.histogramOpts("lock_wait_milliseconds", "Time spent waiting for the cycle lock"))
	m.activityErrors = auto.NewCounter(m.counterOpts("activity_errors_total", "Activity entries that failed to reach a sink"))

	m.deliveryQueueDepth = auto.NewGauge(m.gaugeOpts("delivery_queue_depth", "Activity entries waiting for asynchronous delivery"))
	m.deliveryEnqueued = auto.NewCounter(m.counterOpts("delivery_enqueued_total", "Activity entries accepted for asynchronous delivery"))
	m.deliveryDropped = auto.NewCounterVec(
		m.counterOpts("delivery_dropped_total", "Activity entries dropped before delivery by reason"),
		[]string{"reason"},
	)
	m.deliveryLatency = auto.NewHistogram(m.histogramOpts("delivery_latency_milliseconds", "Time to hand one entry to the downstream sink"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	gc := m.histogramOpts("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds")
	gc.Buckets = []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100}
	m.systemGCPauseTime = auto.NewHistogram(gc)
}

// RecordOperation counts a scheduler operation and its cycle duration.
func RecordOperation(op, outcome string, durationMs float64) {
	globalManager.operations.WithLabelValues(op, outcome).Inc()
	globalManager.operationDuration.WithLabelValues(op).Observe(durationMs)
}

// RecordAdmission increments the admissions counter.
func RecordAdmission() {
	globalManager.admissions.Inc()
}

// UpdateQueueLength sets the waiting queue length.
func UpdateQueueLength(n int) {
	globalManager.queueLength.Set(float64(n))
}

// UpdateBeds sets occupied and total bed gauges.
func UpdateBeds(occupied, capacity int) {
	globalManager.bedsOccupied.Set(float64(occupied))
	globalManager.bedsCapacity.Set(float64(capacity))
}

// RecordStoreLoad records LoadAll latency.
func RecordStoreLoad(latencyMs float64) {
	globalManager.storeLoadLatency.Observe(latencyMs)
}

// RecordStoreSave records SaveAll latency.
func RecordStoreSave(latencyMs float64) {
	globalManager.storeSaveLatency.Observe(latencyMs)
}

// RecordLockWait records time spent acquiring the cycle lock.
func RecordLockWait(latencyMs float64) {
	globalManager.lockWait.Observe(latencyMs)
}

// RecordActivityError increments the activity sink failure counter.
func RecordActivityError() {
	globalManager.activityErrors.Inc()
}

// UpdateDeliveryQueueDepth sets the number of entries awaiting delivery.
func UpdateDeliveryQueueDepth(n int) {
	globalManager.deliveryQueueDepth.Set(float64(n))
}

// RecordDeliveryEnqueued counts an entry accepted by the delivery queue.
func RecordDeliveryEnqueued() {
	globalManager.deliveryEnqueued.Inc()
}

// RecordDeliveryDropped counts an entry that never reached the sink.
func RecordDeliveryDropped(reason string) {
	globalManager.deliveryDropped.WithLabelValues(reason).Inc()
}

// RecordDeliveryLatency records one downstream Append.
func RecordDeliveryLatency(latencyMs float64) {
	globalManager.deliveryLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap allocation in bytes.
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

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
