// Package metrics provides Prometheus metrics for the presence recognition service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the presence service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Pipeline Metrics - frame flow through the capture/recognize/render loop
	framesCaptured prometheus.Counter
	framesDropped  prometheus.Counter
	framesRendered prometheus.Counter
	resultsDropped prometheus.Counter

	// Recognition Metrics - what the worker actually saw
	facesDetected    prometheus.Counter
	facesBelowFloor  prometheus.Counter
	recognitions     *prometheus.CounterVec
	detectLatency    prometheus.Histogram
	embedLatency     prometheus.Histogram
	matchLatency     prometheus.Histogram
	detectErrors     prometheus.Counter
	embedErrors      prometheus.Counter
	frameProcessTime prometheus.Histogram

	// Attendance Metrics
	attendanceMarked     prometheus.Counter
	attendanceRepeats    prometheus.Counter
	attendanceSuppressed prometheus.Counter
	attendanceFailures   prometheus.Counter

	// Roster Metrics
	rosterPeople     prometheus.Gauge
	rosterEmbeddings prometheus.Gauge
	rosterSaveErrors prometheus.Counter

	// Queue Metrics
	queueSize        *prometheus.GaugeVec
	queueCapacity    *prometheus.GaugeVec
	queueUtilization *prometheus.GaugeVec
	queueEnqueues    *prometheus.CounterVec
	queueDequeues    *prometheus.CounterVec
	queueDrops       *prometheus.CounterVec

	// Stream Metrics - MJPEG fan-out
	streamSubscribers prometheus.Gauge
	streamFramesSent  prometheus.Counter
	streamFramesLost  prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorsByComponent *prometheus.CounterVec

	// System Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "presence",
		subsystem:        "recognition",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.framesCaptured = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_captured_total",
		Help:      "Total number of frames read from the camera source",
	})

	m.framesDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_dropped_total",
		Help:      "Total number of frames dropped because the frame queue was full",
	})

	m.framesRendered = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_rendered_total",
		Help:      "Total number of frames encoded and emitted to the stream",
	})

	m.resultsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "results_dropped_total",
		Help:      "Total number of recognition results dropped because the result queue was full",
	})

	m.facesDetected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "faces_detected_total",
		Help:      "Total number of faces returned by the detector",
	})

	m.facesBelowFloor = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "faces_below_floor_total",
		Help:      "Total number of detections discarded for confidence below the floor",
	})

	m.recognitions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "recognitions_total",
			Help:      "Total number of matcher outcomes by result (known or unknown)",
		},
		[]string{"outcome"},
	)

	m.detectLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "detect_latency_milliseconds",
		Help:      "Histogram of face detection latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.embedLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "embed_latency_milliseconds",
		Help:      "Histogram of embedding computation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.matchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_latency_milliseconds",
		Help:      "Histogram of matcher latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.detectErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "detect_errors_total",
		Help:      "Total number of whole-frame detection failures",
	})

	m.embedErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "embed_errors_total",
		Help:      "Total number of per-face embedding failures",
	})

	m.frameProcessTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frame_process_milliseconds",
		Help:      "End-to-end worker latency per frame in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.attendanceMarked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "attendance_marked_total",
		Help:      "Total number of attendance records appended",
	})

	m.attendanceRepeats = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "attendance_repeats_total",
		Help:      "Total number of mark attempts suppressed by same-day deduplication",
	})

	m.attendanceSuppressed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "attendance_suppressed_total",
		Help:      "Total number of mark attempts suppressed while attendance is inactive",
	})

	m.attendanceFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "attendance_failures_total",
		Help:      "Total number of attendance record append failures",
	})

	m.rosterPeople = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "roster_people",
		Help:      "Current number of enrolled people",
	})

	m.rosterEmbeddings = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "roster_embeddings",
		Help:      "Current total number of stored embeddings",
	})

	m.rosterSaveErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "roster_save_errors_total",
		Help:      "Total number of roster persistence failures",
	})

	m.queueSize = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "queue_size",
			Help:      "Current size of a pipeline queue",
		},
		[]string{"queue"},
	)

	m.queueCapacity = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "queue_capacity",
			Help:      "Maximum capacity of a pipeline queue",
		},
		[]string{"queue"},
	)

	m.queueUtilization = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "queue_utilization_ratio",
			Help:      "Queue utilization ratio (current size / capacity)",
		},
		[]string{"queue"},
	)

	m.queueEnqueues = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "queue_enqueue_total",
			Help:      "Total number of items enqueued",
		},
		[]string{"queue"},
	)

	m.queueDequeues = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "queue_dequeue_total",
			Help:      "Total number of items dequeued",
		},
		[]string{"queue"},
	)

	m.queueDrops = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "queue_drops_total",
			Help:      "Total number of items dropped on full queues",
		},
		[]string{"queue"},
	)

	m.streamSubscribers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stream_subscribers",
		Help:      "Current number of MJPEG stream subscribers",
	})

	m.streamFramesSent = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stream_frames_sent_total",
		Help:      "Total number of encoded frames delivered to subscribers",
	})

	m.streamFramesLost = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stream_frames_lost_total",
		Help:      "Total number of encoded frames dropped for slow subscribers",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Current heap memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_ms",
		Help:      "GC pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// RecordFrameCaptured increments the frames captured counter.
func RecordFrameCaptured() {
	globalManager.framesCaptured.Inc()
}

// RecordFrameDropped increments the frames dropped counter.
func RecordFrameDropped() {
	globalManager.framesDropped.Inc()
}

// RecordFrameRendered increments the frames rendered counter.
func RecordFrameRendered() {
	globalManager.framesRendered.Inc()
}

// RecordResultDropped increments the dropped results counter.
func RecordResultDropped() {
	globalManager.resultsDropped.Inc()
}

// RecordFacesDetected adds to the detected faces counter.
func RecordFacesDetected(n int) {
	globalManager.facesDetected.Add(float64(n))
}

// RecordFaceBelowFloor increments the below-confidence-floor counter.
func RecordFaceBelowFloor() {
	globalManager.facesBelowFloor.Inc()
}

// RecordRecognition increments the recognitions counter for an outcome
// ("known" or "unknown").
func RecordRecognition(outcome string) {
	globalManager.recognitions.WithLabelValues(outcome).Inc()
}

// RecordDetectLatency observes detection latency in milliseconds.
func RecordDetectLatency(latencyMs float64) {
	globalManager.detectLatency.Observe(latencyMs)
}

// RecordEmbedLatency observes embedding latency in milliseconds.
func RecordEmbedLatency(latencyMs float64) {
	globalManager.embedLatency.Observe(latencyMs)
}

// RecordMatchLatency observes matcher latency in milliseconds.
func RecordMatchLatency(latencyMs float64) {
	globalManager.matchLatency.Observe(latencyMs)
}

// RecordDetectError increments the detection error counter.
func RecordDetectError() {
	globalManager.detectErrors.Inc()
}

// RecordEmbedError increments the embedding error counter.
func RecordEmbedError() {
	globalManager.embedErrors.Inc()
}

// RecordFrameProcessTime observes end-to-end worker latency in milliseconds.
func RecordFrameProcessTime(latencyMs float64) {
	globalManager.frameProcessTime.Observe(latencyMs)
}

// RecordAttendanceMarked increments the attendance records counter.
func RecordAttendanceMarked() {
	globalManager.attendanceMarked.Inc()
}

// RecordAttendanceRepeat increments the suppressed duplicate marks counter.
func RecordAttendanceRepeat() {
	globalManager.attendanceRepeats.Inc()
}

// RecordAttendanceSuppressed increments the inactive-attendance marks counter.
func RecordAttendanceSuppressed() {
	globalManager.attendanceSuppressed.Inc()
}

// RecordAttendanceFailure increments the attendance append failure counter.
func RecordAttendanceFailure() {
	globalManager.attendanceFailures.Inc()
}

// UpdateRosterPeople sets the enrolled people gauge.
func UpdateRosterPeople(count int) {
	globalManager.rosterPeople.Set(float64(count))
}

// UpdateRosterEmbeddings sets the stored embeddings gauge.
func UpdateRosterEmbeddings(count int) {
	globalManager.rosterEmbeddings.Set(float64(count))
}

// RecordRosterSaveError increments the roster persistence failure counter.
func RecordRosterSaveError() {
	globalManager.rosterSaveErrors.Inc()
}

// UpdateQueueSize sets the size gauge for the named queue.
func UpdateQueueSize(queue string, size int) {
	globalManager.queueSize.WithLabelValues(queue).Set(float64(size))
}

// UpdateQueueCapacity sets the capacity gauge for the named queue.
func UpdateQueueCapacity(queue string, capacity int) {
	globalManager.queueCapacity.WithLabelValues(queue).Set(float64(capacity))
}

// UpdateQueueUtilization sets the utilization gauge for the named queue.
func UpdateQueueUtilization(queue string, utilization float64) {
	globalManager.queueUtilization.WithLabelValues(queue).Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter for the named queue.
func RecordQueueEnqueue(queue string) {
	globalManager.queueEnqueues.WithLabelValues(queue).Inc()
}

// RecordQueueDequeue increments the dequeue counter for the named queue.
func RecordQueueDequeue(queue string) {
	globalManager.queueDequeues.WithLabelValues(queue).Inc()
}

// RecordQueueDrop increments the drop counter for the named queue.
func RecordQueueDrop(queue string) {
	globalManager.queueDrops.WithLabelValues(queue).Inc()
}

// UpdateStreamSubscribers sets the subscriber gauge.
func UpdateStreamSubscribers(count int) {
	globalManager.streamSubscribers.Set(float64(count))
}

// RecordStreamFrameSent increments the delivered frames counter.
func RecordStreamFrameSent() {
	globalManager.streamFramesSent.Inc()
}

// RecordStreamFrameLost increments the lost frames counter.
func RecordStreamFrameLost() {
	globalManager.streamFramesLost.Inc()
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent increments the per-component error counter.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records a GC pause duration.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry metrics are collected on, for exposure
// through an HTTP handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
