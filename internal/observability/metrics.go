package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "genmusic_active_sessions",
		Help: "Number of active music generation sessions",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "genmusic_sessions_total",
		Help: "Total number of sessions started",
	})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "genmusic_session_duration_seconds",
		Help:    "Duration of music generation sessions in seconds",
		Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1800},
	})

	// Stream metrics
	framesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "genmusic_frames_received_total",
		Help: "Total audio frames received from the generation service",
	})

	audioBytesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "genmusic_audio_bytes_total",
		Help: "Total audio bytes processed",
	}, []string{"direction"}) // direction: "received" or "played" or "recorded"

	// Buffer metrics
	bufferDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "genmusic_buffer_depth_frames",
		Help: "Current number of frames held in the jitter buffer",
	})

	bufferUnderruns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "genmusic_buffer_underruns_total",
		Help: "Total playback reads that timed out waiting for a frame",
	})

	// Command metrics
	commandsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "genmusic_commands_total",
		Help: "Total interactive commands processed",
	}, []string{"command", "status"})

	// Control metrics
	controlLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "genmusic_control_latency_seconds",
		Help:    "Latency of control messages sent to the generation service",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
	})

	controlRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "genmusic_control_requests_total",
		Help: "Total control messages sent to the generation service",
	}, []string{"status"})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "genmusic_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "genmusic_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "genmusic_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})
)

// Metrics tracks metrics for a single session
type Metrics struct {
	sessionID        string
	startTime        time.Time
	controlStartTime time.Time
	mu               sync.Mutex
}

// NewSessionMetrics creates a new metrics tracker for a session
func NewSessionMetrics(sessionID string) *Metrics {
	return &Metrics{
		sessionID: sessionID,
		startTime: time.Now(),
	}
}

// RecordSessionStart records the start of a session
func (m *Metrics) RecordSessionStart() {
	activeSessions.Inc()
	totalSessions.Inc()
}

// RecordSessionEnd records the end of a session
func (m *Metrics) RecordSessionEnd() {
	activeSessions.Dec()
	duration := time.Since(m.startTime).Seconds()
	sessionDuration.Observe(duration)
}

// RecordFrame records a received audio frame and its size
func (m *Metrics) RecordFrame(bytes int) {
	framesReceived.Inc()
	audioBytesProcessed.WithLabelValues("received").Add(float64(bytes))
}

// RecordAudioBytes records audio bytes processed in a given direction
func (m *Metrics) RecordAudioBytes(direction string, bytes int64) {
	audioBytesProcessed.WithLabelValues(direction).Add(float64(bytes))
}

// RecordControlStart records the start of a control message send
func (m *Metrics) RecordControlStart() {
	m.mu.Lock()
	m.controlStartTime = time.Now()
	m.mu.Unlock()
}

// RecordControlEnd records the end of a control message send
func (m *Metrics) RecordControlEnd(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.controlStartTime.IsZero() {
		latency := time.Since(m.controlStartTime).Seconds()
		controlLatency.Observe(latency)
	}

	status := "success"
	if !success {
		status = "error"
	}
	controlRequests.WithLabelValues(status).Inc()
}

// RecordCommand records a processed interactive command
func (m *Metrics) RecordCommand(command string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	commandsProcessed.WithLabelValues(command, status).Inc()
}

// RecordError records an error
func (m *Metrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// SetBufferDepth updates the jitter buffer depth gauge
func SetBufferDepth(frames int) {
	bufferDepth.Set(float64(frames))
}

// RecordBufferUnderrun increments the playback underrun counter
func RecordBufferUnderrun() {
	bufferUnderruns.Inc()
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}
