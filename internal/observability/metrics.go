package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

var (
	// Stream metrics
	activeStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cobra_active_streams",
		Help: "Number of open VAD streams",
	})

	totalStreams = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cobra_streams_total",
		Help: "Total number of VAD streams accepted",
	})

	streamDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cobra_stream_duration_seconds",
		Help:    "Duration of VAD streams in seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	// Engine metrics
	framesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cobra_frames_total",
		Help: "Total number of frames run through the engine",
	}, []string{"result"}) // result: "voiced", "unvoiced" or "error"

	processLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cobra_process_latency_seconds",
		Help:    "Latency of a single engine process call in seconds",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01},
	})

	voiceProbability = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cobra_voice_probability",
		Help:    "Distribution of per-frame voice probabilities",
		Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
	})

	speechSegments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cobra_speech_segments_total",
		Help: "Total number of detected speech segments",
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cobra_errors_total",
		Help: "Total number of errors",
	}, []string{"kind", "component"})

	// Circuit breaker metrics. Every session owns a breaker, so the gauge
	// counts live breakers per state rather than holding one breaker's state.
	circuitBreakers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cobra_circuit_breakers",
		Help: "Number of live circuit breakers in each state",
	}, []string{"service", "state"}) // state: "closed", "open" or "half-open"

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cobra_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})

	// Audio metrics
	audioBytesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cobra_audio_bytes_total",
		Help: "Total audio bytes received",
	}, []string{"encoding"}) // encoding: "pcm" or "mulaw"
)

// StreamMetrics tracks metrics for a single stream
type StreamMetrics struct {
	streamID  string
	startTime time.Time
	frames    int64
	mu        sync.Mutex
}

// NewStreamMetrics creates a new metrics tracker for a stream
func NewStreamMetrics(streamID string) *StreamMetrics {
	return &StreamMetrics{
		streamID:  streamID,
		startTime: time.Now(),
	}
}

// RecordStreamStart records the start of a stream
func (m *StreamMetrics) RecordStreamStart() {
	activeStreams.Inc()
	totalStreams.Inc()
}

// RecordStreamEnd records the end of a stream
func (m *StreamMetrics) RecordStreamEnd() {
	activeStreams.Dec()
	streamDuration.Observe(time.Since(m.startTime).Seconds())
}

// RecordFrame records one successful process call
func (m *StreamMetrics) RecordFrame(probability float32, voiced bool, latency time.Duration) {
	m.mu.Lock()
	m.frames++
	m.mu.Unlock()

	result := "unvoiced"
	if voiced {
		result = "voiced"
	}
	framesProcessed.WithLabelValues(result).Inc()
	processLatency.Observe(latency.Seconds())
	voiceProbability.Observe(float64(probability))
}

// RecordSpeechSegment records the start of a speech segment
func (m *StreamMetrics) RecordSpeechSegment() {
	speechSegments.Inc()
}

// Frames returns the number of frames processed on this stream
func (m *StreamMetrics) Frames() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}

// RecordError records an error
func (m *StreamMetrics) RecordError(kind, component string) {
	if component == "engine" {
		framesProcessed.WithLabelValues("error").Inc()
	}
	RecordError(kind, component)
}

// RecordAudioBytes records audio bytes received
func (m *StreamMetrics) RecordAudioBytes(encoding string, bytes int) {
	audioBytesReceived.WithLabelValues(encoding).Add(float64(bytes))
}

// RecordError records an error outside a stream
func RecordError(kind, component string) {
	errorsTotal.WithLabelValues(kind, component).Inc()
}

// AddCircuitBreaker counts a new breaker in state
func AddCircuitBreaker(service, state string) {
	circuitBreakers.WithLabelValues(service, state).Inc()
}

// RemoveCircuitBreaker stops counting a breaker that was in state
func RemoveCircuitBreaker(service, state string) {
	circuitBreakers.WithLabelValues(service, state).Dec()
}

// MoveCircuitBreaker records a breaker changing state
func MoveCircuitBreaker(service, from, to string) {
	circuitBreakers.WithLabelValues(service, from).Dec()
	circuitBreakers.WithLabelValues(service, to).Inc()
}

// CircuitBreakers returns how many live breakers of service are in state
func CircuitBreakers(service, state string) int {
	var m dto.Metric
	if err := circuitBreakers.WithLabelValues(service, state).Write(&m); err != nil {
		return 0
	}
	return int(m.GetGauge().GetValue())
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}
