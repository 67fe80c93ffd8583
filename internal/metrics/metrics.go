// Package metrics exposes job counters for the companion /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job kinds.
const (
	KindScreenshot = "screenshot"
	KindAudio      = "audio"
)

// Job outcomes.
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusCached    = "cached"
	StatusCancelled = "cancelled"
)

// Metrics holds the application collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	jobs         *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	queueLength  prometheus.Gauge
	streamChunks prometheus.Counter
	captures     *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		jobs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "interviewcoder",
			Name:      "jobs_total",
			Help:      "Processed jobs by kind and outcome.",
		}, []string{"kind", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "interviewcoder",
			Name:      "job_duration_seconds",
			Help:      "Time from job start to completion.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"kind"}),
		queueLength: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "interviewcoder",
			Name:      "screenshot_queue_length",
			Help:      "Screenshots waiting to be processed.",
		}),
		streamChunks: f.NewCounter(prometheus.CounterOpts{
			Namespace: "interviewcoder",
			Name:      "audio_stream_chunks_total",
			Help:      "Answer chunks delivered for audio jobs.",
		}),
		captures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "interviewcoder",
			Name:      "captures_total",
			Help:      "Screenshot and recording attempts by outcome.",
		}, []string{"kind", "status"}),
	}
}

// JobDone records one finished job.
func (m *Metrics) JobDone(kind, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(kind, status).Inc()
	if status != StatusCancelled {
		m.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
	}
}

// QueueLength sets the pending screenshot count.
func (m *Metrics) QueueLength(n int) {
	if m == nil {
		return
	}
	m.queueLength.Set(float64(n))
}

// StreamChunk counts one delivered chunk.
func (m *Metrics) StreamChunk() {
	if m == nil {
		return
	}
	m.streamChunks.Inc()
}

// Capture records one capture attempt.
func (m *Metrics) Capture(kind string, err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.captures.WithLabelValues(kind, status).Inc()
}
