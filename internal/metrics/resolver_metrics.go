// Package metrics exposes Prometheus instruments for source attempts and
// resolution outcomes.
package metrics

import (
	"time"

	"github.com/pantrylens/backend/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution result labels
const (
	ResultFound    = "found"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultCanceled = "canceled"
)

var (
	// SourceAttempts counts fetch attempts per source and outcome
	SourceAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pantrylens_source_attempts_total",
			Help: "Total number of upstream fetch attempts by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	// SourceAttemptDuration tracks single attempt latency per source
	SourceAttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pantrylens_source_attempt_duration_seconds",
			Help:    "Duration of upstream fetch attempts in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"source"},
	)

	// Resolutions counts resolve calls by result and the answering source
	Resolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pantrylens_resolutions_total",
			Help: "Total number of barcode resolutions by result and source",
		},
		[]string{"result", "source"},
	)
)

// RecordAttempt records one fetch attempt
func RecordAttempt(rec domain.SourceAttemptRecord) {
	SourceAttempts.WithLabelValues(rec.Source, string(rec.Outcome)).Inc()
	SourceAttemptDuration.WithLabelValues(rec.Source).Observe((time.Duration(rec.ElapsedMs) * time.Millisecond).Seconds())
}

// RecordResolution records the outcome of one resolve call. source is empty
// unless a product was found.
func RecordResolution(result, source string) {
	if source == "" {
		source = "none"
	}
	Resolutions.WithLabelValues(result, source).Inc()
}

// RegisterTrackedClients exposes the number of clients held by the per-IP
// rate limiter as pantrylens_ratelimit_tracked_clients
func RegisterTrackedClients(reg prometheus.Registerer, size func() int) prometheus.GaugeFunc {
	return promauto.With(reg).NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "pantrylens_ratelimit_tracked_clients",
			Help: "Number of client keys currently tracked by the rate limiter",
		},
		func() float64 { return float64(size()) },
	)
}

// Recorder adapts the package-level instruments to the observer interfaces
// of the fetch executor and the resolution service.
type Recorder struct{}

// ObserveAttempt implements fetch.Observer
func (Recorder) ObserveAttempt(rec domain.SourceAttemptRecord) {
	RecordAttempt(rec)
}

// ObserveResolution records a resolve outcome
func (Recorder) ObserveResolution(result, source string) {
	RecordResolution(result, source)
}
