package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts transcription API requests.
	// Labels: endpoint (transcribe/transcribe_stream/transcribe_stream_upload), status (success/error)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of transcription requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	// QueueActive tracks tickets currently holding an inference slot.
	QueueActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_queue_active",
			Help: "Number of jobs currently holding an inference slot",
		},
	)

	// QueueWaiting tracks tickets parked in the FIFO waiter list.
	QueueWaiting = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_queue_waiting",
			Help: "Number of jobs waiting for admission",
		},
	)

	// QueueWaitSeconds observes how long each admitted job waited.
	// Buckets: 10ms .. 5min
	QueueWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gateway_queue_wait_seconds",
			Help:    "Time jobs spent waiting for queue admission in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)

	// StageDuration observes per-stage pipeline latency.
	// Labels: stage (persist/preprocess/transcribe/diarize)
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds by stage",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)

	// DiarizationTotal counts diarization outcomes.
	// Labels: status (applied/skipped/failed)
	DiarizationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_diarization_total",
			Help: "Total number of diarization attempts by outcome",
		},
		[]string{"status"},
	)
)

// RecordRequest records one finished API request.
func RecordRequest(endpoint string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	RequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// SetQueueStats publishes a queue occupancy snapshot.
func SetQueueStats(active, waiting int) {
	QueueActive.Set(float64(active))
	QueueWaiting.Set(float64(waiting))
}

// ObserveWait records a job's admission wait time in seconds.
func ObserveWait(seconds float64) {
	QueueWaitSeconds.Observe(seconds)
}

// ObserveStage records one pipeline stage duration in seconds.
func ObserveStage(stage string, seconds float64) {
	StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordDiarization records a diarization outcome.
func RecordDiarization(status string) {
	DiarizationTotal.WithLabelValues(status).Inc()
}
