package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PipelineMetrics holds all Prometheus metrics for one rank's ring-knn
// pipeline: frame traffic on the ring transport, per-iteration compute
// cost, merge/labeling work, and classifier latency.
type PipelineMetrics struct {
	// Ring transport metrics
	FramesSent      prometheus.Counter
	FramesReceived  prometheus.Counter
	BytesSent       prometheus.Counter
	BytesReceived   prometheus.Counter
	TransportErrors *prometheus.CounterVec

	// Pipeline phase metrics
	IterationDuration *prometheus.HistogramVec
	MergeOpsTotal     prometheus.Counter
	LabelingWritesTotal prometheus.Counter

	// Classifier metrics
	ClassifyDuration prometheus.Histogram
	PredictionsTotal prometheus.Counter

	// System metrics
	GoroutinesCount prometheus.Gauge
	MemoryUsage     prometheus.Gauge
}

// NewPipelineMetrics creates and registers all Prometheus metrics for
// this rank.
func NewPipelineMetrics() *PipelineMetrics {
	return &PipelineMetrics{
		FramesSent: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ringknn_frames_sent_total",
				Help: "Total number of ring frames sent to the successor rank",
			},
		),
		FramesReceived: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ringknn_frames_received_total",
				Help: "Total number of ring frames received from the predecessor rank",
			},
		),
		BytesSent: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ringknn_bytes_sent_total",
				Help: "Total bytes sent over the ring transport",
			},
		),
		BytesReceived: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ringknn_bytes_received_total",
				Help: "Total bytes received over the ring transport",
			},
		),
		TransportErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ringknn_transport_errors_total",
				Help: "Total transport errors by operation",
			},
			[]string{"op"},
		),

		IterationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ringknn_iteration_duration_seconds",
				Help:    "Per-ring-iteration compute duration by phase (knn, labeling)",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"phase"},
		),
		MergeOpsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ringknn_merge_ops_total",
				Help: "Total number of neighbor top-k merge operations",
			},
		),
		LabelingWritesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ringknn_labeling_writes_total",
				Help: "Total number of label cells written during the labeling pass",
			},
		),

		ClassifyDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ringknn_classify_duration_seconds",
				Help:    "Majority-vote classification duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5},
			},
		),
		PredictionsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ringknn_predictions_total",
				Help: "Total number of predicted labels emitted",
			},
		),

		GoroutinesCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ringknn_goroutines",
				Help: "Current number of goroutines",
			},
		),
		MemoryUsage: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ringknn_memory_bytes",
				Help: "Memory usage in bytes",
			},
		),
	}
}

// RecordSend records one outbound ring frame.
func (m *PipelineMetrics) RecordSend(bytes int) {
	m.FramesSent.Inc()
	m.BytesSent.Add(float64(bytes))
}

// RecordRecv records one inbound ring frame.
func (m *PipelineMetrics) RecordRecv(bytes int) {
	m.FramesReceived.Inc()
	m.BytesReceived.Add(float64(bytes))
}

// RecordTransportError records a transport-level failure by operation
// name (e.g. "Send", "Recv").
func (m *PipelineMetrics) RecordTransportError(op string) {
	m.TransportErrors.WithLabelValues(op).Inc()
}

// RecordIteration records the compute duration of one ring iteration for
// the given phase ("knn" or "labeling").
func (m *PipelineMetrics) RecordIteration(phase string, duration time.Duration) {
	m.IterationDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordMerge records one neighbor top-k merge operation.
func (m *PipelineMetrics) RecordMerge() {
	m.MergeOpsTotal.Inc()
}

// RecordLabelingWrites records the number of label cells written during
// one labeling pass.
func (m *PipelineMetrics) RecordLabelingWrites(count int) {
	m.LabelingWritesTotal.Add(float64(count))
}

// RecordClassify records one majority-vote classification pass.
func (m *PipelineMetrics) RecordClassify(duration time.Duration, predictions int) {
	m.ClassifyDuration.Observe(duration.Seconds())
	m.PredictionsTotal.Add(float64(predictions))
}

// UpdateGoroutineCount updates the goroutine count gauge.
func (m *PipelineMetrics) UpdateGoroutineCount(count int) {
	m.GoroutinesCount.Set(float64(count))
}

// UpdateMemoryUsage updates the memory usage gauge.
func (m *PipelineMetrics) UpdateMemoryUsage(bytes uint64) {
	m.MemoryUsage.Set(float64(bytes))
}
