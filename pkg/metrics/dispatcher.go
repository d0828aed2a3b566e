package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatcherMetrics records throughput and failure metadata for the
// subscription worker pipelines.
type DispatcherMetrics struct {
	handleDuration *prometheus.HistogramVec
	processed      *prometheus.CounterVec
	retried        *prometheus.CounterVec
	parked         *prometheus.CounterVec
	checkpointLag  *prometheus.GaugeVec
}

// NewDispatcherMetrics registers the dispatcher metrics on the provided registerer.
func NewDispatcherMetrics(reg prometheus.Registerer) *DispatcherMetrics {
	if reg == nil {
		return &DispatcherMetrics{}
	}
	handleDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "event_handle_duration_seconds",
		Help:    "Duration of domain event handler invocations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"pipeline", "event_type"})
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_processed_total",
		Help: "Events successfully processed per pipeline.",
	}, []string{"pipeline", "event_type"})
	retried := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "event_retries_total",
		Help: "Handler retries per pipeline.",
	}, []string{"pipeline", "event_type"})
	parked := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_parked_total",
		Help: "Events parked after retry exhaustion.",
	}, []string{"pipeline", "event_type"})
	checkpointLag := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "subscription_checkpoint_lag",
		Help: "Distance between the newest committed sequence and the acked checkpoint.",
	}, []string{"group"})
	reg.MustRegister(handleDuration, processed, retried, parked, checkpointLag)
	return &DispatcherMetrics{
		handleDuration: handleDuration,
		processed:      processed,
		retried:        retried,
		parked:         parked,
		checkpointLag:  checkpointLag,
	}
}

// ObserveHandleDuration records a handler invocation duration.
func (d *DispatcherMetrics) ObserveHandleDuration(pipeline, eventType string, duration time.Duration) {
	if d == nil || d.handleDuration == nil {
		return
	}
	d.handleDuration.WithLabelValues(normalizeLabel(pipeline), normalizeLabel(eventType)).Observe(duration.Seconds())
}

// IncProcessed increments the processed counter.
func (d *DispatcherMetrics) IncProcessed(pipeline, eventType string) {
	if d == nil || d.processed == nil {
		return
	}
	d.processed.WithLabelValues(normalizeLabel(pipeline), normalizeLabel(eventType)).Inc()
}

// IncRetried increments the retry counter.
func (d *DispatcherMetrics) IncRetried(pipeline, eventType string) {
	if d == nil || d.retried == nil {
		return
	}
	d.retried.WithLabelValues(normalizeLabel(pipeline), normalizeLabel(eventType)).Inc()
}

// IncParked increments the parked counter.
func (d *DispatcherMetrics) IncParked(pipeline, eventType string) {
	if d == nil || d.parked == nil {
		return
	}
	d.parked.WithLabelValues(normalizeLabel(pipeline), normalizeLabel(eventType)).Inc()
}

// SetCheckpointLag records the current checkpoint lag for a group.
func (d *DispatcherMetrics) SetCheckpointLag(group string, lag float64) {
	if d == nil || d.checkpointLag == nil {
		return
	}
	d.checkpointLag.WithLabelValues(normalizeLabel(group)).Set(lag)
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
