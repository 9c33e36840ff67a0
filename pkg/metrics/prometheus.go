package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	samplesRouted *prometheus.CounterVec
	rejected      *prometheus.CounterVec
	alarms        *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastValue     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		samplesRouted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hemowatch_samples_routed_total",
				Help: "Total number of accepted samples routed to a backend",
			},
			[]string{"backend", "patient"},
		),
		rejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hemowatch_samples_rejected_total",
				Help: "Total number of samples rejected by the baseline screen",
			},
			[]string{"patient"},
		),
		alarms: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hemowatch_drift_alarms_total",
				Help: "Total number of drift alarms by direction",
			},
			[]string{"patient", "direction"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hemowatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastValue: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hemowatch_last_value",
				Help: "Last accepted sample value for a patient",
			},
			[]string{"patient"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hemowatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSampleRouted records a sample routed to a backend.
func (r *Recorder) RecordSampleRouted(backend, patientID string) {
	r.samplesRouted.WithLabelValues(backend, patientID).Inc()
}

// RecordRejected records a sample rejected by the outlier screen.
func (r *Recorder) RecordRejected(patientID string) {
	r.rejected.WithLabelValues(patientID).Inc()
}

// RecordAlarm records a drift alarm.
func (r *Recorder) RecordAlarm(patientID, direction string) {
	r.alarms.WithLabelValues(patientID, direction).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastValue records the last accepted value for a patient.
func (r *Recorder) RecordLastValue(patientID string, value float64) {
	r.lastValue.WithLabelValues(patientID).Set(value)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
