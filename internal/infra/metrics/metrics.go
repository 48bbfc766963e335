// Package metrics exports benchmark progress as Prometheus metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/whhaicheng/FFT-BenchMind/internal/app/usecase"
	"github.com/whhaicheng/FFT-BenchMind/internal/domain/execution"
)

const namespace = "fft_benchmind"

// Record outcomes used as the status label.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusInvalid   = "invalid"
)

// stepMetrics are the per-run timings exported as histograms.
var stepMetrics = []struct {
	metric execution.Metric
	step   string
}{
	{execution.MetricUpload, "upload"},
	{execution.MetricFFT, "fft"},
	{execution.MetricFFTInverse, "ifft"},
	{execution.MetricDownload, "download"},
	{execution.MetricTotal, "total"},
}

// Observer implements usecase.Observer on a Prometheus registry.
type Observer struct {
	records   *prometheus.CounterVec
	steps     *prometheus.HistogramVec
	deviation *prometheus.GaugeVec
	snapshots *prometheus.CounterVec
	stored    prometheus.Gauge
}

// NewObserver registers the benchmark metrics with reg.
func NewObserver(reg prometheus.Registerer) *Observer {
	f := promauto.With(reg)
	return &Observer{
		// Labels: library, status (completed, failed, invalid)
		records: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "driver",
			Name:      "records_total",
			Help:      "Finished configurations by outcome",
		}, []string{"library", "status"}),

		// Labels: library, step (upload, fft, ifft, download, total)
		steps: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "driver",
			Name:      "step_duration_seconds",
			Help:      "Duration of measured run steps in seconds",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 14),
		}, []string{"library", "step"}),

		// Labels: library, config
		deviation: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "driver",
			Name:      "roundtrip_deviation",
			Help:      "Round-trip deviation of the last run of a configuration",
		}, []string{"library", "config"}),

		// Labels: final (true, false), result (ok, error)
		snapshots: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "writer",
			Name:      "snapshots_total",
			Help:      "Snapshot writes by kind and result",
		}, []string{"final", "result"}),

		stored: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "writer",
			Name:      "records_stored",
			Help:      "Records in the last written snapshot",
		}),
	}
}

// RecordDone counts the record and observes its measured step timings.
func (o *Observer) RecordDone(rec *execution.ResultRecord) {
	status := StatusCompleted
	switch {
	case rec.HasError():
		status = StatusFailed
	case rec.ValidationError != "":
		status = StatusInvalid
	}
	o.records.WithLabelValues(rec.Library, status).Inc()

	for _, s := range stepMetrics {
		h := o.steps.WithLabelValues(rec.Library, s.step)
		for _, ms := range rec.MeasuredValues(s.metric) {
			h.Observe(ms / 1e3)
		}
	}

	if n := len(rec.Runs); n > 0 && !rec.HasError() {
		last := rec.Runs[n-1].Value(execution.MetricDeviation)
		o.deviation.WithLabelValues(rec.Library, rec.Config.String()).Set(last)
	}
}

// SnapshotWritten counts a sink write.
func (o *Observer) SnapshotWritten(records int, final bool, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	o.snapshots.WithLabelValues(strconv.FormatBool(final), result).Inc()
	o.stored.Set(float64(records))
}

// Ensure Observer implements the usecase interface.
var _ usecase.Observer = (*Observer)(nil)
