package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sdejongh/foldersync/pkg/models"
)

// Metrics tracks Prometheus metrics for reconciliation cycles.
//
// All metrics use the "foldersync_" prefix. Methods handle a nil receiver
// gracefully, so a nil *Metrics is a no-op when metrics are disabled.
type Metrics struct {
	// Cycles counts finished cycles by result.
	// Labels: result=[success, partial, failed, cancelled]
	Cycles *prometheus.CounterVec

	// Files counts actions applied to the replica.
	// Labels: action=[new, update, del file, new folder, del folder]
	Files *prometheus.CounterVec

	// ItemErrors counts per-item failures by the action that failed.
	ItemErrors *prometheus.CounterVec

	// BytesTransferred counts bytes copied into the replica.
	BytesTransferred prometheus.Counter

	// CycleDuration tracks how long each cycle took.
	CycleDuration prometheus.Histogram

	// LastSuccess holds the unix time of the last cycle without errors.
	LastSuccess prometheus.Gauge
}

// New creates and registers the cycle metrics.
// If registerer is nil, prometheus.DefaultRegisterer is used.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		Cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foldersync_cycles_total",
				Help: "Total reconciliation cycles by result",
			},
			[]string{"result"},
		),
		Files: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foldersync_files_total",
				Help: "Total changes applied to the replica by action",
			},
			[]string{"action"},
		),
		ItemErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foldersync_item_errors_total",
				Help: "Total per-item failures by action",
			},
			[]string{"action"},
		),
		BytesTransferred: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "foldersync_bytes_transferred_total",
				Help: "Total bytes copied into the replica",
			},
		),
		CycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "foldersync_cycle_duration_seconds",
				Help:    "Reconciliation cycle duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
			},
		),
		LastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "foldersync_last_success_timestamp_seconds",
				Help: "Unix time of the last cycle that finished without errors",
			},
		),
	}

	registerer.MustRegister(
		m.Cycles,
		m.Files,
		m.ItemErrors,
		m.BytesTransferred,
		m.CycleDuration,
		m.LastSuccess,
	)

	return m
}

// RecordAction counts an applied action and the bytes it transferred
func (m *Metrics) RecordAction(action models.Action, bytes int64) {
	if m == nil {
		return
	}
	m.Files.WithLabelValues(string(action)).Inc()
	if bytes > 0 {
		m.BytesTransferred.Add(float64(bytes))
	}
}

// RecordItemError counts a failed item
func (m *Metrics) RecordItemError(action models.Action) {
	if m == nil {
		return
	}
	m.ItemErrors.WithLabelValues(string(action)).Inc()
}

// RecordCycle records the outcome and duration of a finished cycle
func (m *Metrics) RecordCycle(status models.CycleStatus, duration time.Duration, end time.Time) {
	if m == nil {
		return
	}
	m.Cycles.WithLabelValues(string(status)).Inc()
	m.CycleDuration.Observe(duration.Seconds())
	if status == models.StatusSuccess {
		m.LastSuccess.Set(float64(end.Unix()))
	}
}
