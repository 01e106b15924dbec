// Package metrics exposes the outcome of the last run in the Prometheus
// text format, for node_exporter's textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kouki023/situation-in-the-electoral-district/fetch"
	"github.com/kouki023/situation-in-the-electoral-district/synchronizer"
)

const namespace = "candidates_sync"

// Recorder implements synchronizer.Recorder.
type Recorder struct {
	registry *prometheus.Registry

	success   prometheus.Gauge
	timestamp prometheus.Gauge
	duration  prometheus.Gauge
	keys      prometheus.Gauge
	added     prometheus.Gauge
	removed   prometheus.Gauge
	runs      *prometheus.CounterVec
}

// NewRecorder registers the run metrics on a fresh registry.
func NewRecorder() *Recorder {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}
	r := &Recorder{
		registry:  prometheus.NewRegistry(),
		success:   gauge("last_run_success", "1 if the last run replaced the snapshot, 0 otherwise."),
		timestamp: gauge("last_run_timestamp_seconds", "Start time of the last run."),
		duration:  gauge("last_run_duration_seconds", "Wall time of the last run."),
		keys:      gauge("snapshot_keys", "Region keys in the last fetched snapshot."),
		added:     gauge("keys_added", "Region keys added by the last run."),
		removed:   gauge("keys_removed", "Region keys removed by the last run."),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Runs by result.",
		}, []string{"result"}),
	}
	r.registry.MustRegister(r.success, r.timestamp, r.duration, r.keys, r.added, r.removed, r.runs)
	return r
}

// Observe records one run.
func (r *Recorder) Observe(rep synchronizer.Report) {
	r.timestamp.Set(float64(rep.Started.Unix()) + float64(rep.Started.Nanosecond())/1e9)
	r.duration.Set(rep.Duration.Seconds())
	if !rep.Success() {
		r.success.Set(0)
		r.runs.WithLabelValues(Result(rep)).Inc()
		return
	}
	r.success.Set(1)
	r.keys.Set(float64(rep.Keys))
	r.added.Set(float64(len(rep.Added)))
	r.removed.Set(float64(len(rep.Removed)))
	r.runs.WithLabelValues(Result(rep)).Inc()
}

// Gatherer exposes the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the metrics to path, replacing it atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}

// Result is the runs_total label for a report: "success" or the error
// category with spaces replaced by underscores.
func Result(rep synchronizer.Report) string {
	if rep.Success() {
		return "success"
	}
	switch rep.Kind {
	case fetch.KindTransport:
		return "transport_error"
	case fetch.KindParse:
		return "parse_error"
	case fetch.KindFormat:
		return "format_error"
	default:
		return "unexpected_error"
	}
}
