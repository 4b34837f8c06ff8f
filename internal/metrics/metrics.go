// Package metrics instruments cloud provider calls and readiness polls with
// Prometheus collectors.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hdcluster"

// Result label values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Recorder holds the collectors of one run.
type Recorder struct {
	registry *prometheus.Registry

	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	pollAttempts    *prometheus.CounterVec
}

// NewRecorder returns a recorder backed by a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		providerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "calls_total",
				Help:      "Total number of cloud provider calls by operation and result",
			},
			[]string{"operation", "result"},
		),
		providerLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "call_duration_seconds",
				Help:      "Latency of cloud provider calls in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
			[]string{"operation"},
		),
		pollAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "readiness",
				Name:      "poll_attempts_total",
				Help:      "Total number of readiness poll attempts by wait",
			},
			[]string{"wait"},
		),
	}
	r.registry.MustRegister(r.providerCalls, r.providerLatency, r.pollAttempts)
	return r
}

// Registry returns the registry holding the recorder's collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveCall records one provider call.
func (r *Recorder) ObserveCall(operation string, err error, d time.Duration) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	r.providerCalls.WithLabelValues(operation, result).Inc()
	r.providerLatency.WithLabelValues(operation).Observe(d.Seconds())
}

// PollAttempt counts one attempt of the named wait.
func (r *Recorder) PollAttempt(wait string) {
	r.pollAttempts.WithLabelValues(wait).Inc()
}

// OnAttempt returns a hook suitable for readiness.Poller.OnAttempt.
func (r *Recorder) OnAttempt(wait string) func(int) {
	return func(int) { r.PollAttempt(wait) }
}

// WriteToTextfile writes the registry in the text exposition format, for
// pickup by a node exporter textfile collector.
func (r *Recorder) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
