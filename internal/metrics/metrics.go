// Package metrics exposes Prometheus instruments for grabs, hash discovery
// and reconciliation passes. Instruments live on a private registry so tests
// and multiple daemons in one process never collide on the default one.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gamearr"

// Grab outcomes.
const (
	GrabSubmitted = "submitted"
	GrabDryRun    = "dry_run"
	GrabFailed    = "failed"
)

// Discovery outcomes.
const (
	DiscoveryFound   = "found"
	DiscoveryMissing = "missing"
	DiscoveryError   = "error"
)

// Recorder holds the registered instruments.
type Recorder struct {
	registry *prometheus.Registry

	grabs             *prometheus.CounterVec
	discoveries       *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
	reconcileRuns     *prometheus.CounterVec
	releases          *prometheus.CounterVec
	activeReleases    prometheus.Gauge
	clientUp          prometheus.Gauge
}

// New creates a recorder with its own registry, including Go runtime and
// process collectors.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.grabs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grabs_total",
			Help:      "Release grabs by outcome.",
		},
		[]string{"outcome"},
	)
	r.discoveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hash_discoveries_total",
			Help:      "Background torrent hash discovery attempts by outcome.",
		},
		[]string{"outcome"},
	)
	r.reconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of reconciliation passes.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	r.reconcileRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_runs_total",
			Help:      "Reconciliation passes by result.",
		},
		[]string{"result"},
	)
	r.releases = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "release_transitions_total",
			Help:      "Release status transitions applied by reconciliation.",
		},
		[]string{"status"},
	)
	r.activeReleases = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_releases",
			Help:      "Releases pending or downloading as of the last reconciliation pass.",
		},
	)
	r.clientUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "download_client_up",
			Help:      "1 when the last reconciliation pass reached the download client.",
		},
	)

	r.registry.MustRegister(
		r.grabs,
		r.discoveries,
		r.reconcileDuration,
		r.reconcileRuns,
		r.releases,
		r.activeReleases,
		r.clientUp,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// RecordGrab counts a grab attempt.
func (r *Recorder) RecordGrab(outcome string) {
	if r == nil {
		return
	}
	r.grabs.WithLabelValues(outcome).Inc()
}

// RecordDiscovery counts a hash discovery attempt.
func (r *Recorder) RecordDiscovery(outcome string) {
	if r == nil {
		return
	}
	r.discoveries.WithLabelValues(outcome).Inc()
}

// ObserveReconcile records a finished pass. A non-nil err marks the pass
// failed and the download client down.
func (r *Recorder) ObserveReconcile(elapsed time.Duration, active int, err error) {
	if r == nil {
		return
	}
	r.reconcileDuration.Observe(elapsed.Seconds())
	if err != nil {
		r.reconcileRuns.WithLabelValues("error").Inc()
		r.clientUp.Set(0)
		return
	}
	r.reconcileRuns.WithLabelValues("ok").Inc()
	r.clientUp.Set(1)
	r.activeReleases.Set(float64(active))
}

// RecordTransitions adds count release transitions into status.
func (r *Recorder) RecordTransitions(status string, count int) {
	if r == nil || count <= 0 {
		return
	}
	r.releases.WithLabelValues(status).Add(float64(count))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
