// Package metrics exposes retention run counters.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records the outcome of retention runs and placements.
type Metrics interface {
	ObserveRetention(target, mode string, kept, deleted, failed int, durationSeconds float64)
	IncPlaced(target, status string)
}

// Noop implements Metrics without emitting anything.
type Noop struct{}

func (Noop) ObserveRetention(string, string, int, int, int, float64) {}
func (Noop) IncPlaced(string, string)                                {}

// Prom implements Metrics backed by Prometheus collectors.
type Prom struct {
	runs     *prometheus.CounterVec
	deleted  *prometheus.CounterVec
	failed   *prometheus.CounterVec
	kept     *prometheus.GaugeVec
	duration *prometheus.HistogramVec
	placed   *prometheus.CounterVec
	once     sync.Once
}

func NewProm(namespace string) *Prom {
	p := &Prom{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_runs_total",
			Help:      "Retention runs by target and mode",
		}, []string{"target", "mode"}),
		deleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_deleted_total",
			Help:      "Dumps deleted by retention per target",
		}, []string{"target"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_delete_failures_total",
			Help:      "Dump deletions that failed per target",
		}, []string{"target"}),
		kept: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "retention_kept",
			Help:      "Dumps kept by the last retention run per target",
		}, []string{"target"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retention_duration_seconds",
			Help:      "Retention run duration per target",
			Buckets:   prometheus.DefBuckets,
		}, []string{"target"}),
		placed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dumps_placed_total",
			Help:      "Dump placements by target and status",
		}, []string{"target", "status"}),
	}
	p.register()
	return p
}

func (p *Prom) register() {
	p.once.Do(func() {
		prometheus.MustRegister(p.runs, p.deleted, p.failed, p.kept, p.duration, p.placed)
	})
}

func (p *Prom) ObserveRetention(target, mode string, kept, deleted, failed int, durationSeconds float64) {
	p.runs.WithLabelValues(target, mode).Inc()
	p.deleted.WithLabelValues(target).Add(float64(deleted))
	p.failed.WithLabelValues(target).Add(float64(failed))
	p.kept.WithLabelValues(target).Set(float64(kept))
	p.duration.WithLabelValues(target).Observe(durationSeconds)
}

func (p *Prom) IncPlaced(target, status string) {
	p.placed.WithLabelValues(target, status).Inc()
}

// Handler serves the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}
