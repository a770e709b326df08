package lapindex

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "lapindex"

// Metrics exposes the outcome of the most recent build. Each Metrics has its own registry so
// that more than one server can exist in a process (and in tests).
type Metrics struct {
	registry *prometheus.Registry

	sessions      prometheus.Gauge
	laps          prometheus.Gauge
	dropped       prometheus.Gauge
	failed        prometheus.Gauge
	buildDuration prometheus.Histogram
	builds        *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sessions",
			Help:      "Sessions in the current index.",
		}),
		laps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "valid_laps",
			Help:      "Valid laps across all sessions in the current index.",
		}),
		dropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "dropped_files",
			Help:      "Session files skipped in the last build because they had no session_id.",
		}),
		failed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "failed_files",
			Help:      "Session files that could not be read in the last build.",
		}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "build_duration_seconds",
			Help:      "Time taken to build the sessions index.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "builds_total",
			Help:      "Index builds by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(m.sessions, m.laps, m.dropped, m.failed, m.buildDuration, m.builds)

	return m
}

func (m *Metrics) ObserveBuild(stats *BuildStats) {
	m.sessions.Set(float64(stats.Sessions))
	m.laps.Set(float64(stats.Laps))
	m.dropped.Set(float64(stats.Dropped))
	m.failed.Set(float64(stats.Failed))
	m.buildDuration.Observe(stats.Duration.Seconds())
	m.builds.WithLabelValues("success").Inc()
}

func (m *Metrics) ObserveBuildError() {
	m.builds.WithLabelValues("error").Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
