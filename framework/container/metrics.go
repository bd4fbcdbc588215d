package container

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resolution sources reported in logs and metrics.
const (
	sourceRegistry = "registry"
	sourceLazy     = "lazy"
	sourceProvider = "provider"
	sourceManaged  = "managed"
	sourceNone     = "none"
)

// Metrics holds the container's Prometheus collectors. A nil *Metrics is a
// valid no-op.
type Metrics struct {
	resolutions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "spf",
				Subsystem: "container",
				Name:      "resolutions_total",
				Help:      "Resolutions that had to build or load a value, by source and outcome.",
			},
			[]string{"source", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "spf",
				Subsystem: "container",
				Name:      "resolution_duration_seconds",
				Help:      "Time spent building or loading a value.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8), // 100µs to ~1.6s
			},
			[]string{"source"},
		),
	}
	for _, c := range []prometheus.Collector{m.resolutions, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(source string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.resolutions.WithLabelValues(source, outcome).Inc()
	m.duration.WithLabelValues(source).Observe(time.Since(started).Seconds())
}
