package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts cache lookups per logical cache name. A nil *Metrics is a no-op.
type Metrics struct {
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec
	errors *prometheus.CounterVec
}

// NewMetrics registers the cache counters with registry. A nil registry
// disables metrics.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		return nil
	}
	factory := promauto.With(registry)
	return &Metrics{
		hits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gemcert_cache_hits_total",
			Help: "Total number of certificate cache hits",
		}, []string{"cache"}),
		misses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gemcert_cache_misses_total",
			Help: "Total number of certificate cache misses",
		}, []string{"cache"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gemcert_cache_errors_total",
			Help: "Total number of cache backend errors",
		}, []string{"cache"}),
	}
}

func (m *Metrics) Hit(name string) {
	if m == nil {
		return
	}
	m.hits.WithLabelValues(name).Inc()
}

func (m *Metrics) Miss(name string) {
	if m == nil {
		return
	}
	m.misses.WithLabelValues(name).Inc()
}

func (m *Metrics) Error(name string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(name).Inc()
}
