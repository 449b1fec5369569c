package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var Observer = &Metrics{
	mutex:      new(sync.RWMutex),
	prometheus: NewPrometheusMetrics(),
}

func init() {
	prometheus.MustRegister(
		Observer.prometheus.Analyses,
		Observer.prometheus.CacheHits,
		Observer.prometheus.RateLimitRejections,
		Observer.prometheus.QueueRateLimitHits,
		Observer.prometheus.QueueDepth,
		Observer.prometheus.QueueRunning,
	)
}

type Metrics struct {
	mutex      *sync.RWMutex
	prometheus Prometheus
}

// Analysis records one completed agent analysis and its resulting action.
func (m *Metrics) Analysis(agent, action string) {
	m.prometheus.Analyses.WithLabelValues(agent, action).Inc()
}

// CacheHit records a recommendation served from an agent's cache.
func (m *Metrics) CacheHit(agent string) {
	m.prometheus.CacheHits.WithLabelValues(agent).Inc()
}

// RateLimitRejection records an analysis rejected by the local limiter.
func (m *Metrics) RateLimitRejection(agent string) {
	m.prometheus.RateLimitRejections.WithLabelValues(agent).Inc()
}

// QueueRateLimitHit records an upstream 429-equivalent seen by the queue.
func (m *Metrics) QueueRateLimitHit() {
	m.prometheus.QueueRateLimitHits.Inc()
}

// QueueState mirrors the queue's waiting/running counters.
func (m *Metrics) QueueState(queued, running int) {
	m.prometheus.QueueDepth.Set(float64(queued))
	m.prometheus.QueueRunning.Set(float64(running))
}
