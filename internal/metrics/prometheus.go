package metrics

import "github.com/prometheus/client_golang/prometheus"

type Prometheus struct {
	Analyses            *prometheus.CounterVec
	CacheHits           *prometheus.CounterVec
	RateLimitRejections *prometheus.CounterVec
	QueueRateLimitHits  prometheus.Counter
	QueueDepth          prometheus.Gauge
	QueueRunning        prometheus.Gauge
}

func NewPrometheusMetrics() Prometheus {
	return Prometheus{
		Analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "polyedge",
				Name:      "analyses",
			}, []string{"agent", "action"}),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "polyedge",
				Name:      "cache_hits",
			}, []string{"agent"}),
		RateLimitRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "polyedge",
				Name:      "rate_limit_rejections",
			}, []string{"agent"}),
		QueueRateLimitHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "polyedge",
				Name:      "queue_rate_limit_hits",
			}),
		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "polyedge",
				Name:      "queue_depth",
			}),
		QueueRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "polyedge",
				Name:      "queue_running",
			}),
	}
}
