// Package metrics wraps the Prometheus collectors exported alongside the
// seedlink server's /health endpoint.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry wraps the Prometheus collectors used by the seedlink server.
type Registry struct {
	Connections       prometheus.Gauge
	RecordsPushed     prometheus.Counter
	RecordsDropped    prometheus.Counter
	FramesSent        *prometheus.CounterVec
	InfoRequests      *prometheus.CounterVec
	AcceptErrors      prometheus.Counter
	RateLimitRejected prometheus.Counter
}

// NewRegistry creates and registers the server's Prometheus collectors.
func NewRegistry() *Registry {
	return &Registry{
		Connections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "seedlink_connections_active",
			Help: "Number of active SeedLink client connections",
		}),
		RecordsPushed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "seedlink_records_pushed_total",
			Help: "Total number of miniSEED records pushed into the ring store",
		}),
		RecordsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "seedlink_records_dropped_total",
			Help: "Total number of inbound ingest messages rejected as malformed or misrouted",
		}),
		FramesSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "seedlink_frames_sent_total",
			Help: "Total number of wire frames written to clients, by protocol version",
		}, []string{"version"}),
		InfoRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "seedlink_info_requests_total",
			Help: "Total number of INFO requests served, by level",
		}, []string{"level"}),
		AcceptErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "seedlink_accept_errors_total",
			Help: "Total number of non-temporary TCP accept errors",
		}),
		RateLimitRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "seedlink_rate_limit_rejected_total",
			Help: "Total number of connections rejected by the per-IP or global rate limiter",
		}),
	}
}

// Handler returns an HTTP handler exposing the Prometheus metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.Handler()
}
