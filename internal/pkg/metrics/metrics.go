package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ScansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fund_tracer",
		Name:      "scans_total",
		Help:      "Finished scans by outcome (complete, truncated, failed).",
	}, []string{"status"})

	ScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fund_tracer",
		Name:      "scan_duration_seconds",
		Help:      "Wall-clock duration of scans.",
		Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	EdgesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fund_tracer",
		Name:      "edges_total",
		Help:      "Emitted transfer edges by destination classification.",
	}, []string{"classification"})

	TruncationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fund_tracer",
		Name:      "truncations_total",
		Help:      "Failures absorbed by scans, by stage.",
	}, []string{"kind"})

	RPCRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fund_tracer",
		Name:      "rpc_requests_total",
		Help:      "JSON-RPC requests issued to chain nodes.",
	}, []string{"method", "status"})

	registerOnce sync.Once
)

// MustRegisterMetrics registers all collectors with the default registry. Safe to call more than once.
func MustRegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ScansTotal, ScanDuration, EdgesTotal, TruncationsTotal, RPCRequestsTotal)
	})
}

// ObserveRPC counts one RPC call outcome.
func ObserveRPC(method string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	RPCRequestsTotal.WithLabelValues(method, status).Inc()
}
