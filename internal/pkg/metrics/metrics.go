package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionInits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lexgate_session_inits_total",
		Help: "Session initializations by outcome",
	}, []string{"status"})

	StageRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lexgate_stage_runs_total",
		Help: "Lifecycle stage executions by stage and outcome",
	}, []string{"stage", "status"})

	OrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lexgate_orders_total",
		Help: "Orders processed by outcome and side",
	}, []string{"status", "side"})

	RelaySubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lexgate_relay_submissions_total",
		Help: "Gasless batches submitted through the relayer",
	}, []string{"kind", "status"})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lexgate_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
