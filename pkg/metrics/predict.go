package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the predict handler, including the interaction log write
	PredictLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "predict_latency_seconds",
		Help:    "Latency of aspect predict handler",
		Buckets: prometheus.DefBuckets,
	})

	// Total number of predict requests served
	PredictRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "predict_requests_total",
		Help: "Total number of predict requests",
	})

	PredictNotFound = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "predict_not_found_total",
		Help: "Predict requests for listings without records in the assigned variant",
	})
)

func Init() {
	prometheus.MustRegister(
		PredictLatency,
		PredictRequests,
		PredictNotFound,
	)
}
