package abtest

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AssignmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abtest_assignments_total",
			Help: "Count of first-time listing assignments by variant.",
		},
		[]string{"variant"},
	)

	LogEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abtest_log_entries_total",
			Help: "Count of experiment log entries appended by kind and variant.",
		},
		[]string{"kind", "variant"},
	)

	LogPersistFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abtest_log_persist_failures_total",
			Help: "Experiment log entries kept in memory but not written to durable storage.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(AssignmentsTotal, LogEntriesTotal, LogPersistFailuresTotal)
}
