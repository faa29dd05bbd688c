package planner

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Failure stages reported by the planning_failures_total metric.
const (
	stageCandidates = "candidates"
	stageGenerate   = "generate"
	stagePersist    = "persist"
)

// Metrics holds the planner's Prometheus collectors.
type Metrics struct {
	planned    *prometheus.CounterVec
	unassigned prometheus.Counter
	failures   *prometheus.CounterVec
	duration   prometheus.Histogram
}

// NewMetrics creates the planner collectors and registers them with reg when
// reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		planned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "repair_planner",
			Name:      "work_orders_created_total",
			Help:      "Work orders created, by final priority.",
		}, []string{"priority"}),
		unassigned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "repair_planner",
			Name:      "work_orders_unassigned_total",
			Help:      "Work orders created without an assigned technician.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "repair_planner",
			Name:      "planning_failures_total",
			Help:      "Planning invocations that failed, by stage.",
		}, []string{"stage"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "repair_planner",
			Name:      "planning_duration_seconds",
			Help:      "Time to plan and persist one work order.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.planned, m.unassigned, m.failures, m.duration)
	}
	return m
}
