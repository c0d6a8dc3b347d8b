package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tool outcome labels.
const (
	OutcomeOK         = "ok"
	OutcomeUnresolved = "unresolved"
	OutcomeError      = "error"
)

var (
	toolInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insights_tool_invocations_total",
			Help: "Total number of clinical tool invocations",
		},
		[]string{"tool", "outcome"},
	)

	agentRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insights_agent_run_duration_seconds",
			Help:    "Duration of agent runs",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"status"},
	)

	agentIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insights_agent_iterations",
			Help:    "Model calls made per agent run",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
	)
)
