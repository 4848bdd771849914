package simulation

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeCompleted = "completed"
	outcomeAborted   = "aborted"
	outcomeRejected  = "rejected"
)

type MetricsConfig struct {
	Namespace string
}

type Metrics struct {
	runs *prometheus.CounterVec
}

func NewMetrics(registry prometheus.Registerer, config MetricsConfig) (*Metrics, error) {
	ret := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "simulation_runs_total",
			Help:      "Simulation workflow invocations by outcome.",
		}, []string{"outcome"}),
	}

	err := registry.Register(ret.runs)
	if err != nil {
		return nil, fmt.Errorf("failed to register metric: %w", err)
	}

	return ret, nil
}

func (m *Metrics) incRun(outcome string) {
	if m == nil {
		return
	}

	m.runs.WithLabelValues(outcome).Inc()
}
