package poller

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type MetricsConfig struct {
	Namespace string
	Buckets   []float64
}

type Metrics struct {
	ticks        prometheus.Counter
	skippedTicks prometheus.Counter
	fetchErrors  *prometheus.CounterVec
	tickDuration prometheus.Histogram
}

func NewMetrics(registry prometheus.Registerer, config MetricsConfig) (*Metrics, error) {
	buckets := config.Buckets
	if len(buckets) == 0 {
		buckets = []float64{10, 20, 50, 100, 200, 500, 1000, 2000, 5000}
	}

	ret := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "sync_ticks_total",
			Help:      "Completed sync ticks.",
		}),
		skippedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "sync_skipped_ticks_total",
			Help:      "Ticks dropped because the previous one was still in flight.",
		}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "sync_fetch_error_total",
			Help:      "Failed fetches by snapshot field.",
		}, []string{"field"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "sync_tick_duration_milliseconds",
			Help:      "Time taken to run one fetch-and-apply cycle.",
			Buckets:   buckets,
		}),
	}

	for _, collector := range []prometheus.Collector{ret.ticks, ret.skippedTicks, ret.fetchErrors, ret.tickDuration} {
		err := registry.Register(collector)
		if err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return ret, nil
}

func (m *Metrics) observeTick(duration time.Duration) {
	if m == nil {
		return
	}

	durationMilli := float64(duration/time.Millisecond) + float64(duration%time.Millisecond)/float64(time.Millisecond)

	m.ticks.Inc()
	m.tickDuration.Observe(durationMilli)
}

func (m *Metrics) incSkipped() {
	if m == nil {
		return
	}

	m.skippedTicks.Inc()
}

func (m *Metrics) incFetchError(field string) {
	if m == nil {
		return
	}

	m.fetchErrors.WithLabelValues(field).Inc()
}
