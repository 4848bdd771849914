package poller_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/earth-sentinel/sentinel-dash/internal/domain/entity"
	"github.com/earth-sentinel/sentinel-dash/internal/poller"
	"github.com/earth-sentinel/sentinel-dash/internal/store"
)

// Helper

var errBackendDown = errors.New("backend down")

type fakeBackend struct {
	mu sync.Mutex

	assessments []entity.RiskAssessment
	contracts   []entity.Contract
	stats       entity.SystemStats

	riskErr      error
	contractsErr error
	statsErr     error

	riskCalls int

	// When set, ListRiskHistory blocks until the channel is closed.
	riskGate chan struct{}
}

func (f *fakeBackend) ListRiskHistory(ctx context.Context, limit int) ([]entity.RiskAssessment, error) {
	f.mu.Lock()
	f.riskCalls++
	gate := f.riskGate
	ret, err := f.assessments, f.riskErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	return ret, err
}

func (f *fakeBackend) ListContracts(ctx context.Context) ([]entity.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.contracts, f.contractsErr
}

func (f *fakeBackend) GetDispatchDashboard(ctx context.Context) (entity.SystemStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.stats, f.statsErr
}

func (f *fakeBackend) countRiskCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.riskCalls
}

func counterValue(registry *prometheus.Registry, name string, labelValue string) float64 {
	families, err := registry.Gather()
	Expect(err).NotTo(HaveOccurred())

	for _, family := range families {
		if family == nil || family.Name == nil || *family.Name != name {
			continue
		}

		for _, metric := range family.Metric {
			if metric == nil || metric.Counter == nil {
				continue
			}

			if labelValue == "" {
				return metric.Counter.GetValue()
			}

			for _, label := range metric.Label {
				if label.GetValue() == labelValue {
					return metric.Counter.GetValue()
				}
			}
		}
	}

	return 0
}

// Go Test

func TestPoller(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Poller test suite")
}

// Test Cases

var _ = Describe("Running one tick", func() {
	var backend *fakeBackend
	var snapshotStore *store.Store
	var registry *prometheus.Registry
	var p *poller.Poller

	config := poller.Config{Interval: 30 * time.Second, HistoryLimit: 20}

	BeforeEach(func() {
		backend = &fakeBackend{
			assessments: []entity.RiskAssessment{{ID: "a1", RiskScore: 0.8}},
			contracts:   []entity.Contract{{ID: "c1"}},
			stats:       entity.SystemStats{TotalResources: 4},
		}

		snapshotStore = store.New(clockwork.NewFakeClock())
		registry = prometheus.NewRegistry()

		metrics, err := poller.NewMetrics(registry, poller.MetricsConfig{Namespace: "test"})
		Expect(err).NotTo(HaveOccurred())

		p = poller.New(backend, snapshotStore, clockwork.NewFakeClock(), config).WithMetrics(metrics)
	})

	When("all three fetches succeed", func() {
		It("applies every field", func(ctx SpecContext) {
			p.RunTick(ctx)

			snapshot := snapshotStore.Snapshot()
			Expect(snapshot.Assessments).To(HaveLen(1))
			Expect(snapshot.Contracts).To(HaveLen(1))
			Expect(snapshot.Stats.TotalResources).To(Equal(4))

			Expect(counterValue(registry, "test_sync_ticks_total", "")).To(Equal(1.0))
		})
	})

	When("the risk fetch fails", func() {
		BeforeEach(func() {
			// Seed a previous good value so staleness is observable.
			snapshotStore.ApplyAssessments([]entity.RiskAssessment{{ID: "stale"}})

			backend.riskErr = errBackendDown
		})

		It("keeps the risk field stale and still updates the other two", func(ctx SpecContext) {
			p.RunTick(ctx)

			snapshot := snapshotStore.Snapshot()

			By("leaving the previous assessments in place")
			Expect(snapshot.Assessments).To(HaveLen(1))
			Expect(snapshot.Assessments[0].ID).To(Equal("stale"))
			Expect(snapshot.Health[entity.FieldAssessments].LastError).To(ContainSubstring("backend down"))

			By("updating contracts and stats regardless")
			Expect(snapshot.Contracts).To(HaveLen(1))
			Expect(snapshot.Stats.TotalResources).To(Equal(4))

			By("counting the failure per field")
			Expect(counterValue(registry, "test_sync_fetch_error_total", "assessments")).To(Equal(1.0))
		})
	})

	When("a tick is still in flight", func() {
		BeforeEach(func() {
			backend.riskGate = make(chan struct{})
		})

		It("drops the overlapping tick instead of queueing it", func(ctx SpecContext) {
			done := make(chan struct{})

			go func() {
				defer close(done)

				p.RunTick(ctx)
			}()

			Eventually(backend.countRiskCalls).Should(Equal(1))

			p.RunTick(ctx) // returns immediately, dropped

			Expect(backend.countRiskCalls()).To(Equal(1))
			Expect(counterValue(registry, "test_sync_skipped_ticks_total", "")).To(Equal(1.0))

			close(backend.riskGate)
			Eventually(done).Should(BeClosed())
		})
	})
})

var _ = Describe("Running the poll loop", func() {
	var backend *fakeBackend
	var snapshotStore *store.Store
	var clock clockwork.FakeClock

	config := poller.Config{Interval: 30 * time.Second, HistoryLimit: 20}

	BeforeEach(func() {
		backend = &fakeBackend{
			assessments: []entity.RiskAssessment{{ID: "a1"}},
		}

		clock = clockwork.NewFakeClock()
		snapshotStore = store.New(clock)
	})

	It("fetches once at start and again per interval", func(ctx SpecContext) {
		p := poller.New(backend, snapshotStore, clock, config)

		loopCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		done := make(chan struct{})

		go func() {
			defer close(done)

			_ = p.Start(loopCtx)
		}()

		By("running the initial fetch")
		Eventually(backend.countRiskCalls).Should(Equal(1))

		By("waiting on the ticker")
		clock.BlockUntil(1)
		clock.Advance(config.Interval)

		Eventually(backend.countRiskCalls).Should(Equal(2))

		By("stopping on cancellation")
		cancel()
		Eventually(done).Should(BeClosed())
	})
})
