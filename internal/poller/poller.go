// Package poller keeps the dashboard store consistent with the remote
// backend through fixed-interval polling of three independent resources.
package poller

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/earth-sentinel/sentinel-dash/internal/domain/entity"
	"github.com/earth-sentinel/sentinel-dash/internal/store"
)

// Backend is the read side of the remote service clients.
type Backend interface {
	ListRiskHistory(ctx context.Context, limit int) ([]entity.RiskAssessment, error)
	ListContracts(ctx context.Context) ([]entity.Contract, error)
	GetDispatchDashboard(ctx context.Context) (entity.SystemStats, error)
}

type Config struct {
	Interval     time.Duration
	HistoryLimit int
}

// Poller alternates Idle -> Fetching -> Idle on a fixed period. Within
// one tick the three fetches run concurrently and fail independently: a
// failed fetch leaves its field stale and never blocks the other two.
// There is no per-tick retry; the next tick is the retry mechanism.
type Poller struct {
	backend Backend
	store   *store.Store
	clock   clockwork.Clock
	config  Config

	metrics *Metrics
	logger  *logr.Logger

	// Guards against overlapping ticks. A tick firing while the
	// previous one is still fetching is dropped, not queued.
	inFlight atomic.Bool
}

func New(backend Backend, store *store.Store, clock clockwork.Clock, config Config) *Poller {
	return &Poller{
		backend: backend,
		store:   store,
		clock:   clock,
		config:  config,
	}
}

func (p *Poller) WithLogger(logger logr.Logger) *Poller {
	p.logger = &logger

	return p
}

func (p *Poller) WithMetrics(metrics *Metrics) *Poller {
	p.metrics = metrics

	return p
}

// Start runs an initial fetch and then polls until ctx expires.
// Cancelling ctx stops future ticks; in-flight fetches finish on their
// own and no-op against a closed store.
func (p *Poller) Start(ctx context.Context) error {
	p.RunTick(ctx)

	ticker := p.clock.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logInfo(1, "Poller stopped")

			return ctx.Err()
		case <-ticker.Chan():
			if !p.inFlight.CompareAndSwap(false, true) {
				p.metrics.incSkipped()
				p.logInfo(1, "Tick dropped, previous still in flight")

				continue
			}

			go func() {
				defer p.inFlight.Store(false)

				p.tick(ctx)
			}()
		}
	}
}

// RunTick runs one fetch-and-apply cycle synchronously. It is the
// out-of-band refresh entry point and does nothing when a tick is
// already in flight.
func (p *Poller) RunTick(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.metrics.incSkipped()

		return
	}
	defer p.inFlight.Store(false)

	p.tick(ctx)
}

func (p *Poller) tick(ctx context.Context) {
	start := p.clock.Now()

	// No shared cancel context: one failing fetch must not cancel or
	// roll back its siblings, so failures are recorded, not returned.
	group := errgroup.Group{}

	group.Go(func() error {
		assessments, err := p.backend.ListRiskHistory(ctx, p.config.HistoryLimit)
		if err != nil {
			p.fetchFailed(entity.FieldAssessments, err)

			return nil
		}

		p.store.ApplyAssessments(assessments)

		return nil
	})

	group.Go(func() error {
		contracts, err := p.backend.ListContracts(ctx)
		if err != nil {
			p.fetchFailed(entity.FieldContracts, err)

			return nil
		}

		p.store.ApplyContracts(contracts)

		return nil
	})

	group.Go(func() error {
		stats, err := p.backend.GetDispatchDashboard(ctx)
		if err != nil {
			p.fetchFailed(entity.FieldStats, err)

			return nil
		}

		p.store.ApplyStats(stats)

		return nil
	})

	_ = group.Wait()

	p.metrics.observeTick(p.clock.Since(start))
	p.logInfo(3, "Tick done", "duration", p.clock.Since(start).String())
}

func (p *Poller) fetchFailed(field entity.Field, err error) {
	p.store.SetFieldError(field, err)
	p.metrics.incFetchError(string(field))
	p.logError(err, "Fetch failed, keeping stale value", "field", field)
}

func (p *Poller) logInfo(level int, msg string, keysAndValues ...any) {
	if p.logger == nil {
		return
	}

	p.logger.V(level).Info(msg, keysAndValues...)
}

func (p *Poller) logError(err error, msg string, keysAndValues ...any) {
	if p.logger == nil {
		return
	}

	p.logger.Error(err, msg, keysAndValues...)
}
