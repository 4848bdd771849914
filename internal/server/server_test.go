package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/earth-sentinel/sentinel-dash/internal/domain/entity"
	"github.com/earth-sentinel/sentinel-dash/internal/server"
	"github.com/earth-sentinel/sentinel-dash/internal/simulation"
	"github.com/earth-sentinel/sentinel-dash/internal/store"
)

type fakeBackend struct {
	mu        sync.Mutex
	assessErr error
	gate      chan struct{}
	calls     int
}

func (f *fakeBackend) AssessRisk(ctx context.Context, location entity.Location) (entity.RiskAssessment, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	err := f.assessErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	return entity.RiskAssessment{ID: "A1", RiskScore: 0.8}, err
}

func (f *fakeBackend) AutoTriggerContracts(ctx context.Context, riskAssessmentID string) error {
	return nil
}

func (f *fakeBackend) SimulateEmergency(ctx context.Context, emergencyType string, location entity.Location) error {
	return nil
}

type fakeRefresher struct {
	mu    sync.Mutex
	ticks int
}

func (f *fakeRefresher) RunTick(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ticks++
}

func (f *fakeRefresher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.ticks
}

func newTestHandler(backend *fakeBackend) (*server.Handler, *store.Store, *fakeRefresher) {
	clock := clockwork.NewFakeClock()
	snapshotStore := store.New(clock)
	orchestrator := simulation.New(backend, clock, simulation.Config{DefaultType: "fire"})
	refresher := &fakeRefresher{}

	return server.NewHandler(snapshotStore, orchestrator, refresher, logr.Discard()), snapshotStore, refresher
}

func TestSnapshotEndpoint(t *testing.T) {
	handler, snapshotStore, _ := newTestHandler(&fakeBackend{})

	snapshotStore.ApplyAssessments([]entity.RiskAssessment{{ID: "a1", RiskScore: 0.9}})

	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/snapshot", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	body := struct {
		Snapshot entity.SyncSnapshot `json:"snapshot"`
		Overview struct {
			HighRiskCount int `json:"high_risk_count"`
		} `json:"overview"`
	}{}

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Snapshot.Assessments, 1)
	assert.Equal(t, 1, body.Overview.HighRiskCount)
}

func TestSimulateForcesRefresh(t *testing.T) {
	handler, _, refresher := newTestHandler(&fakeBackend{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulate", strings.NewReader(`{"emergency_type":"flood"}`))

	handler.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, refresher.count(), "completed simulation triggers an out-of-band tick")

	result := simulation.Result{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "A1", result.Assessment.ID)
	assert.True(t, result.ContractsTriggered)
}

func TestSimulateWhileBusyAnswersConflict(t *testing.T) {
	backend := &fakeBackend{gate: make(chan struct{})}
	handler, _, refresher := newTestHandler(backend)

	started := make(chan struct{})

	go func() {
		close(started)

		rec := httptest.NewRecorder()
		handler.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/simulate", nil))
	}()

	<-started

	// Wait for the first run to hold the busy flag.
	for {
		backend.mu.Lock()
		calls := backend.calls
		backend.mu.Unlock()

		if calls > 0 {
			break
		}

		time.Sleep(time.Millisecond)
	}

	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/simulate", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Zero(t, refresher.count(), "rejected simulation does not refresh")

	close(backend.gate)
}

func TestSimulateAbortAnswersBadGateway(t *testing.T) {
	backend := &fakeBackend{assessErr: context.DeadlineExceeded}
	handler, _, refresher := newTestHandler(backend)

	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/simulate", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Zero(t, refresher.count())
}

func TestRefreshEndpoint(t *testing.T) {
	handler, _, refresher := newTestHandler(&fakeBackend{})

	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, refresher.count())
}
