// Package simulation drives the three-step emergency workflow across the
// risk, contract and dispatch services.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/jonboulle/clockwork"

	"github.com/earth-sentinel/sentinel-dash/internal/domain/entity"
)

// ErrSimulationInFlight rejects a Simulate call while another one is
// unresolved. Rejected calls issue no network traffic.
var ErrSimulationInFlight = errors.New("a simulation is already in flight")

// Backend is the write side of the remote service clients used by the
// workflow.
type Backend interface {
	AssessRisk(ctx context.Context, location entity.Location) (entity.RiskAssessment, error)
	AutoTriggerContracts(ctx context.Context, riskAssessmentID string) error
	SimulateEmergency(ctx context.Context, emergencyType string, location entity.Location) error
}

type Step string

const (
	StepAssess    Step = "assess_risk"
	StepContracts Step = "trigger_contracts"
	StepDispatch  Step = "simulate_dispatch"
)

// Result records the outcome of one workflow run. It is transient: its
// effects only become visible through the next sync tick.
type Result struct {
	Assessment entity.RiskAssessment `json:"assessment"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`

	ContractsTriggered bool   `json:"contracts_triggered"`
	ContractsError     string `json:"contracts_error,omitempty"`
	DispatchSimulated  bool   `json:"dispatch_simulated"`
	DispatchError      string `json:"dispatch_error,omitempty"`
}

type Config struct {
	DefaultType     string
	DefaultLocation entity.Location
}

// Orchestrator runs at most one simulation at a time. The workflow is
// strictly sequential: step 1 gates everything, steps 2 and 3 are
// independent best-effort fan-out over the same risk event.
type Orchestrator struct {
	backend Backend
	clock   clockwork.Clock
	config  Config

	logger  *logr.Logger
	metrics *Metrics

	busy atomic.Bool
}

func New(backend Backend, clock clockwork.Clock, config Config) *Orchestrator {
	return &Orchestrator{
		backend: backend,
		clock:   clock,
		config:  config,
	}
}

func (o *Orchestrator) WithLogger(logger logr.Logger) *Orchestrator {
	o.logger = &logger

	return o
}

func (o *Orchestrator) WithMetrics(metrics *Metrics) *Orchestrator {
	o.metrics = metrics

	return o
}

// Busy reports whether a simulation is currently in flight.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// Simulate runs assess -> auto-trigger contracts -> simulate dispatch.
// A step-1 failure aborts the workflow; step-2 and step-3 failures are
// recorded in the result without aborting each other. The orchestrator
// never writes the snapshot store; callers surface effects through the
// next poll tick or a forced refresh.
func (o *Orchestrator) Simulate(ctx context.Context, location entity.Location, emergencyType string) (*Result, error) {
	if !o.busy.CompareAndSwap(false, true) {
		o.metrics.incRun(outcomeRejected)

		return nil, ErrSimulationInFlight
	}
	defer o.busy.Store(false)

	if emergencyType == "" {
		emergencyType = o.config.DefaultType
	}

	if location == (entity.Location{}) {
		location = o.config.DefaultLocation
	}

	ret := &Result{
		StartedAt: o.clock.Now().UTC(),
	}

	o.logInfo(1, "Simulation started", "step", StepAssess, "location", location, "emergencyType", emergencyType)

	assessment, err := o.backend.AssessRisk(ctx, location)
	if err != nil {
		o.metrics.incRun(outcomeAborted)

		// Step 1 has no downstream side effect to compensate.
		return nil, fmt.Errorf("risk assessment failed, aborting simulation: %w", err)
	}

	ret.Assessment = assessment

	o.logInfo(1, "Risk assessed", "step", StepContracts, "assessmentID", assessment.ID, "riskScore", assessment.RiskScore)

	err = o.backend.AutoTriggerContracts(ctx, assessment.ID)
	if err != nil {
		// Contracts and dispatch are independent consumers of the same
		// risk event; keep going.
		ret.ContractsError = err.Error()
		o.logError(err, "Contract trigger failed, continuing", "step", StepContracts)
	} else {
		ret.ContractsTriggered = true
	}

	err = o.backend.SimulateEmergency(ctx, emergencyType, location)
	if err != nil {
		ret.DispatchError = err.Error()
		o.logError(err, "Dispatch simulation failed", "step", StepDispatch)
	} else {
		ret.DispatchSimulated = true
	}

	ret.FinishedAt = o.clock.Now().UTC()

	o.metrics.incRun(outcomeCompleted)

	o.logInfo(1, "Simulation finished",
		"assessmentID", assessment.ID,
		"contractsTriggered", ret.ContractsTriggered,
		"dispatchSimulated", ret.DispatchSimulated,
	)

	return ret, nil
}

func (o *Orchestrator) logInfo(level int, msg string, keysAndValues ...any) {
	if o.logger == nil {
		return
	}

	o.logger.V(level).Info(msg, keysAndValues...)
}

func (o *Orchestrator) logError(err error, msg string, keysAndValues ...any) {
	if o.logger == nil {
		return
	}

	o.logger.Error(err, msg, keysAndValues...)
}
