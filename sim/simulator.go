package sim

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// maxEventRedraws bounds how many times a step under the retry no-op policy
// redraws the event kind before giving up and charging the step as idle.
const maxEventRedraws = 4

// Simulator is the core object that owns simulated time, the iteration
// counter and the step loop. A single goroutine drives it; handlers execute
// strictly sequentially, one per step, and all randomness flows from one
// partitioned seed.
type Simulator struct {
	Config  Config
	Catalog *Catalog
	Store   Store
	Clock   *Clock

	Cache     *UnfulfilledOrderCache
	LogBuffer *AttemptLogBuffer
	Metrics   *Metrics

	// RunID tags every emitted log and history record.
	RunID uuid.UUID

	// StepCount is the 1-based index of the step currently executing (or the
	// last one executed).
	StepCount int

	rng         *PartitionedRNG
	clockRNG    *rand.Rand
	eventRNG    *rand.Rand
	orderRNG    *rand.Rand
	fulfillRNG  *rand.Rand
	restockRNG  *rand.Rand
	eventWeight []float64
}

// NewSimulator validates the configuration and wires the engine to a seeded
// catalog and a store. The store must already hold the catalog's entities
// (see Store.SeedCatalog).
func NewSimulator(cfg Config, cat *Catalog, store Store, seed int64) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cat == nil {
		return nil, fmt.Errorf("nil catalog")
	}
	if store == nil {
		return nil, fmt.Errorf("nil store")
	}
	rng := NewPartitionedRNG(NewSimulationKey(seed))
	s := &Simulator{
		Config:      cfg,
		Catalog:     cat,
		Store:       store,
		Clock:       NewClock(cat.Start),
		Cache:       NewUnfulfilledOrderCache(),
		LogBuffer:   NewAttemptLogBuffer(),
		Metrics:     NewMetrics(),
		RunID:       uuid.New(),
		rng:         rng,
		clockRNG:    rng.ForSubsystem(SubsystemClock),
		eventRNG:    rng.ForSubsystem(SubsystemEvents),
		orderRNG:    rng.ForSubsystem(SubsystemOrders),
		fulfillRNG:  rng.ForSubsystem(SubsystemFulfillment),
		restockRNG:  rng.ForSubsystem(SubsystemRestock),
		eventWeight: cfg.weights(),
	}
	return s, nil
}

// Run executes the configured number of steps, then performs a final
// maintenance pass so a completed run always ends with a fully flushed log
// buffer, a final inventory snapshot and a commit. The returned error is
// fatal-only: store/connectivity failures, never handler faults.
func (sim *Simulator) Run(ctx context.Context) error {
	logrus.Infof("starting simulation at %s: %d steps, maintenance every %d",
		sim.Clock.Now().Format("2006-01-02"), sim.Config.Iterations, sim.Config.MaintenanceEvery)

	for i := 1; i <= sim.Config.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			// operator stop: the last commit already left a consistent state
			return fmt.Errorf("simulation interrupted at step %d: %w", i, err)
		}
		if err := sim.Step(ctx, i); err != nil {
			return err
		}
	}

	if err := sim.runMaintenance(ctx); err != nil {
		return fmt.Errorf("final maintenance: %w", err)
	}
	logrus.Infof("simulation completed at %s", sim.Clock.Now().Format("2006-01-02"))
	return nil
}

// Step executes exactly one iteration: advance the clock, run maintenance at
// period boundaries, draw one event kind from the configured weights and
// dispatch it. Handler faults are recorded with step number and event kind
// and never abort the run; only store-level failures propagate.
//
// Run calls Step for every iteration; tests drive it directly to observe
// state between maintenance commits.
func (sim *Simulator) Step(ctx context.Context, i int) error {
	sim.StepCount = i
	sim.Clock.Advance(sim.clockRNG, sim.Config.ClockStepMinMinutes, sim.Config.ClockStepMaxMinutes)

	if i%sim.Config.MaintenanceEvery == 0 {
		if err := sim.runMaintenance(ctx); err != nil {
			return err
		}
	}

	draws := 1
	if sim.Config.NoOpPolicy == NoOpRetry {
		draws = maxEventRedraws
	}
	for attempt := 0; attempt < draws; attempt++ {
		kind := sim.drawEventKind()
		ev := eventForKind(kind)
		err := ev.Execute(ctx, sim)
		sim.Metrics.EventCounts[kind]++

		switch {
		case err == nil:
			sim.Metrics.StepsExecuted++
			return nil
		case IsRecoverableNoOp(err):
			sim.Metrics.NoOpEvents++
			logrus.Debugf("step %d: %s no-op: %v", i, kind, err)
			// under the retry policy, redraw; under count, charge the step
		default:
			sim.Metrics.recordFault(i, kind, err)
			logrus.Errorf("step %d: %s failed: %v", i, kind, err)
			sim.Metrics.StepsExecuted++
			return nil
		}
	}
	sim.Metrics.StepsExecuted++
	return nil
}

// drawEventKind makes the weighted categorical draw over the four event
// kinds. Validation guarantees at least one positive weight.
func (sim *Simulator) drawEventKind() EventKind {
	idx := WeightedIndex(sim.eventRNG, sim.eventWeight)
	if idx < 0 || idx >= int(numEventKinds) {
		return EventIdle
	}
	return EventKind(idx)
}
