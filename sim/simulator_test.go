package sim_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JamesBuckley3/supply-chain-simulator/sim"
	"github.com/JamesBuckley3/supply-chain-simulator/sim/seedgen"
)

var runStart = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// newRun wires a simulator over a generated catalog and a fresh MemStore.
// RunID is pinned so two runs with the same seed are byte-for-byte comparable.
func newRun(t *testing.T, cfg sim.Config, seed int64) (*sim.Simulator, *sim.MemStore) {
	t.Helper()
	genCfg := seedgen.DefaultConfig()
	genCfg.Suppliers = 4
	genCfg.Items = 12
	genCfg.Customers = 20
	cat, inventory, err := seedgen.Generate(genCfg, seed, runStart)
	require.NoError(t, err)

	store := sim.NewMemStore()
	require.NoError(t, store.SeedCatalog(context.Background(), cat, inventory))

	s, err := sim.NewSimulator(cfg, cat, store, seed)
	require.NoError(t, err)
	s.RunID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	return s, store
}

func smallRunConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Iterations = 2000
	cfg.MaintenanceEvery = 50
	return cfg
}

func TestRun_SameSeedSameOutcome(t *testing.T) {
	// GIVEN two simulators with identical seed, config and run ID
	ctx := context.Background()
	a, storeA := newRun(t, smallRunConfig(), 42)
	b, storeB := newRun(t, smallRunConfig(), 42)

	// WHEN both run to completion
	require.NoError(t, a.Run(ctx))
	require.NoError(t, b.Run(ctx))

	// THEN every observable output matches exactly
	assert.Equal(t, a.Metrics, b.Metrics)

	logsA, err := storeA.ListAttemptLog(ctx)
	require.NoError(t, err)
	logsB, err := storeB.ListAttemptLog(ctx)
	require.NoError(t, err)
	assert.Equal(t, logsA, logsB)

	histA, err := storeA.ListInventoryHistory(ctx)
	require.NoError(t, err)
	histB, err := storeB.ListInventoryHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, histA, histB)

	ordersA, err := storeA.ListOrders(ctx)
	require.NoError(t, err)
	ordersB, err := storeB.ListOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, ordersA, ordersB)

	invA, err := storeA.ListInventory(ctx)
	require.NoError(t, err)
	invB, err := storeB.ListInventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, invA, invB)
}

func TestRun_DifferentSeedsDiverge(t *testing.T) {
	ctx := context.Background()
	a, _ := newRun(t, smallRunConfig(), 42)
	b, _ := newRun(t, smallRunConfig(), 43)

	require.NoError(t, a.Run(ctx))
	require.NoError(t, b.Run(ctx))

	assert.NotEqual(t, a.Metrics, b.Metrics)
}

// assertInvariants checks the cross-table consistency rules the engine must
// preserve at all times.
func assertInvariants(t *testing.T, ctx context.Context, store *sim.MemStore) {
	t.Helper()

	inventory, err := store.ListInventory(ctx)
	require.NoError(t, err)
	for _, inv := range inventory {
		require.GreaterOrEqual(t, inv.QuantityOnHand, 0,
			"inventory item=%d supplier=%d went negative", inv.ItemID, inv.SupplierID)
	}

	orders, err := store.ListOrders(ctx)
	require.NoError(t, err)
	for _, o := range orders {
		items, err := store.ListOrderItems(ctx, o.ID)
		require.NoError(t, err)
		require.NotEmpty(t, items, "order %d has no items", o.ID)

		complete, open := 0, 0
		for _, oi := range items {
			require.GreaterOrEqual(t, oi.FulfilledQuantity, 0)
			require.LessOrEqual(t, oi.FulfilledQuantity, oi.Quantity,
				"order item %d overfulfilled", oi.ID)
			if oi.Complete() {
				complete++
			} else {
				open++
			}
		}

		switch o.Status {
		case sim.StatusFulfilled:
			require.Zero(t, open, "fulfilled order %d has open items", o.ID)
		case sim.StatusPartial, sim.StatusPartialExpired:
			require.Greater(t, complete, 0, "partial order %d has no complete line", o.ID)
			require.Greater(t, open, 0, "partial order %d has no open line", o.ID)
		case sim.StatusUnfulfilled, sim.StatusExpired:
			require.Zero(t, complete, "order %d status %s with a complete line", o.ID, o.Status)
		default:
			t.Fatalf("order %d has unknown status %q", o.ID, o.Status)
		}
	}
}

func TestRun_InvariantsHoldAcrossMaintenanceBoundaries(t *testing.T) {
	// GIVEN a run driven step by step
	ctx := context.Background()
	cfg := smallRunConfig()
	cfg.Iterations = 1500
	cfg.MaintenanceEvery = 100
	s, store := newRun(t, cfg, 7)

	prevFulfilled := make(map[int64]int)

	for i := 1; i <= cfg.Iterations; i++ {
		require.NoError(t, s.Step(ctx, i))

		if i%cfg.MaintenanceEvery != 0 {
			continue
		}
		// THEN the consistency rules hold at every maintenance boundary
		assertInvariants(t, ctx, store)

		// and fulfillment progress never regresses
		orders, err := store.ListOrders(ctx)
		require.NoError(t, err)
		for _, o := range orders {
			items, err := store.ListOrderItems(ctx, o.ID)
			require.NoError(t, err)
			for _, oi := range items {
				require.GreaterOrEqual(t, oi.FulfilledQuantity, prevFulfilled[oi.ID],
					"order item %d regressed", oi.ID)
				prevFulfilled[oi.ID] = oi.FulfilledQuantity
			}
		}
	}

	// the run did real work and never faulted
	assert.Positive(t, s.Metrics.OrdersCreated)
	assert.Positive(t, s.Metrics.AttemptSuccesses)
	assert.Empty(t, s.Metrics.Faults)
}

func TestRun_FinalMaintenanceFlushesEverything(t *testing.T) {
	// GIVEN a completed run
	ctx := context.Background()
	s, store := newRun(t, smallRunConfig(), 42)
	require.NoError(t, s.Run(ctx))

	// THEN no attempt record is left buffered
	assert.Zero(t, s.LogBuffer.Len())
	logs, err := store.ListAttemptLog(ctx)
	require.NoError(t, err)
	total := s.Metrics.AttemptSuccesses + s.Metrics.AttemptFailures
	assert.Len(t, logs, total)
	assert.Equal(t, total, s.Metrics.LogRecordsFlushed)

	// every commit wrote one snapshot per inventory row
	inventory, err := store.ListInventory(ctx)
	require.NoError(t, err)
	hist, err := store.ListInventoryHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, hist, len(inventory)*s.Metrics.MaintenanceRuns)

	// 2000 steps at period 50, plus the final pass
	assert.Equal(t, 2000/50+1, s.Metrics.MaintenanceRuns)
	assert.Equal(t, s.Metrics.MaintenanceRuns, store.Commits())
	assert.Equal(t, 2000, s.Metrics.StepsExecuted)
}

func TestRun_RetryPolicyCompletes(t *testing.T) {
	ctx := context.Background()
	cfg := smallRunConfig()
	cfg.Iterations = 500
	cfg.NoOpPolicy = sim.NoOpRetry

	s, store := newRun(t, cfg, 42)
	require.NoError(t, s.Run(ctx))

	assert.Equal(t, 500, s.Metrics.StepsExecuted)
	assertInvariants(t, ctx, store)
}

func TestRun_ContextCancellationStopsTheRun(t *testing.T) {
	// GIVEN an already-cancelled context
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, _ := newRun(t, smallRunConfig(), 42)
	err := s.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, s.Metrics.StepsExecuted)
}

func TestNewSimulator_RejectsBadInputs(t *testing.T) {
	cfg := smallRunConfig()
	cat, inventory, err := seedgen.Generate(seedgen.DefaultConfig(), 1, runStart)
	require.NoError(t, err)
	store := sim.NewMemStore()
	require.NoError(t, store.SeedCatalog(context.Background(), cat, inventory))

	_, err = sim.NewSimulator(sim.Config{}, cat, store, 1)
	assert.Error(t, err, "zero config fails validation")
	_, err = sim.NewSimulator(cfg, nil, store, 1)
	assert.Error(t, err)
	_, err = sim.NewSimulator(cfg, cat, nil, 1)
	assert.Error(t, err)
}
