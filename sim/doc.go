// Package sim provides the discrete-event simulation engine for the supply
// chain simulator.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - entities.go: the data model (orders, order items, inventory) and its
//     status derivation rules
//   - events.go: the four event kinds the per-step categorical draw selects
//     between
//   - simulator.go: the step loop, event dispatch and fault handling
//
// # Architecture
//
// A single goroutine drives the run. Each step advances the simulated clock,
// draws one event kind from configured weights, and dispatches to a handler
// (order_creation.go, fulfillment.go, restock.go). Handlers mutate entity
// state through the Store interface (store.go), sample fulfillment candidates
// from the UnfulfilledOrderCache (cache.go), and buffer attempt records in
// the AttemptLogBuffer (logbuffer.go). Every K steps the maintenance task
// (maintenance.go) expires stale orders, refreshes the cache, flushes the
// buffer, snapshots inventory, and commits.
//
// Durable store backends live in sub-packages (sim/store/sqlite,
// sim/store/postgres); MemStore in this package is the reference
// implementation they build on. Synthetic catalogs come from sim/seedgen and
// CSV export of the output datasets from sim/export.
//
// # Determinism
//
// All randomness is drawn from a PartitionedRNG (rng.go) derived from one
// master seed, with an isolated stream per subsystem. The same seed and
// configuration reproduce a run bit-for-bit.
package sim
