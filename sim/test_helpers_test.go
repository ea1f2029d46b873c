package sim

import (
	"context"
	"testing"
	"time"
)

// testStart is a fixed simulated start for deterministic tests.
var testStart = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// singlePairCatalog builds the smallest useful world: one supplier with the
// given failure rate, one item in its category, one customer, and one
// inventory row for the pair.
func singlePairCatalog(t *testing.T, failureRate float64, inv Inventory) (*Catalog, []*Inventory) {
	t.Helper()
	cat, err := NewCatalog(
		[]*Supplier{{ID: 1, Name: "Acme Supply", Category: "Electronics", FailureRate: failureRate, FulfillmentWeight: 1.0}},
		[]*Item{{ID: 1, Name: "Widget", Category: "Electronics"}},
		[]*Customer{{ID: 1, Name: "Ada", Region: "North"}},
		testStart,
	)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	inv.ItemID = 1
	inv.SupplierID = 1
	inv.LastUpdated = testStart
	return cat, []*Inventory{&inv}
}

// newTestSimulator wires a simulator over a seeded MemStore. cfg zero-value
// fields are filled from DefaultConfig.
func newTestSimulator(t *testing.T, cfg Config, cat *Catalog, inv []*Inventory, seed int64) *Simulator {
	t.Helper()
	if cfg.Iterations == 0 {
		cfg = mergeDefaults(cfg)
	}
	store := NewMemStore()
	if err := store.SeedCatalog(context.Background(), cat, inv); err != nil {
		t.Fatalf("SeedCatalog: %v", err)
	}
	s, err := NewSimulator(cfg, cat, store, seed)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return s
}

func mergeDefaults(cfg Config) Config {
	def := DefaultConfig()
	def.Iterations = 1000
	if cfg.MaintenanceEvery != 0 {
		def.MaintenanceEvery = cfg.MaintenanceEvery
	}
	if cfg.RestockGranularity != "" {
		def.RestockGranularity = cfg.RestockGranularity
	}
	if cfg.NoOpPolicy != "" {
		def.NoOpPolicy = cfg.NoOpPolicy
	}
	return def
}

// mustCreateOrder inserts an order with one item of the given quantity for
// the single item/supplier pair and returns the order item.
func mustCreateOrder(t *testing.T, store Store, quantity int, at time.Time) *OrderItem {
	t.Helper()
	order := &Order{CustomerID: 1, OrderDate: at, Status: StatusUnfulfilled}
	items := []*OrderItem{{ItemID: 1, SupplierID: 1, Quantity: quantity}}
	if err := store.CreateOrder(context.Background(), order, items); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	return items[0]
}

// mustRefresh reloads the simulator's candidate cache from its store.
func mustRefresh(t *testing.T, s *Simulator) {
	t.Helper()
	if err := s.Cache.Refresh(context.Background(), s.Store); err != nil {
		t.Fatalf("Cache.Refresh: %v", err)
	}
}
