package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededMemStore(t *testing.T, inv Inventory) *MemStore {
	t.Helper()
	store := NewMemStore()
	cat, rows := singlePairCatalog(t, 0, inv)
	require.NoError(t, store.SeedCatalog(context.Background(), cat, rows))
	return store
}

func TestMemStore_CreateOrderAssignsIDs(t *testing.T) {
	store := seededMemStore(t, Inventory{QuantityOnHand: 10, ReorderPoint: 2, SupplierMaxQuantity: 40, RestockWeight: 1})

	// WHEN two orders are created
	a := mustCreateOrder(t, store, 3, testStart)
	b := mustCreateOrder(t, store, 2, testStart)

	// THEN IDs are assigned sequentially and the rows round-trip
	assert.Equal(t, int64(1), a.OrderID)
	assert.Equal(t, int64(2), b.OrderID)
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	got, err := store.GetOrderItem(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)
	assert.Zero(t, got.FulfilledQuantity)
}

func TestMemStore_CreateOrderValidation(t *testing.T) {
	store := seededMemStore(t, Inventory{QuantityOnHand: 10, ReorderPoint: 2, SupplierMaxQuantity: 40, RestockWeight: 1})
	ctx := context.Background()

	err := store.CreateOrder(ctx, &Order{CustomerID: 1, Status: StatusUnfulfilled}, nil)
	assert.Error(t, err, "empty orders are rejected")

	err = store.CreateOrder(ctx, &Order{CustomerID: 1, Status: StatusUnfulfilled},
		[]*OrderItem{{ItemID: 1, SupplierID: 1, Quantity: 0}})
	assert.Error(t, err, "zero quantity is rejected")
}

func TestMemStore_ApplyFulfillmentGuards(t *testing.T) {
	store := seededMemStore(t, Inventory{QuantityOnHand: 10, ReorderPoint: 2, SupplierMaxQuantity: 40, RestockWeight: 1})
	ctx := context.Background()
	oi := mustCreateOrder(t, store, 3, testStart)

	// overfulfilling is rejected, partial progress accumulates
	assert.Error(t, store.ApplyFulfillment(ctx, oi.ID, 4, testStart))
	require.NoError(t, store.ApplyFulfillment(ctx, oi.ID, 2, testStart))
	assert.Error(t, store.ApplyFulfillment(ctx, oi.ID, 2, testStart))
	require.NoError(t, store.ApplyFulfillment(ctx, oi.ID, 1, testStart))

	got, err := store.GetOrderItem(ctx, oi.ID)
	require.NoError(t, err)
	assert.True(t, got.Complete())
}

func TestMemStore_AdjustInventoryNeverNegative(t *testing.T) {
	store := seededMemStore(t, Inventory{QuantityOnHand: 5, ReorderPoint: 2, SupplierMaxQuantity: 40, RestockWeight: 1})
	ctx := context.Background()

	assert.Error(t, store.AdjustInventory(ctx, 1, 1, -6, testStart))
	require.NoError(t, store.AdjustInventory(ctx, 1, 1, -5, testStart))

	inv, err := store.GetInventory(ctx, 1, 1)
	require.NoError(t, err)
	assert.Zero(t, inv.QuantityOnHand)
}

func TestMemStore_TerminalStatusGuard(t *testing.T) {
	store := seededMemStore(t, Inventory{QuantityOnHand: 5, ReorderPoint: 2, SupplierMaxQuantity: 40, RestockWeight: 1})
	ctx := context.Background()
	oi := mustCreateOrder(t, store, 1, testStart)

	require.NoError(t, store.UpdateOrderStatus(ctx, oi.OrderID, StatusExpired))
	assert.Error(t, store.UpdateOrderStatus(ctx, oi.OrderID, StatusUnfulfilled))
}

func TestMemStore_NotFound(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	_, err := store.GetOrder(ctx, 99)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = store.GetOrderItem(ctx, 99)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = store.GetInventory(ctx, 1, 1)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemStore_ListOpenOrderItemsSkipsTerminalAndComplete(t *testing.T) {
	store := seededMemStore(t, Inventory{QuantityOnHand: 50, ReorderPoint: 2, SupplierMaxQuantity: 40, RestockWeight: 1})
	ctx := context.Background()

	open := mustCreateOrder(t, store, 3, testStart)
	done := mustCreateOrder(t, store, 1, testStart)
	expired := mustCreateOrder(t, store, 2, testStart)

	require.NoError(t, store.ApplyFulfillment(ctx, done.ID, 1, testStart))
	require.NoError(t, store.UpdateOrderStatus(ctx, done.OrderID, StatusFulfilled))
	require.NoError(t, store.UpdateOrderStatus(ctx, expired.OrderID, StatusExpired))

	items, err := store.ListOpenOrderItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, open.ID, items[0].ID)
}

func TestMemStore_ListExpirableCutoff(t *testing.T) {
	store := seededMemStore(t, Inventory{QuantityOnHand: 50, ReorderPoint: 2, SupplierMaxQuantity: 40, RestockWeight: 1})
	ctx := context.Background()

	old := mustCreateOrder(t, store, 1, testStart)
	fresh := mustCreateOrder(t, store, 1, testStart.Add(48*time.Hour))

	got, err := store.ListExpirable(ctx, testStart.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, old.OrderID, got[0].ID)
	_ = fresh
}

func TestMemStore_ListInventoryDeterministicOrder(t *testing.T) {
	// GIVEN inventory rows seeded out of key order
	store := NewMemStore()
	cat, err := NewCatalog(
		[]*Supplier{
			{ID: 1, Name: "A", Category: "Food", FulfillmentWeight: 1},
			{ID: 2, Name: "B", Category: "Food", FulfillmentWeight: 1},
		},
		[]*Item{{ID: 1, Name: "Rice", Category: "Food"}, {ID: 2, Name: "Beans", Category: "Food"}},
		[]*Customer{{ID: 1, Name: "Ada", Region: "North"}},
		testStart,
	)
	require.NoError(t, err)
	rows := []*Inventory{
		{ItemID: 2, SupplierID: 1, QuantityOnHand: 1, ReorderPoint: 1, SupplierMaxQuantity: 10, RestockWeight: 1},
		{ItemID: 1, SupplierID: 2, QuantityOnHand: 1, ReorderPoint: 1, SupplierMaxQuantity: 10, RestockWeight: 1},
		{ItemID: 1, SupplierID: 1, QuantityOnHand: 1, ReorderPoint: 1, SupplierMaxQuantity: 10, RestockWeight: 1},
	}
	require.NoError(t, store.SeedCatalog(context.Background(), cat, rows))

	// THEN listing is ordered by (item, supplier)
	got, err := store.ListInventory(context.Background())
	require.NoError(t, err)
	keys := make([]InventoryKey, 0, len(got))
	for _, inv := range got {
		keys = append(keys, inv.Key())
	}
	assert.Equal(t, []InventoryKey{
		{ItemID: 1, SupplierID: 1},
		{ItemID: 1, SupplierID: 2},
		{ItemID: 2, SupplierID: 1},
	}, keys)
}

func TestMemStore_AccessorsReturnCopies(t *testing.T) {
	store := seededMemStore(t, Inventory{QuantityOnHand: 5, ReorderPoint: 2, SupplierMaxQuantity: 40, RestockWeight: 1})
	ctx := context.Background()
	oi := mustCreateOrder(t, store, 3, testStart)

	got, err := store.GetOrderItem(ctx, oi.ID)
	require.NoError(t, err)
	got.FulfilledQuantity = 999

	again, err := store.GetOrderItem(ctx, oi.ID)
	require.NoError(t, err)
	assert.Zero(t, again.FulfilledQuantity, "mutating a returned row must not touch the store")
}

func TestMemStore_ExportImportRoundTrip(t *testing.T) {
	// GIVEN a store with catalog, orders, progress, and log records
	store := seededMemStore(t, Inventory{QuantityOnHand: 5, ReorderPoint: 2, SupplierMaxQuantity: 40, RestockWeight: 1})
	ctx := context.Background()
	oi := mustCreateOrder(t, store, 3, testStart)
	require.NoError(t, store.ApplyFulfillment(ctx, oi.ID, 2, testStart))
	require.NoError(t, store.AppendAttemptLogs(ctx, []AttemptRecord{{OrderID: oi.OrderID, Outcome: OutcomeSuccess}}))
	require.NoError(t, store.AppendInventoryHistory(ctx, []InventoryHistoryRecord{{ItemID: 1, SupplierID: 1, QuantityOnHand: 3}}))

	// WHEN the state is exported and imported into a fresh store
	restored := NewMemStore()
	require.NoError(t, restored.ImportState(store.ExportState()))

	// THEN rows, progress, logs, and ID counters survive
	got, err := restored.GetOrderItem(ctx, oi.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.FulfilledQuantity)

	logs, err := restored.ListAttemptLog(ctx)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	hist, err := restored.ListInventoryHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, hist, 1)

	next := mustCreateOrder(t, restored, 1, testStart)
	assert.Equal(t, int64(2), next.OrderID, "ID counters continue where the export left off")
}

func TestMemStore_ListRestockEligible(t *testing.T) {
	store := seededMemStore(t, Inventory{QuantityOnHand: 1, ReorderPoint: 5, SupplierMaxQuantity: 40, RestockWeight: 1})

	got, err := store.ListRestockEligible(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	require.NoError(t, store.SetInventoryQuantity(context.Background(), 1, 1, 40, testStart))
	got, err = store.ListRestockEligible(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}
