package sim

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by store lookups when no such row exists.
var ErrNotFound = errors.New("not found")

// Store is the persistence surface the engine drives. One implementation
// backs one run; a single goroutine calls it, so implementations need not be
// thread-safe.
//
// Transactional contract: mutations become durable only at Commit, which the
// maintenance task calls once per period. A crash between commits may lose up
// to one period of mutations, but whatever is durable must satisfy the data
// model invariants. Mutating methods must validate before writing so that a
// returned error implies no partial write.
//
// List methods return rows in deterministic (primary-key) order; the engine's
// reproducibility depends on it.
type Store interface {
	// SeedCatalog loads the immutable entity pool and the initial inventory
	// rows. Called once, before the first step.
	SeedCatalog(ctx context.Context, cat *Catalog, inventory []*Inventory) error

	// CreateOrder atomically inserts an order and its items, assigning IDs.
	// items must be non-empty: orphan orders violate the data model.
	CreateOrder(ctx context.Context, o *Order, items []*OrderItem) error
	GetOrder(ctx context.Context, id int64) (*Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus) error

	GetOrderItem(ctx context.Context, id int64) (*OrderItem, error)
	// ListOrderItems returns all items of one order.
	ListOrderItems(ctx context.Context, orderID int64) ([]*OrderItem, error)
	// ApplyFulfillment increments an item's fulfilled quantity by qty and
	// stamps the fulfilled date. qty must not exceed the remaining quantity.
	ApplyFulfillment(ctx context.Context, orderItemID int64, qty int, at time.Time) error

	GetInventory(ctx context.Context, itemID, supplierID int64) (*Inventory, error)
	// AdjustInventory applies a delta to quantity on hand. The result must
	// stay non-negative.
	AdjustInventory(ctx context.Context, itemID, supplierID int64, delta int, at time.Time) error
	// SetInventoryQuantity overwrites quantity on hand, used by restocking.
	SetInventoryQuantity(ctx context.Context, itemID, supplierID int64, qty int, at time.Time) error
	ListInventory(ctx context.Context) ([]*Inventory, error)
	// ListRestockEligible returns inventory rows with quantity on hand below
	// the reorder point.
	ListRestockEligible(ctx context.Context) ([]*Inventory, error)

	// ListOpenOrderItems returns items with remaining quantity whose parent
	// order is in a non-terminal status. Feeds the unfulfilled-order cache
	// and the backlog snapshot.
	ListOpenOrderItems(ctx context.Context) ([]*OrderItem, error)
	// ListExpirable returns unfulfilled/partial orders dated at or before
	// cutoff.
	ListExpirable(ctx context.Context, cutoff time.Time) ([]*Order, error)

	// AppendAttemptLogs batch-inserts fulfillment log records.
	AppendAttemptLogs(ctx context.Context, recs []AttemptRecord) error
	// AppendInventoryHistory batch-inserts snapshot records.
	AppendInventoryHistory(ctx context.Context, recs []InventoryHistoryRecord) error
	// ListAttemptLog and ListInventoryHistory expose the accumulated output
	// datasets, in insertion order, for export.
	ListAttemptLog(ctx context.Context) ([]AttemptRecord, error)
	ListInventoryHistory(ctx context.Context) ([]InventoryHistoryRecord, error)

	// Commit makes all mutations since the previous Commit durable.
	Commit(ctx context.Context) error
	Close() error
}
