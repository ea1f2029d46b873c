package sim

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// MemStore is the reference Store: all state in process memory. It is the
// engine's default backend and the substrate durable backends wrap (the
// sqlite store embeds it and persists a snapshot on Commit).
//
// All accessors hand out copies, never internal row pointers, so the only
// way to mutate state is through the mutating methods — which validate first.
type MemStore struct {
	catalog *Catalog

	inventory     map[InventoryKey]*Inventory
	inventoryKeys []InventoryKey // seed order, ascending (item, supplier)

	orders       map[int64]*Order
	orderIDs     []int64 // ascending, insertion order
	orderItems   map[int64]*OrderItem
	itemsByOrder map[int64][]int64 // order item IDs in insertion order

	attemptLog []AttemptRecord
	history    []InventoryHistoryRecord

	nextOrderID     int64
	nextOrderItemID int64

	commits int
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		inventory:       make(map[InventoryKey]*Inventory),
		orders:          make(map[int64]*Order),
		orderItems:      make(map[int64]*OrderItem),
		itemsByOrder:    make(map[int64][]int64),
		nextOrderID:     1,
		nextOrderItemID: 1,
	}
}

// Catalog returns the seeded entity pool, or nil before SeedCatalog.
func (s *MemStore) Catalog() *Catalog {
	return s.catalog
}

// Commits returns how many times Commit has been called.
func (s *MemStore) Commits() int {
	return s.commits
}

func (s *MemStore) SeedCatalog(_ context.Context, cat *Catalog, inventory []*Inventory) error {
	if s.catalog != nil {
		return fmt.Errorf("catalog already seeded")
	}
	if cat == nil {
		return fmt.Errorf("nil catalog")
	}
	s.catalog = cat
	for _, inv := range inventory {
		k := inv.Key()
		if _, dup := s.inventory[k]; dup {
			return fmt.Errorf("duplicate inventory row %+v", k)
		}
		if inv.QuantityOnHand < 0 || inv.ReorderPoint < 0 {
			return fmt.Errorf("inventory row %+v has negative quantities", k)
		}
		cp := *inv
		s.inventory[k] = &cp
		s.inventoryKeys = append(s.inventoryKeys, k)
	}
	sort.Slice(s.inventoryKeys, func(i, j int) bool {
		a, b := s.inventoryKeys[i], s.inventoryKeys[j]
		if a.ItemID != b.ItemID {
			return a.ItemID < b.ItemID
		}
		return a.SupplierID < b.SupplierID
	})
	return nil
}

func (s *MemStore) CreateOrder(_ context.Context, o *Order, items []*OrderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("order must have at least one item")
	}
	for _, oi := range items {
		if oi.Quantity < 1 {
			return fmt.Errorf("order item quantity must be at least 1, got %d", oi.Quantity)
		}
		if oi.FulfilledQuantity != 0 {
			return fmt.Errorf("new order item must start unfulfilled")
		}
	}
	o.ID = s.nextOrderID
	s.nextOrderID++
	cp := *o
	s.orders[cp.ID] = &cp
	s.orderIDs = append(s.orderIDs, cp.ID)
	for _, oi := range items {
		oi.ID = s.nextOrderItemID
		oi.OrderID = cp.ID
		s.nextOrderItemID++
		ocp := *oi
		s.orderItems[ocp.ID] = &ocp
		s.itemsByOrder[cp.ID] = append(s.itemsByOrder[cp.ID], ocp.ID)
	}
	return nil
}

func (s *MemStore) GetOrder(_ context.Context, id int64) (*Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	cp := *o
	return &cp, nil
}

func (s *MemStore) UpdateOrderStatus(_ context.Context, id int64, status OrderStatus) error {
	o, ok := s.orders[id]
	if !ok {
		return fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if o.Status.Terminal() {
		return fmt.Errorf("order %d is %s, cannot transition to %s", id, o.Status, status)
	}
	o.Status = status
	return nil
}

func (s *MemStore) GetOrderItem(_ context.Context, id int64) (*OrderItem, error) {
	oi, ok := s.orderItems[id]
	if !ok {
		return nil, fmt.Errorf("order item %d: %w", id, ErrNotFound)
	}
	cp := *oi
	return &cp, nil
}

func (s *MemStore) ListOrderItems(_ context.Context, orderID int64) ([]*OrderItem, error) {
	ids, ok := s.itemsByOrder[orderID]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	out := make([]*OrderItem, 0, len(ids))
	for _, id := range ids {
		cp := *s.orderItems[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemStore) ApplyFulfillment(_ context.Context, orderItemID int64, qty int, at time.Time) error {
	oi, ok := s.orderItems[orderItemID]
	if !ok {
		return fmt.Errorf("order item %d: %w", orderItemID, ErrNotFound)
	}
	if qty < 1 {
		return fmt.Errorf("fulfillment quantity must be at least 1, got %d", qty)
	}
	if qty > oi.Remaining() {
		return fmt.Errorf("order item %d: fulfilling %d exceeds remaining %d",
			orderItemID, qty, oi.Remaining())
	}
	oi.FulfilledQuantity += qty
	oi.FulfilledDate = at
	return nil
}

func (s *MemStore) GetInventory(_ context.Context, itemID, supplierID int64) (*Inventory, error) {
	inv, ok := s.inventory[InventoryKey{ItemID: itemID, SupplierID: supplierID}]
	if !ok {
		return nil, fmt.Errorf("inventory item=%d supplier=%d: %w", itemID, supplierID, ErrNotFound)
	}
	cp := *inv
	return &cp, nil
}

func (s *MemStore) AdjustInventory(_ context.Context, itemID, supplierID int64, delta int, at time.Time) error {
	inv, ok := s.inventory[InventoryKey{ItemID: itemID, SupplierID: supplierID}]
	if !ok {
		return fmt.Errorf("inventory item=%d supplier=%d: %w", itemID, supplierID, ErrNotFound)
	}
	if inv.QuantityOnHand+delta < 0 {
		return fmt.Errorf("inventory item=%d supplier=%d: adjust by %d would drop below zero (have %d)",
			itemID, supplierID, delta, inv.QuantityOnHand)
	}
	inv.QuantityOnHand += delta
	inv.LastUpdated = at
	return nil
}

func (s *MemStore) SetInventoryQuantity(_ context.Context, itemID, supplierID int64, qty int, at time.Time) error {
	inv, ok := s.inventory[InventoryKey{ItemID: itemID, SupplierID: supplierID}]
	if !ok {
		return fmt.Errorf("inventory item=%d supplier=%d: %w", itemID, supplierID, ErrNotFound)
	}
	if qty < 0 {
		return fmt.Errorf("inventory item=%d supplier=%d: negative quantity %d", itemID, supplierID, qty)
	}
	inv.QuantityOnHand = qty
	inv.LastUpdated = at
	return nil
}

func (s *MemStore) ListInventory(_ context.Context) ([]*Inventory, error) {
	out := make([]*Inventory, 0, len(s.inventoryKeys))
	for _, k := range s.inventoryKeys {
		cp := *s.inventory[k]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemStore) ListRestockEligible(ctx context.Context) ([]*Inventory, error) {
	all, err := s.ListInventory(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, inv := range all {
		if inv.RestockEligible() {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *MemStore) ListOpenOrderItems(_ context.Context) ([]*OrderItem, error) {
	var out []*OrderItem
	for _, oid := range s.orderIDs {
		o := s.orders[oid]
		if o.Status != StatusUnfulfilled && o.Status != StatusPartial {
			continue
		}
		for _, id := range s.itemsByOrder[oid] {
			oi := s.orderItems[id]
			if oi.Complete() {
				continue
			}
			cp := *oi
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ListOrders returns every order in creation order. Not part of the Store
// interface; the engine never scans all orders, but inspection and tests do.
func (s *MemStore) ListOrders(_ context.Context) ([]*Order, error) {
	out := make([]*Order, 0, len(s.orderIDs))
	for _, oid := range s.orderIDs {
		cp := *s.orders[oid]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemStore) ListExpirable(_ context.Context, cutoff time.Time) ([]*Order, error) {
	var out []*Order
	for _, oid := range s.orderIDs {
		o := s.orders[oid]
		if o.Status != StatusUnfulfilled && o.Status != StatusPartial {
			continue
		}
		if o.OrderDate.After(cutoff) {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemStore) AppendAttemptLogs(_ context.Context, recs []AttemptRecord) error {
	s.attemptLog = append(s.attemptLog, recs...)
	return nil
}

func (s *MemStore) AppendInventoryHistory(_ context.Context, recs []InventoryHistoryRecord) error {
	s.history = append(s.history, recs...)
	return nil
}

func (s *MemStore) ListAttemptLog(_ context.Context) ([]AttemptRecord, error) {
	out := make([]AttemptRecord, len(s.attemptLog))
	copy(out, s.attemptLog)
	return out, nil
}

func (s *MemStore) ListInventoryHistory(_ context.Context) ([]InventoryHistoryRecord, error) {
	out := make([]InventoryHistoryRecord, len(s.history))
	copy(out, s.history)
	return out, nil
}

// Commit is a durability no-op for the pure in-memory store; it only counts
// the boundary. Wrapping stores override it to persist.
func (s *MemStore) Commit(_ context.Context) error {
	s.commits++
	return nil
}

func (s *MemStore) Close() error {
	return nil
}

// === Snapshot state (for wrapping durable stores) ===

// StoreState is the full serializable state of a MemStore, exported at commit
// boundaries by durable wrappers and re-imported on open.
type StoreState struct {
	Suppliers []*Supplier  `json:"suppliers"`
	Items     []*Item      `json:"items"`
	Customers []*Customer  `json:"customers"`
	Start     time.Time    `json:"start"`
	Inventory []*Inventory `json:"inventory"`
	Orders    []*Order     `json:"orders"`
	// OrderItems are grouped implicitly by their OrderID, in ID order.
	OrderItems      []*OrderItem             `json:"order_items"`
	AttemptLog      []AttemptRecord          `json:"attempt_log"`
	History         []InventoryHistoryRecord `json:"inventory_history"`
	NextOrderID     int64                    `json:"next_order_id"`
	NextOrderItemID int64                    `json:"next_order_item_id"`
}

// ExportState deep-copies the current state.
func (s *MemStore) ExportState() StoreState {
	st := StoreState{
		NextOrderID:     s.nextOrderID,
		NextOrderItemID: s.nextOrderItemID,
	}
	if s.catalog != nil {
		st.Start = s.catalog.Start
		for _, sup := range s.catalog.Suppliers {
			cp := *sup
			st.Suppliers = append(st.Suppliers, &cp)
		}
		for _, it := range s.catalog.Items {
			cp := *it
			st.Items = append(st.Items, &cp)
		}
		for _, c := range s.catalog.Customers {
			cp := *c
			st.Customers = append(st.Customers, &cp)
		}
	}
	for _, k := range s.inventoryKeys {
		cp := *s.inventory[k]
		st.Inventory = append(st.Inventory, &cp)
	}
	for _, oid := range s.orderIDs {
		cp := *s.orders[oid]
		st.Orders = append(st.Orders, &cp)
		for _, id := range s.itemsByOrder[oid] {
			icp := *s.orderItems[id]
			st.OrderItems = append(st.OrderItems, &icp)
		}
	}
	st.AttemptLog = append(st.AttemptLog, s.attemptLog...)
	st.History = append(st.History, s.history...)
	return st
}

// ImportState replaces the store's contents with a previously exported state.
func (s *MemStore) ImportState(st StoreState) error {
	fresh := NewMemStore()
	if len(st.Suppliers) > 0 {
		cat, err := NewCatalog(st.Suppliers, st.Items, st.Customers, st.Start)
		if err != nil {
			return fmt.Errorf("rebuild catalog: %w", err)
		}
		if err := fresh.SeedCatalog(context.Background(), cat, st.Inventory); err != nil {
			return err
		}
	}
	for _, o := range st.Orders {
		cp := *o
		fresh.orders[cp.ID] = &cp
		fresh.orderIDs = append(fresh.orderIDs, cp.ID)
	}
	for _, oi := range st.OrderItems {
		cp := *oi
		fresh.orderItems[cp.ID] = &cp
		fresh.itemsByOrder[cp.OrderID] = append(fresh.itemsByOrder[cp.OrderID], cp.ID)
	}
	fresh.attemptLog = append(fresh.attemptLog, st.AttemptLog...)
	fresh.history = append(fresh.history, st.History...)
	if st.NextOrderID > 0 {
		fresh.nextOrderID = st.NextOrderID
	}
	if st.NextOrderItemID > 0 {
		fresh.nextOrderItemID = st.NextOrderItemID
	}
	*s = *fresh
	return nil
}

var _ Store = (*MemStore)(nil)
