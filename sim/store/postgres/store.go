// Package postgres provides a server-backed durable Store over pgx. All
// handler mutations run inside one long-lived transaction per maintenance
// window; Commit commits it and opens the next, so the database only ever
// exposes maintenance-consistent states.
//
// Seeding truncates the entity tables for a fresh run, but fulfillment_log
// and inventory_history are append-only across runs and distinguished by
// run_id.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JamesBuckley3/supply-chain-simulator/sim"
)

const schema = `
CREATE TABLE IF NOT EXISTS suppliers (
	id BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	failure_rate DOUBLE PRECISION NOT NULL,
	fulfillment_weight DOUBLE PRECISION NOT NULL
);
CREATE TABLE IF NOT EXISTS items (
	id BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	unit_price NUMERIC(12,2) NOT NULL
);
CREATE TABLE IF NOT EXISTS customers (
	id BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	region TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS inventory (
	item_id BIGINT NOT NULL,
	supplier_id BIGINT NOT NULL,
	quantity_on_hand INT NOT NULL CHECK (quantity_on_hand >= 0),
	reorder_point INT NOT NULL CHECK (reorder_point >= 0),
	restock_weight DOUBLE PRECISION NOT NULL,
	supplier_max_quantity INT NOT NULL,
	last_updated TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (item_id, supplier_id)
);
CREATE TABLE IF NOT EXISTS orders (
	id BIGSERIAL PRIMARY KEY,
	customer_id BIGINT NOT NULL,
	order_date TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS order_items (
	id BIGSERIAL PRIMARY KEY,
	order_id BIGINT NOT NULL REFERENCES orders(id),
	item_id BIGINT NOT NULL,
	supplier_id BIGINT NOT NULL,
	quantity INT NOT NULL CHECK (quantity >= 0),
	fulfilled_quantity INT NOT NULL CHECK (fulfilled_quantity >= 0 AND fulfilled_quantity <= quantity),
	fulfilled_date TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS fulfillment_log (
	id BIGSERIAL PRIMARY KEY,
	run_id UUID NOT NULL,
	order_id BIGINT NOT NULL,
	order_item_id BIGINT NOT NULL,
	supplier_id BIGINT NOT NULL,
	item_id BIGINT NOT NULL,
	ts TIMESTAMPTZ NOT NULL,
	outcome TEXT NOT NULL,
	fulfilled_amount INT NOT NULL,
	failure_reason TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS inventory_history (
	id BIGSERIAL PRIMARY KEY,
	run_id UUID NOT NULL,
	item_id BIGINT NOT NULL,
	supplier_id BIGINT NOT NULL,
	ts TIMESTAMPTZ NOT NULL,
	quantity_on_hand INT NOT NULL,
	backlog_unfulfilled_qty INT NOT NULL
);
`

// Store is a postgres-backed Store. Not thread-safe; the simulation's single
// actor is the only writer.
type Store struct {
	conn *pgx.Conn
	tx   pgx.Tx
}

// Open connects, ensures the schema exists and begins the first transaction.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if _, err := conn.Exec(ctx, schema); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	tx, err := conn.Begin(ctx)
	if err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &Store{conn: conn, tx: tx}, nil
}

func (s *Store) SeedCatalog(ctx context.Context, cat *sim.Catalog, inventory []*sim.Inventory) error {
	if _, err := s.tx.Exec(ctx,
		`TRUNCATE suppliers, items, customers, inventory, order_items, orders`); err != nil {
		return fmt.Errorf("truncate entity tables: %w", err)
	}
	batch := &pgx.Batch{}
	for _, sup := range cat.Suppliers {
		batch.Queue(`INSERT INTO suppliers (id, name, category, failure_rate, fulfillment_weight)
			VALUES ($1, $2, $3, $4, $5)`,
			sup.ID, sup.Name, sup.Category, sup.FailureRate, sup.FulfillmentWeight)
	}
	for _, it := range cat.Items {
		batch.Queue(`INSERT INTO items (id, name, category, unit_price) VALUES ($1, $2, $3, $4)`,
			it.ID, it.Name, it.Category, it.UnitPrice)
	}
	for _, c := range cat.Customers {
		batch.Queue(`INSERT INTO customers (id, name, region) VALUES ($1, $2, $3)`,
			c.ID, c.Name, c.Region)
	}
	for _, inv := range inventory {
		batch.Queue(`INSERT INTO inventory
			(item_id, supplier_id, quantity_on_hand, reorder_point, restock_weight, supplier_max_quantity, last_updated)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			inv.ItemID, inv.SupplierID, inv.QuantityOnHand, inv.ReorderPoint,
			inv.RestockWeight, inv.SupplierMaxQuantity, inv.LastUpdated)
	}
	if err := s.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	return nil
}

func (s *Store) CreateOrder(ctx context.Context, o *sim.Order, items []*sim.OrderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("order must have at least one item")
	}
	err := s.tx.QueryRow(ctx,
		`INSERT INTO orders (customer_id, order_date, status) VALUES ($1, $2, $3) RETURNING id`,
		o.CustomerID, o.OrderDate, string(o.Status)).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	for _, oi := range items {
		oi.OrderID = o.ID
		err := s.tx.QueryRow(ctx,
			`INSERT INTO order_items (order_id, item_id, supplier_id, quantity, fulfilled_quantity)
			 VALUES ($1, $2, $3, $4, 0) RETURNING id`,
			oi.OrderID, oi.ItemID, oi.SupplierID, oi.Quantity).Scan(&oi.ID)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*sim.Order, error) {
	var o sim.Order
	var status string
	err := s.tx.QueryRow(ctx,
		`SELECT id, customer_id, order_date, status FROM orders WHERE id = $1`, id).
		Scan(&o.ID, &o.CustomerID, &o.OrderDate, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, sim.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select order: %w", err)
	}
	o.Status = sim.OrderStatus(status)
	return &o, nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status sim.OrderStatus) error {
	tag, err := s.tx.Exec(ctx,
		`UPDATE orders SET status = $1
		 WHERE id = $2 AND status NOT IN ($3, $4, $5)`,
		string(status), id,
		string(sim.StatusFulfilled), string(sim.StatusExpired), string(sim.StatusPartialExpired))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %d missing or already terminal", id)
	}
	return nil
}

func (s *Store) GetOrderItem(ctx context.Context, id int64) (*sim.OrderItem, error) {
	oi, err := scanOrderItem(s.tx.QueryRow(ctx,
		`SELECT id, order_id, item_id, supplier_id, quantity, fulfilled_quantity, fulfilled_date
		 FROM order_items WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("order item %d: %w", id, sim.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select order item: %w", err)
	}
	return oi, nil
}

func (s *Store) ListOrderItems(ctx context.Context, orderID int64) ([]*sim.OrderItem, error) {
	return s.queryOrderItems(ctx,
		`SELECT id, order_id, item_id, supplier_id, quantity, fulfilled_quantity, fulfilled_date
		 FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
}

func (s *Store) ApplyFulfillment(ctx context.Context, orderItemID int64, qty int, at time.Time) error {
	if qty < 1 {
		return fmt.Errorf("fulfillment quantity must be at least 1, got %d", qty)
	}
	tag, err := s.tx.Exec(ctx,
		`UPDATE order_items
		 SET fulfilled_quantity = fulfilled_quantity + $1, fulfilled_date = $2
		 WHERE id = $3 AND fulfilled_quantity + $1 <= quantity`,
		qty, at, orderItemID)
	if err != nil {
		return fmt.Errorf("apply fulfillment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order item %d missing or fulfilling %d exceeds remaining", orderItemID, qty)
	}
	return nil
}

func (s *Store) GetInventory(ctx context.Context, itemID, supplierID int64) (*sim.Inventory, error) {
	var inv sim.Inventory
	err := s.tx.QueryRow(ctx,
		`SELECT item_id, supplier_id, quantity_on_hand, reorder_point, restock_weight, supplier_max_quantity, last_updated
		 FROM inventory WHERE item_id = $1 AND supplier_id = $2`, itemID, supplierID).
		Scan(&inv.ItemID, &inv.SupplierID, &inv.QuantityOnHand, &inv.ReorderPoint,
			&inv.RestockWeight, &inv.SupplierMaxQuantity, &inv.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("inventory item=%d supplier=%d: %w", itemID, supplierID, sim.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select inventory: %w", err)
	}
	return &inv, nil
}

func (s *Store) AdjustInventory(ctx context.Context, itemID, supplierID int64, delta int, at time.Time) error {
	tag, err := s.tx.Exec(ctx,
		`UPDATE inventory
		 SET quantity_on_hand = quantity_on_hand + $1, last_updated = $2
		 WHERE item_id = $3 AND supplier_id = $4 AND quantity_on_hand + $1 >= 0`,
		delta, at, itemID, supplierID)
	if err != nil {
		return fmt.Errorf("adjust inventory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("inventory item=%d supplier=%d missing or adjust by %d would drop below zero",
			itemID, supplierID, delta)
	}
	return nil
}

func (s *Store) SetInventoryQuantity(ctx context.Context, itemID, supplierID int64, qty int, at time.Time) error {
	if qty < 0 {
		return fmt.Errorf("negative quantity %d", qty)
	}
	tag, err := s.tx.Exec(ctx,
		`UPDATE inventory SET quantity_on_hand = $1, last_updated = $2
		 WHERE item_id = $3 AND supplier_id = $4`,
		qty, at, itemID, supplierID)
	if err != nil {
		return fmt.Errorf("set inventory quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("inventory item=%d supplier=%d: %w", itemID, supplierID, sim.ErrNotFound)
	}
	return nil
}

func (s *Store) ListInventory(ctx context.Context) ([]*sim.Inventory, error) {
	return s.queryInventory(ctx,
		`SELECT item_id, supplier_id, quantity_on_hand, reorder_point, restock_weight, supplier_max_quantity, last_updated
		 FROM inventory ORDER BY item_id, supplier_id`)
}

func (s *Store) ListRestockEligible(ctx context.Context) ([]*sim.Inventory, error) {
	return s.queryInventory(ctx,
		`SELECT item_id, supplier_id, quantity_on_hand, reorder_point, restock_weight, supplier_max_quantity, last_updated
		 FROM inventory WHERE quantity_on_hand < reorder_point ORDER BY item_id, supplier_id`)
}

func (s *Store) ListOpenOrderItems(ctx context.Context) ([]*sim.OrderItem, error) {
	return s.queryOrderItems(ctx,
		`SELECT oi.id, oi.order_id, oi.item_id, oi.supplier_id, oi.quantity, oi.fulfilled_quantity, oi.fulfilled_date
		 FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id
		 WHERE oi.fulfilled_quantity < oi.quantity AND o.status IN ($1, $2)
		 ORDER BY oi.id`,
		string(sim.StatusUnfulfilled), string(sim.StatusPartial))
}

func (s *Store) ListExpirable(ctx context.Context, cutoff time.Time) ([]*sim.Order, error) {
	rows, err := s.tx.Query(ctx,
		`SELECT id, customer_id, order_date, status FROM orders
		 WHERE status IN ($1, $2) AND order_date <= $3 ORDER BY id`,
		string(sim.StatusUnfulfilled), string(sim.StatusPartial), cutoff)
	if err != nil {
		return nil, fmt.Errorf("select expirable orders: %w", err)
	}
	defer rows.Close()
	var out []*sim.Order
	for rows.Next() {
		var o sim.Order
		var status string
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.OrderDate, &status); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Status = sim.OrderStatus(status)
		out = append(out, &o)
	}
	return out, rows.Err()
}

func (s *Store) AppendAttemptLogs(ctx context.Context, recs []sim.AttemptRecord) error {
	if len(recs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range recs {
		batch.Queue(`INSERT INTO fulfillment_log
			(run_id, order_id, order_item_id, supplier_id, item_id, ts, outcome, fulfilled_amount, failure_reason)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			r.RunID, r.OrderID, r.OrderItemID, r.SupplierID, r.ItemID,
			r.Timestamp, string(r.Outcome), r.FulfilledAmount, string(r.FailureReason))
	}
	if err := s.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("append attempt logs: %w", err)
	}
	return nil
}

func (s *Store) AppendInventoryHistory(ctx context.Context, recs []sim.InventoryHistoryRecord) error {
	if len(recs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range recs {
		batch.Queue(`INSERT INTO inventory_history
			(run_id, item_id, supplier_id, ts, quantity_on_hand, backlog_unfulfilled_qty)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			r.RunID, r.ItemID, r.SupplierID, r.Timestamp, r.QuantityOnHand, r.BacklogUnfulfilledQty)
	}
	if err := s.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("append inventory history: %w", err)
	}
	return nil
}

func (s *Store) ListAttemptLog(ctx context.Context) ([]sim.AttemptRecord, error) {
	rows, err := s.tx.Query(ctx,
		`SELECT run_id, order_id, order_item_id, supplier_id, item_id, ts, outcome, fulfilled_amount, failure_reason
		 FROM fulfillment_log ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select fulfillment log: %w", err)
	}
	defer rows.Close()
	var out []sim.AttemptRecord
	for rows.Next() {
		var r sim.AttemptRecord
		var outcome, reason string
		if err := rows.Scan(&r.RunID, &r.OrderID, &r.OrderItemID, &r.SupplierID, &r.ItemID,
			&r.Timestamp, &outcome, &r.FulfilledAmount, &reason); err != nil {
			return nil, fmt.Errorf("scan log record: %w", err)
		}
		r.Outcome = sim.AttemptOutcome(outcome)
		r.FailureReason = sim.FailureReason(reason)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListInventoryHistory(ctx context.Context) ([]sim.InventoryHistoryRecord, error) {
	rows, err := s.tx.Query(ctx,
		`SELECT run_id, item_id, supplier_id, ts, quantity_on_hand, backlog_unfulfilled_qty
		 FROM inventory_history ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select inventory history: %w", err)
	}
	defer rows.Close()
	var out []sim.InventoryHistoryRecord
	for rows.Next() {
		var r sim.InventoryHistoryRecord
		if err := rows.Scan(&r.RunID, &r.ItemID, &r.SupplierID, &r.Timestamp,
			&r.QuantityOnHand, &r.BacklogUnfulfilledQty); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Commit commits the current transaction and begins the next one.
func (s *Store) Commit(ctx context.Context) error {
	if err := s.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin next transaction: %w", err)
	}
	s.tx = tx
	return nil
}

// Close rolls back any uncommitted window and closes the connection.
func (s *Store) Close() error {
	ctx := context.Background()
	if s.tx != nil {
		_ = s.tx.Rollback(ctx)
	}
	return s.conn.Close(ctx)
}

func (s *Store) queryInventory(ctx context.Context, sql string, args ...any) ([]*sim.Inventory, error) {
	rows, err := s.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select inventory: %w", err)
	}
	defer rows.Close()
	var out []*sim.Inventory
	for rows.Next() {
		var inv sim.Inventory
		if err := rows.Scan(&inv.ItemID, &inv.SupplierID, &inv.QuantityOnHand, &inv.ReorderPoint,
			&inv.RestockWeight, &inv.SupplierMaxQuantity, &inv.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		out = append(out, &inv)
	}
	return out, rows.Err()
}

func (s *Store) queryOrderItems(ctx context.Context, sql string, args ...any) ([]*sim.OrderItem, error) {
	rows, err := s.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()
	var out []*sim.OrderItem
	for rows.Next() {
		oi, err := scanOrderItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		out = append(out, oi)
	}
	return out, rows.Err()
}

func scanOrderItem(row pgx.Row) (*sim.OrderItem, error) {
	var oi sim.OrderItem
	var fulfilled *time.Time
	if err := row.Scan(&oi.ID, &oi.OrderID, &oi.ItemID, &oi.SupplierID,
		&oi.Quantity, &oi.FulfilledQuantity, &fulfilled); err != nil {
		return nil, err
	}
	if fulfilled != nil {
		oi.FulfilledDate = *fulfilled
	}
	return &oi, nil
}

var _ sim.Store = (*Store)(nil)
