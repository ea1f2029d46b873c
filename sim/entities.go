package sim

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus tracks an order through its lifecycle. The two expired variants
// are terminal: once reached, an order never transitions again.
type OrderStatus string

const (
	StatusUnfulfilled    OrderStatus = "unfulfilled"
	StatusPartial        OrderStatus = "partial"
	StatusFulfilled      OrderStatus = "fulfilled"
	StatusExpired        OrderStatus = "expired"
	StatusPartialExpired OrderStatus = "partial-expired"
)

// Terminal reports whether no further status transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return s == StatusFulfilled || s == StatusExpired || s == StatusPartialExpired
}

// Item is a product customers can order. Unit price is carried as a decimal
// to avoid float drift in downstream revenue analysis.
type Item struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Customer places orders from a geographic region.
type Customer struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region"`
}

// Supplier stocks items of exactly one category.
//
// FailureRate is the probability that a fulfillment attempt against this
// supplier fails even with stock available. FulfillmentWeight is the relative
// likelihood of the supplier being chosen as the attempt target when an order
// item is created.
type Supplier struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Category          string  `json:"category"`
	FailureRate       float64 `json:"failure_rate"`
	FulfillmentWeight float64 `json:"fulfillment_weight"`
}

// InventoryKey identifies one inventory row by its item/supplier pair.
type InventoryKey struct {
	ItemID     int64 `json:"item_id"`
	SupplierID int64 `json:"supplier_id"`
}

// Inventory is the stock a supplier holds for one item. Rows are seeded once
// at initialization and only ever mutated, never created or deleted mid-run.
type Inventory struct {
	ItemID              int64     `json:"item_id"`
	SupplierID          int64     `json:"supplier_id"`
	QuantityOnHand      int       `json:"quantity_on_hand"`
	ReorderPoint        int       `json:"reorder_point"`
	RestockWeight       float64   `json:"restock_weight"`
	SupplierMaxQuantity int       `json:"supplier_max_quantity"`
	LastUpdated         time.Time `json:"last_updated"`
}

// Key returns the item/supplier pair identifying this row.
func (inv *Inventory) Key() InventoryKey {
	return InventoryKey{ItemID: inv.ItemID, SupplierID: inv.SupplierID}
}

// RestockEligible reports whether quantity on hand has dropped below the
// reorder point.
func (inv *Inventory) RestockEligible() bool {
	return inv.QuantityOnHand < inv.ReorderPoint
}

// Order groups one or more OrderItems placed by a customer at a simulated
// date. Every order has at least one item.
type Order struct {
	ID         int64       `json:"id"`
	CustomerID int64       `json:"customer_id"`
	OrderDate  time.Time   `json:"order_date"`
	Status     OrderStatus `json:"status"`
}

// OrderItem is one line of an order: a quantity of one item sourced from one
// supplier. FulfilledQuantity never exceeds Quantity and never decreases.
type OrderItem struct {
	ID                int64     `json:"id"`
	OrderID           int64     `json:"order_id"`
	ItemID            int64     `json:"item_id"`
	SupplierID        int64     `json:"supplier_id"`
	Quantity          int       `json:"quantity"`
	FulfilledQuantity int       `json:"fulfilled_quantity"`
	FulfilledDate     time.Time `json:"fulfilled_date"`
}

// Remaining returns the quantity still to be fulfilled.
func (oi *OrderItem) Remaining() int {
	return oi.Quantity - oi.FulfilledQuantity
}

// Complete reports whether the line is fully fulfilled.
func (oi *OrderItem) Complete() bool {
	return oi.FulfilledQuantity >= oi.Quantity
}

// DeriveOrderStatus computes the non-terminal status an order should carry
// given its items: fulfilled when every line is complete, partial when at
// least one line is complete and at least one is not, unfulfilled otherwise.
// Expiry transitions are the maintenance task's job and are not derived here.
func DeriveOrderStatus(items []*OrderItem) OrderStatus {
	if len(items) == 0 {
		return StatusUnfulfilled
	}
	complete := 0
	for _, oi := range items {
		if oi.Complete() {
			complete++
		}
	}
	switch complete {
	case len(items):
		return StatusFulfilled
	case 0:
		return StatusUnfulfilled
	default:
		return StatusPartial
	}
}
