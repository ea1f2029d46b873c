package sim

import (
	"time"

	"github.com/google/uuid"
)

// AttemptOutcome is the result of one fulfillment attempt.
type AttemptOutcome string

const (
	OutcomeSuccess AttemptOutcome = "success"
	OutcomeFailure AttemptOutcome = "failure"
)

// FailureReason tags why a fulfillment attempt did not move stock.
type FailureReason string

const (
	// ReasonNone marks a successful attempt.
	ReasonNone FailureReason = ""
	// ReasonOutOfStock: the inventory row had zero quantity on hand.
	ReasonOutOfStock FailureReason = "out_of_stock"
	// ReasonSupplierFailure: the supplier reliability draw failed.
	ReasonSupplierFailure FailureReason = "supplier_failure"
	// ReasonNoCandidate: the unfulfilled-order cache was empty.
	ReasonNoCandidate FailureReason = "no_candidate"
	// ReasonNoInventory: no inventory row exists for the item/supplier pair.
	ReasonNoInventory FailureReason = "no_inventory"
)

// AttemptRecord is one fulfillment_log row. Records are buffered in memory
// and batch-inserted at maintenance time.
type AttemptRecord struct {
	RunID           uuid.UUID      `json:"run_id"`
	OrderID         int64          `json:"order_id"`
	OrderItemID     int64          `json:"order_item_id"`
	SupplierID      int64          `json:"supplier_id"`
	ItemID          int64          `json:"item_id"`
	Timestamp       time.Time      `json:"timestamp"`
	Outcome         AttemptOutcome `json:"outcome"`
	FulfilledAmount int            `json:"fulfilled_amount"`
	FailureReason   FailureReason  `json:"failure_reason,omitempty"`
}

// InventoryHistoryRecord is one inventory_history row: a per-pair snapshot of
// stock and open backlog taken at each maintenance boundary.
type InventoryHistoryRecord struct {
	RunID                 uuid.UUID `json:"run_id"`
	ItemID                int64     `json:"item_id"`
	SupplierID            int64     `json:"supplier_id"`
	Timestamp             time.Time `json:"timestamp"`
	QuantityOnHand        int       `json:"quantity_on_hand"`
	BacklogUnfulfilledQty int       `json:"backlog_unfulfilled_qty"`
}
