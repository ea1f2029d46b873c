// Package export writes the simulation's two output datasets — the
// fulfillment log and the inventory history — to CSV files for downstream
// analysis.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/JamesBuckley3/supply-chain-simulator/sim"
)

var fulfillmentHeader = []string{
	"run_id", "order_id", "order_item_id", "supplier_id", "item_id",
	"timestamp", "outcome", "fulfilled_amount", "failure_reason",
}

var inventoryHeader = []string{
	"run_id", "item_id", "supplier_id", "timestamp",
	"quantity_on_hand", "backlog_unfulfilled_qty",
}

// WriteFulfillmentLog writes the attempt records to path, header included.
func WriteFulfillmentLog(path string, recs []sim.AttemptRecord) error {
	return writeCSV(path, fulfillmentHeader, len(recs), func(i int) []string {
		r := recs[i]
		return []string{
			r.RunID.String(),
			strconv.FormatInt(r.OrderID, 10),
			strconv.FormatInt(r.OrderItemID, 10),
			strconv.FormatInt(r.SupplierID, 10),
			strconv.FormatInt(r.ItemID, 10),
			r.Timestamp.Format(time.RFC3339),
			string(r.Outcome),
			strconv.Itoa(r.FulfilledAmount),
			string(r.FailureReason),
		}
	})
}

// WriteInventoryHistory writes the snapshot records to path, header included.
func WriteInventoryHistory(path string, recs []sim.InventoryHistoryRecord) error {
	return writeCSV(path, inventoryHeader, len(recs), func(i int) []string {
		r := recs[i]
		return []string{
			r.RunID.String(),
			strconv.FormatInt(r.ItemID, 10),
			strconv.FormatInt(r.SupplierID, 10),
			r.Timestamp.Format(time.RFC3339),
			strconv.Itoa(r.QuantityOnHand),
			strconv.Itoa(r.BacklogUnfulfilledQty),
		}
	})
}

// Dump reads both datasets from the store and writes them to the given
// paths. An empty path skips that dataset.
func Dump(ctx context.Context, store sim.Store, fulfillmentPath, inventoryPath string) error {
	if fulfillmentPath != "" {
		recs, err := store.ListAttemptLog(ctx)
		if err != nil {
			return fmt.Errorf("load fulfillment log: %w", err)
		}
		if err := WriteFulfillmentLog(fulfillmentPath, recs); err != nil {
			return fmt.Errorf("write fulfillment log: %w", err)
		}
	}
	if inventoryPath != "" {
		recs, err := store.ListInventoryHistory(ctx)
		if err != nil {
			return fmt.Errorf("load inventory history: %w", err)
		}
		if err := WriteInventoryHistory(inventoryPath, recs); err != nil {
			return fmt.Errorf("write inventory history: %w", err)
		}
	}
	return nil
}

func writeCSV(path string, header []string, n int, row func(int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return err
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			_ = f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
