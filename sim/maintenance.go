package sim

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// runMaintenance executes the periodic batched maintenance in its fixed
// order: expire stale orders, refresh the candidate cache from the updated
// store, flush the attempt log buffer, snapshot inventory, commit. The order
// matters — expiry must precede the refresh that feeds on it, and the flush
// and snapshot must reflect the same consistent point in time as the commit.
//
// Maintenance errors are store-level and therefore fatal to the run, unlike
// handler faults.
func (sim *Simulator) runMaintenance(ctx context.Context) error {
	if err := sim.expireStaleOrders(ctx); err != nil {
		return fmt.Errorf("expire stale orders: %w", err)
	}
	if err := sim.Cache.Refresh(ctx, sim.Store); err != nil {
		return fmt.Errorf("refresh candidate cache: %w", err)
	}
	flushed, err := sim.LogBuffer.Flush(ctx, sim.Store)
	if err != nil {
		return fmt.Errorf("flush attempt log: %w", err)
	}
	sim.Metrics.LogRecordsFlushed += flushed

	if err := sim.snapshotInventory(ctx); err != nil {
		return fmt.Errorf("snapshot inventory: %w", err)
	}
	if err := sim.Store.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	sim.Metrics.MaintenanceRuns++
	logrus.Debugf("maintenance #%d at step %d: flushed %d records, %d candidates cached",
		sim.Metrics.MaintenanceRuns, sim.StepCount, flushed, sim.Cache.Len())
	return nil
}

// expireStaleOrders transitions open orders older than the expiry age to
// their terminal expired variant: unfulfilled -> expired, partial ->
// partial-expired. The transition is monotonic; expired orders never revert.
func (sim *Simulator) expireStaleOrders(ctx context.Context) error {
	cutoff := sim.Clock.Now().Add(-sim.Config.ExpiryAge())
	stale, err := sim.Store.ListExpirable(ctx, cutoff)
	if err != nil {
		return err
	}
	for _, o := range stale {
		var next OrderStatus
		switch o.Status {
		case StatusUnfulfilled:
			next = StatusExpired
		case StatusPartial:
			next = StatusPartialExpired
		default:
			return fmt.Errorf("order %d listed as expirable with status %s", o.ID, o.Status)
		}
		if err := sim.Store.UpdateOrderStatus(ctx, o.ID, next); err != nil {
			return err
		}
		if next == StatusExpired {
			sim.Metrics.OrdersExpired++
		} else {
			sim.Metrics.OrdersPartialExpired++
		}
	}
	return nil
}

// snapshotInventory appends one inventory_history record per item/supplier
// pair: current stock plus the backlog of remaining quantity across open
// order items referencing the pair.
func (sim *Simulator) snapshotInventory(ctx context.Context) error {
	inventory, err := sim.Store.ListInventory(ctx)
	if err != nil {
		return err
	}
	open, err := sim.Store.ListOpenOrderItems(ctx)
	if err != nil {
		return err
	}
	backlog := make(map[InventoryKey]int)
	for _, oi := range open {
		backlog[InventoryKey{ItemID: oi.ItemID, SupplierID: oi.SupplierID}] += oi.Remaining()
	}

	now := sim.Clock.Now()
	recs := make([]InventoryHistoryRecord, 0, len(inventory))
	for _, inv := range inventory {
		recs = append(recs, InventoryHistoryRecord{
			RunID:                 sim.RunID,
			ItemID:                inv.ItemID,
			SupplierID:            inv.SupplierID,
			Timestamp:             now,
			QuantityOnHand:        inv.QuantityOnHand,
			BacklogUnfulfilledQty: backlog[inv.Key()],
		})
	}
	if err := sim.Store.AppendInventoryHistory(ctx, recs); err != nil {
		return err
	}
	sim.Metrics.SnapshotRecords += len(recs)
	return nil
}
