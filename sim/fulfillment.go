package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// attemptFulfillment samples one open order item from the cache and tries to
// fulfill as much of its remaining quantity as current stock allows. Every
// attempt — including no-ops — appends exactly one record to the log buffer.
//
// The reliability Bernoulli is drawn before the stock check, so the RNG
// stream does not depend on inventory state and supplier_failure takes
// precedence over out_of_stock.
func (sim *Simulator) attemptFulfillment(ctx context.Context) error {
	rng := sim.fulfillRNG
	now := sim.Clock.Now()

	cand, ok := sim.Cache.Sample(rng)
	if !ok {
		sim.logAttempt(AttemptRecord{
			Timestamp:     now,
			Outcome:       OutcomeFailure,
			FailureReason: ReasonNoCandidate,
		})
		return ErrNoCandidate
	}

	rec := AttemptRecord{
		OrderID:     cand.OrderID,
		OrderItemID: cand.OrderItemID,
		SupplierID:  cand.SupplierID,
		ItemID:      cand.ItemID,
		Timestamp:   now,
		Outcome:     OutcomeFailure,
	}

	supplier := sim.Catalog.SupplierByID(cand.SupplierID)
	if supplier == nil {
		return fmt.Errorf("order item %d references unknown supplier %d",
			cand.OrderItemID, cand.SupplierID)
	}
	if !Bernoulli(rng, 1-supplier.FailureRate) {
		rec.FailureReason = ReasonSupplierFailure
		sim.logAttempt(rec)
		return nil
	}

	inv, err := sim.Store.GetInventory(ctx, cand.ItemID, cand.SupplierID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			rec.FailureReason = ReasonNoInventory
			sim.logAttempt(rec)
			return nil
		}
		return fmt.Errorf("load inventory: %w", err)
	}
	if inv.QuantityOnHand == 0 {
		rec.FailureReason = ReasonOutOfStock
		sim.logAttempt(rec)
		return nil
	}

	oi, err := sim.Store.GetOrderItem(ctx, cand.OrderItemID)
	if err != nil {
		return fmt.Errorf("load order item: %w", err)
	}
	if oi.Complete() {
		// cache row went stale despite the evict-on-fulfill contract
		sim.Cache.Evict(oi.ID)
		return fmt.Errorf("order item %d sampled from cache but already complete", oi.ID)
	}

	fill := min(oi.Remaining(), inv.QuantityOnHand)

	if err := sim.Store.AdjustInventory(ctx, cand.ItemID, cand.SupplierID, -fill, now); err != nil {
		return fmt.Errorf("decrement inventory: %w", err)
	}
	if err := sim.Store.ApplyFulfillment(ctx, oi.ID, fill, now); err != nil {
		return fmt.Errorf("apply fulfillment: %w", err)
	}
	if oi.Remaining() == fill {
		// line complete: evict now so the cache can never hand it out again
		sim.Cache.Evict(oi.ID)
	}
	if err := sim.reconcileOrderStatus(ctx, oi.OrderID); err != nil {
		return err
	}

	rec.Outcome = OutcomeSuccess
	rec.FulfilledAmount = fill
	sim.logAttempt(rec)
	sim.Metrics.UnitsFulfilled += fill
	logrus.Debugf("<< FulfillmentAttempt: order item %d filled %d (supplier %d) at %s",
		oi.ID, fill, cand.SupplierID, now.Format("2006-01-02 15:04"))
	return nil
}

// reconcileOrderStatus recomputes the parent order's non-terminal status from
// its items and writes it back when it changed.
func (sim *Simulator) reconcileOrderStatus(ctx context.Context, orderID int64) error {
	order, err := sim.Store.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order %d: %w", orderID, err)
	}
	if order.Status.Terminal() {
		return nil
	}
	items, err := sim.Store.ListOrderItems(ctx, orderID)
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	derived := DeriveOrderStatus(items)
	if derived == order.Status {
		return nil
	}
	if err := sim.Store.UpdateOrderStatus(ctx, orderID, derived); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if derived == StatusFulfilled {
		sim.Metrics.OrdersFulfilled++
	}
	return nil
}

// logAttempt buffers one attempt record and updates the outcome tallies.
func (sim *Simulator) logAttempt(rec AttemptRecord) {
	rec.RunID = sim.RunID
	sim.LogBuffer.Append(rec)
	if rec.Outcome == OutcomeSuccess {
		sim.Metrics.AttemptSuccesses++
	} else {
		sim.Metrics.AttemptFailures++
		sim.Metrics.FailureReasons[rec.FailureReason]++
	}
}
