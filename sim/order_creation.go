package sim

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// createOrder draws a customer and 1..MaxItemsPerOrder distinct items, pairs
// each item with a supplier stocking its category (weighted by fulfillment
// weight), and inserts the order atomically. Items without an eligible
// supplier are skipped; if every item is skipped, nothing is written and the
// step is a recoverable no-op.
//
// The new order intentionally does not enter the unfulfilled-order cache
// here; it becomes a fulfillment candidate at the next cache refresh.
func (sim *Simulator) createOrder(ctx context.Context) error {
	rng := sim.orderRNG
	now := sim.Clock.Now()

	customer := sim.Catalog.Customers[rng.Intn(len(sim.Catalog.Customers))]

	n := 1 + rng.Intn(sim.Config.MaxItemsPerOrder)
	if n > len(sim.Catalog.Items) {
		n = len(sim.Catalog.Items)
	}
	perm := rng.Perm(len(sim.Catalog.Items))[:n]

	items := make([]*OrderItem, 0, n)
	for _, idx := range perm {
		item := sim.Catalog.Items[idx]
		eligible := sim.Catalog.EligibleSuppliers(item.Category)
		if len(eligible) == 0 {
			logrus.Debugf("order_creation: item %d (%s) has no eligible supplier, skipping",
				item.ID, item.Category)
			continue
		}
		weights := make([]float64, len(eligible))
		for i, sup := range eligible {
			weights[i] = sup.FulfillmentWeight
		}
		pick := WeightedIndex(rng, weights)
		if pick < 0 {
			// all weights zero: fall back to uniform
			pick = rng.Intn(len(eligible))
		}
		items = append(items, &OrderItem{
			ItemID:            item.ID,
			SupplierID:        eligible[pick].ID,
			Quantity:          1 + rng.Intn(sim.Config.MaxQuantityPerItem),
			FulfilledQuantity: 0,
		})
	}
	if len(items) == 0 {
		return ErrNoEligibleItems
	}

	order := &Order{
		CustomerID: customer.ID,
		OrderDate:  now,
		Status:     StatusUnfulfilled,
	}
	if err := sim.Store.CreateOrder(ctx, order, items); err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	sim.Metrics.OrdersCreated++
	sim.Metrics.OrderItemsCreated += len(items)
	logrus.Debugf("<< OrderCreation: order %d, %d items, customer %d at %s",
		order.ID, len(items), customer.ID, now.Format("2006-01-02 15:04"))
	return nil
}
