package sim

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// restockInventory rolls restock triggers for rows below their reorder point.
// A triggered restock sets quantity on hand to the supplier's restock
// ceiling. Granularity is configurable: "single" picks one eligible row
// (weighted by restock weight) and rolls once; "sweep" rolls every eligible
// row independently.
func (sim *Simulator) restockInventory(ctx context.Context) error {
	rng := sim.restockRNG
	now := sim.Clock.Now()

	eligible, err := sim.Store.ListRestockEligible(ctx)
	if err != nil {
		return fmt.Errorf("list restock-eligible inventory: %w", err)
	}
	if len(eligible) == 0 {
		return ErrNothingToRestock
	}

	if sim.Config.RestockGranularity == RestockSingle {
		weights := make([]float64, len(eligible))
		for i, inv := range eligible {
			weights[i] = inv.RestockWeight
		}
		pick := WeightedIndex(rng, weights)
		if pick < 0 {
			pick = rng.Intn(len(eligible))
		}
		eligible = eligible[pick : pick+1]
	}

	for _, inv := range eligible {
		if !Bernoulli(rng, inv.RestockWeight) {
			sim.Metrics.RestockRollsFailed++
			continue
		}
		if err := sim.Store.SetInventoryQuantity(ctx, inv.ItemID, inv.SupplierID,
			inv.SupplierMaxQuantity, now); err != nil {
			return fmt.Errorf("restock item=%d supplier=%d: %w", inv.ItemID, inv.SupplierID, err)
		}
		sim.Metrics.Restocks++
		logrus.Debugf("<< Restocking: item %d supplier %d %d -> %d at %s",
			inv.ItemID, inv.SupplierID, inv.QuantityOnHand, inv.SupplierMaxQuantity,
			now.Format("2006-01-02 15:04"))
	}
	return nil
}
