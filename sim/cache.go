package sim

import (
	"context"
	"math/rand"
)

// Candidate is one cache entry: an order item still eligible for fulfillment
// attempts. Only identifiers are cached; quantities are re-read from the
// store at attempt time.
type Candidate struct {
	OrderItemID int64
	OrderID     int64
	ItemID      int64
	SupplierID  int64
}

// UnfulfilledOrderCache indexes the order items open for fulfillment so the
// attempt handler never scans the full order table per step.
//
// Staleness contract: an item fulfilled to completion is evicted immediately
// via Evict, so it can never be sampled again before the next refresh. Newly
// created orders only become visible at the next Refresh — bounded staleness
// accepted by design.
type UnfulfilledOrderCache struct {
	candidates []Candidate
	index      map[int64]int // order item ID -> position in candidates
}

// NewUnfulfilledOrderCache returns an empty cache.
func NewUnfulfilledOrderCache() *UnfulfilledOrderCache {
	return &UnfulfilledOrderCache{index: make(map[int64]int)}
}

// Refresh reloads all open order items from the store, replacing the cache
// contents. Called by the maintenance task after expiry has run, so expired
// orders' items drop out here.
func (c *UnfulfilledOrderCache) Refresh(ctx context.Context, store Store) error {
	open, err := store.ListOpenOrderItems(ctx)
	if err != nil {
		return err
	}
	c.candidates = c.candidates[:0]
	clear(c.index)
	for _, oi := range open {
		c.index[oi.ID] = len(c.candidates)
		c.candidates = append(c.candidates, Candidate{
			OrderItemID: oi.ID,
			OrderID:     oi.OrderID,
			ItemID:      oi.ItemID,
			SupplierID:  oi.SupplierID,
		})
	}
	return nil
}

// Sample returns one candidate uniformly at random, or ok=false when the
// cache is empty.
func (c *UnfulfilledOrderCache) Sample(rng *rand.Rand) (Candidate, bool) {
	if len(c.candidates) == 0 {
		return Candidate{}, false
	}
	return c.candidates[rng.Intn(len(c.candidates))], true
}

// Evict removes the order item from the cache in O(1) (swap-remove). No-op
// when the item is not cached.
func (c *UnfulfilledOrderCache) Evict(orderItemID int64) {
	pos, ok := c.index[orderItemID]
	if !ok {
		return
	}
	last := len(c.candidates) - 1
	if pos != last {
		moved := c.candidates[last]
		c.candidates[pos] = moved
		c.index[moved.OrderItemID] = pos
	}
	c.candidates = c.candidates[:last]
	delete(c.index, orderItemID)
}

// Contains reports whether the order item is currently cached.
func (c *UnfulfilledOrderCache) Contains(orderItemID int64) bool {
	_, ok := c.index[orderItemID]
	return ok
}

// Len returns the number of cached candidates.
func (c *UnfulfilledOrderCache) Len() int {
	return len(c.candidates)
}
