package sim

import (
	"context"
	"errors"
)

// Recoverable no-op conditions. The scheduler treats these as completed steps
// (or redraws, under the retry policy), never as faults.
var (
	// ErrNoCandidate: the unfulfilled-order cache has no open items.
	ErrNoCandidate = errors.New("no fulfillment candidates")
	// ErrNoEligibleItems: none of the drawn items has a supplier stocking
	// its category, so no order was written.
	ErrNoEligibleItems = errors.New("no order items with an eligible supplier")
	// ErrNothingToRestock: no inventory row is below its reorder point.
	ErrNothingToRestock = errors.New("no inventory below reorder point")
)

// IsRecoverableNoOp reports whether err marks a recoverable no-op rather than
// a handler fault.
func IsRecoverableNoOp(err error) bool {
	return errors.Is(err, ErrNoCandidate) ||
		errors.Is(err, ErrNoEligibleItems) ||
		errors.Is(err, ErrNothingToRestock)
}

// EventKind enumerates the per-step event types, in the order their weights
// are configured.
type EventKind int

const (
	EventOrderCreation EventKind = iota
	EventFulfillmentAttempt
	EventRestocking
	EventIdle
	numEventKinds
)

func (k EventKind) String() string {
	switch k {
	case EventOrderCreation:
		return "order_creation"
	case EventFulfillmentAttempt:
		return "fulfillment_attempt"
	case EventRestocking:
		return "restocking"
	case EventIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// Event is one simulated supply-chain occurrence. Events are stateless per
// call: all state they touch lives in the simulator's store, cache and
// buffer. Execute either fully applies the event or returns an error having
// mutated nothing.
type Event interface {
	Kind() EventKind
	Execute(ctx context.Context, sim *Simulator) error
}

// OrderCreationEvent inserts a new order with 1..N items.
type OrderCreationEvent struct{}

func (OrderCreationEvent) Kind() EventKind { return EventOrderCreation }

func (OrderCreationEvent) Execute(ctx context.Context, sim *Simulator) error {
	return sim.createOrder(ctx)
}

// FulfillmentAttemptEvent tries to fulfill part or all of one open order item.
type FulfillmentAttemptEvent struct{}

func (FulfillmentAttemptEvent) Kind() EventKind { return EventFulfillmentAttempt }

func (FulfillmentAttemptEvent) Execute(ctx context.Context, sim *Simulator) error {
	return sim.attemptFulfillment(ctx)
}

// RestockingEvent rolls restock triggers for inventory below reorder point.
type RestockingEvent struct{}

func (RestockingEvent) Kind() EventKind { return EventRestocking }

func (RestockingEvent) Execute(ctx context.Context, sim *Simulator) error {
	return sim.restockInventory(ctx)
}

// IdleEvent models inactivity. It dilutes event frequency and still counts as
// a completed step.
type IdleEvent struct{}

func (IdleEvent) Kind() EventKind { return EventIdle }

func (IdleEvent) Execute(context.Context, *Simulator) error { return nil }

// eventForKind maps a categorical draw to its event value.
func eventForKind(k EventKind) Event {
	switch k {
	case EventOrderCreation:
		return OrderCreationEvent{}
	case EventFulfillmentAttempt:
		return FulfillmentAttemptEvent{}
	case EventRestocking:
		return RestockingEvent{}
	default:
		return IdleEvent{}
	}
}
