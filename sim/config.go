package sim

import (
	"fmt"
	"time"
)

// NoOpPolicy decides how a recoverable no-op (empty candidate cache, no
// eligible supplier, nothing to restock) is charged against the iteration
// budget.
type NoOpPolicy string

const (
	// NoOpCount charges the step as executed. Default.
	NoOpCount NoOpPolicy = "count"
	// NoOpRetry redraws the event kind within the same step, up to
	// maxEventRedraws times, before charging the step as idle.
	NoOpRetry NoOpPolicy = "retry"
)

// RestockGranularity selects how many restock-eligible rows one restocking
// event considers.
type RestockGranularity string

const (
	// RestockSingle rolls the trigger for one eligible row, chosen weighted
	// by restock weight.
	RestockSingle RestockGranularity = "single"
	// RestockSweep rolls the trigger for every eligible row independently.
	RestockSweep RestockGranularity = "sweep"
)

// EventWeights are the relative likelihoods of the categorical per-step event
// draw. They need not sum to 1.
type EventWeights struct {
	OrderCreation      float64 `yaml:"order_creation"`
	FulfillmentAttempt float64 `yaml:"fulfillment_attempt"`
	Restocking         float64 `yaml:"restocking"`
	Idle               float64 `yaml:"idle"`
}

// Config holds every named parameter of a simulation run. It is immutable
// once validated; handlers only ever read it.
type Config struct {
	// Iterations is the total number of scheduler steps.
	Iterations int `yaml:"iterations"`
	// MaintenanceEvery is the maintenance period K in steps.
	MaintenanceEvery int `yaml:"maintenance_every"`
	// ExpiryDays is the simulated age at which open orders expire.
	ExpiryDays int `yaml:"expiry_days"`
	// ClockStepMinMinutes/ClockStepMaxMinutes bound the uniform random
	// simulated-time increment applied at each step.
	ClockStepMinMinutes int `yaml:"clock_step_min_minutes"`
	ClockStepMaxMinutes int `yaml:"clock_step_max_minutes"`

	EventWeights EventWeights `yaml:"event_weights"`

	// MaxItemsPerOrder bounds the number of distinct items per new order.
	MaxItemsPerOrder int `yaml:"max_items_per_order"`
	// MaxQuantityPerItem bounds the requested quantity per order item.
	MaxQuantityPerItem int `yaml:"max_quantity_per_item"`

	RestockGranularity RestockGranularity `yaml:"restock_granularity"`
	NoOpPolicy         NoOpPolicy         `yaml:"no_op_policy"`
}

// DefaultConfig mirrors the event mix and cadence of the reference scenario:
// 100k steps, maintenance every 100, 14-day expiry, 1-15 minute ticks,
// weights 0.20/0.65/0.05/0.10.
func DefaultConfig() Config {
	return Config{
		Iterations:          100000,
		MaintenanceEvery:    100,
		ExpiryDays:          14,
		ClockStepMinMinutes: 1,
		ClockStepMaxMinutes: 15,
		EventWeights: EventWeights{
			OrderCreation:      0.20,
			FulfillmentAttempt: 0.65,
			Restocking:         0.05,
			Idle:               0.10,
		},
		MaxItemsPerOrder:   5,
		MaxQuantityPerItem: 5,
		RestockGranularity: RestockSingle,
		NoOpPolicy:         NoOpCount,
	}
}

// ExpiryAge returns the order expiry threshold as a duration.
func (c Config) ExpiryAge() time.Duration {
	return time.Duration(c.ExpiryDays) * 24 * time.Hour
}

// weights returns the event weights in EventKind order.
func (c Config) weights() []float64 {
	return []float64{
		c.EventWeights.OrderCreation,
		c.EventWeights.FulfillmentAttempt,
		c.EventWeights.Restocking,
		c.EventWeights.Idle,
	}
}

// Validate rejects configurations that violate startup invariants. A failed
// validation is fatal: the run must not start.
func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", c.Iterations)
	}
	if c.MaintenanceEvery <= 0 {
		return fmt.Errorf("maintenance_every must be positive, got %d", c.MaintenanceEvery)
	}
	if c.ExpiryDays <= 0 {
		return fmt.Errorf("expiry_days must be positive, got %d", c.ExpiryDays)
	}
	if c.ClockStepMinMinutes < 1 || c.ClockStepMaxMinutes < c.ClockStepMinMinutes {
		return fmt.Errorf("clock step bounds invalid: min=%d max=%d",
			c.ClockStepMinMinutes, c.ClockStepMaxMinutes)
	}
	if c.MaxItemsPerOrder < 1 {
		return fmt.Errorf("max_items_per_order must be at least 1, got %d", c.MaxItemsPerOrder)
	}
	if c.MaxQuantityPerItem < 1 {
		return fmt.Errorf("max_quantity_per_item must be at least 1, got %d", c.MaxQuantityPerItem)
	}
	var total float64
	for _, w := range c.weights() {
		if w < 0 {
			return fmt.Errorf("event weights must be non-negative, got %+v", c.EventWeights)
		}
		total += w
	}
	if total <= 0 {
		return fmt.Errorf("at least one event weight must be positive, got %+v", c.EventWeights)
	}
	switch c.RestockGranularity {
	case RestockSingle, RestockSweep:
	default:
		return fmt.Errorf("unknown restock_granularity %q", c.RestockGranularity)
	}
	switch c.NoOpPolicy {
	case NoOpCount, NoOpRetry:
	default:
		return fmt.Errorf("unknown no_op_policy %q", c.NoOpPolicy)
	}
	return nil
}
