// Package seedgen generates the synthetic entity pool a simulation run is
// seeded with: suppliers, items, customers and initial inventory rows.
// Generation is fully deterministic for a given seed.
package seedgen

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"

	"github.com/JamesBuckley3/supply-chain-simulator/sim"
)

// Config sizes and shapes the generated catalog.
type Config struct {
	Suppliers int `yaml:"suppliers"`
	Items     int `yaml:"items"`
	Customers int `yaml:"customers"`

	Categories []string `yaml:"categories"`
	Regions    []string `yaml:"regions"`

	// SupplierMaxQuantity is the restock ceiling stamped on every inventory
	// row.
	SupplierMaxQuantity int `yaml:"supplier_max_quantity"`
	InitialStockMin     int `yaml:"initial_stock_min"`
	InitialStockMax     int `yaml:"initial_stock_max"`
	ReorderPointMin     int `yaml:"reorder_point_min"`
	ReorderPointMax     int `yaml:"reorder_point_max"`

	FailureRateMin       float64 `yaml:"failure_rate_min"`
	FailureRateMax       float64 `yaml:"failure_rate_max"`
	FulfillmentWeightMin float64 `yaml:"fulfillment_weight_min"`
	FulfillmentWeightMax float64 `yaml:"fulfillment_weight_max"`
	RestockWeightMin     float64 `yaml:"restock_weight_min"`
	RestockWeightMax     float64 `yaml:"restock_weight_max"`

	UnitPriceMin float64 `yaml:"unit_price_min"`
	UnitPriceMax float64 `yaml:"unit_price_max"`
}

// DefaultConfig mirrors the reference scenario: 10 suppliers over 5
// categories, 50 items, 200 customers across 4 regions.
func DefaultConfig() Config {
	return Config{
		Suppliers:            10,
		Items:                50,
		Customers:            200,
		Categories:           []string{"Electronics", "Clothing", "Food", "Medical", "Hardware"},
		Regions:              []string{"North", "South", "East", "West"},
		SupplierMaxQuantity:  40,
		InitialStockMin:      10,
		InitialStockMax:      40,
		ReorderPointMin:      5,
		ReorderPointMax:      15,
		FailureRateMin:       0.01,
		FailureRateMax:       0.05,
		FulfillmentWeightMin: 0.1,
		FulfillmentWeightMax: 9.0,
		RestockWeightMin:     0.25,
		RestockWeightMax:     0.95,
		UnitPriceMin:         5.00,
		UnitPriceMax:         50.00,
	}
}

// Validate rejects configurations that cannot produce a usable catalog.
func (c Config) Validate() error {
	if c.Suppliers < 1 || c.Items < 1 || c.Customers < 1 {
		return fmt.Errorf("suppliers/items/customers must all be positive, got %d/%d/%d",
			c.Suppliers, c.Items, c.Customers)
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one category required")
	}
	if len(c.Regions) == 0 {
		return fmt.Errorf("at least one region required")
	}
	if c.InitialStockMin < 0 || c.InitialStockMax < c.InitialStockMin {
		return fmt.Errorf("initial stock bounds invalid: %d..%d", c.InitialStockMin, c.InitialStockMax)
	}
	if c.ReorderPointMin < 0 || c.ReorderPointMax < c.ReorderPointMin {
		return fmt.Errorf("reorder point bounds invalid: %d..%d", c.ReorderPointMin, c.ReorderPointMax)
	}
	if c.FailureRateMin < 0 || c.FailureRateMax > 1 || c.FailureRateMax < c.FailureRateMin {
		return fmt.Errorf("failure rate bounds invalid: %v..%v", c.FailureRateMin, c.FailureRateMax)
	}
	if c.RestockWeightMin < 0 || c.RestockWeightMax > 1 || c.RestockWeightMax < c.RestockWeightMin {
		return fmt.Errorf("restock weight bounds invalid: %v..%v", c.RestockWeightMin, c.RestockWeightMax)
	}
	if c.SupplierMaxQuantity < 1 {
		return fmt.Errorf("supplier_max_quantity must be positive, got %d", c.SupplierMaxQuantity)
	}
	return nil
}

// Generate builds a catalog and its initial inventory. Suppliers are spread
// round-robin over the categories; every supplier stocks every item of its
// category, which is where inventory rows come from. Names come from a
// seeded faker, all numeric draws from the catalog RNG subsystem, so the
// output is a pure function of (cfg, seed, start).
func Generate(cfg Config, seed int64, start time.Time) (*sim.Catalog, []*sim.Inventory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid catalog config: %w", err)
	}
	faker := gofakeit.New(uint64(seed))
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(seed)).ForSubsystem(sim.SubsystemCatalog)

	suppliers := make([]*sim.Supplier, 0, cfg.Suppliers)
	for i := 0; i < cfg.Suppliers; i++ {
		suppliers = append(suppliers, &sim.Supplier{
			ID:                int64(i + 1),
			Name:              faker.Company(),
			Category:          cfg.Categories[i%len(cfg.Categories)],
			FailureRate:       uniformFloat(rng, cfg.FailureRateMin, cfg.FailureRateMax),
			FulfillmentWeight: uniformFloat(rng, cfg.FulfillmentWeightMin, cfg.FulfillmentWeightMax),
		})
	}

	// only categories that actually got a supplier; items outside them could
	// never be fulfilled
	used := cfg.Categories
	if cfg.Suppliers < len(cfg.Categories) {
		used = cfg.Categories[:cfg.Suppliers]
	}

	items := make([]*sim.Item, 0, cfg.Items)
	for i := 0; i < cfg.Items; i++ {
		price := decimal.NewFromFloat(uniformFloat(rng, cfg.UnitPriceMin, cfg.UnitPriceMax)).Round(2)
		items = append(items, &sim.Item{
			ID:        int64(i + 1),
			Name:      faker.ProductName(),
			Category:  used[rng.Intn(len(used))],
			UnitPrice: price,
		})
	}

	customers := make([]*sim.Customer, 0, cfg.Customers)
	for i := 0; i < cfg.Customers; i++ {
		customers = append(customers, &sim.Customer{
			ID:     int64(i + 1),
			Name:   faker.Name(),
			Region: cfg.Regions[rng.Intn(len(cfg.Regions))],
		})
	}

	cat, err := sim.NewCatalog(suppliers, items, customers, start)
	if err != nil {
		return nil, nil, err
	}

	var inventory []*sim.Inventory
	for _, item := range cat.Items {
		for _, sup := range cat.EligibleSuppliers(item.Category) {
			inventory = append(inventory, &sim.Inventory{
				ItemID:              item.ID,
				SupplierID:          sup.ID,
				QuantityOnHand:      uniformInt(rng, cfg.InitialStockMin, cfg.InitialStockMax),
				ReorderPoint:        uniformInt(rng, cfg.ReorderPointMin, cfg.ReorderPointMax),
				RestockWeight:       uniformFloat(rng, cfg.RestockWeightMin, cfg.RestockWeightMax),
				SupplierMaxQuantity: cfg.SupplierMaxQuantity,
				LastUpdated:         start,
			})
		}
	}
	return cat, inventory, nil
}

func uniformFloat(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}

func uniformInt(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}
