package sim

import (
	"fmt"
	"sort"
	"time"
)

// Catalog is the read-only entity pool the simulation draws from: suppliers,
// items and customers, plus the category-matched supplier index. Slices are
// kept in ID order so that every random selection over them is reproducible.
type Catalog struct {
	Suppliers []*Supplier
	Items     []*Item
	Customers []*Customer

	// Start is the simulated timestamp the clock begins at.
	Start time.Time

	suppliersByID       map[int64]*Supplier
	itemsByID           map[int64]*Item
	suppliersByCategory map[string][]*Supplier
}

// NewCatalog builds a catalog and its lookup indexes. Input slices are sorted
// by ID in place.
func NewCatalog(suppliers []*Supplier, items []*Item, customers []*Customer, start time.Time) (*Catalog, error) {
	if len(suppliers) == 0 || len(items) == 0 || len(customers) == 0 {
		return nil, fmt.Errorf("catalog requires suppliers, items and customers: got %d/%d/%d",
			len(suppliers), len(items), len(customers))
	}
	sort.Slice(suppliers, func(i, j int) bool { return suppliers[i].ID < suppliers[j].ID })
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	sort.Slice(customers, func(i, j int) bool { return customers[i].ID < customers[j].ID })

	c := &Catalog{
		Suppliers:           suppliers,
		Items:               items,
		Customers:           customers,
		Start:               start,
		suppliersByID:       make(map[int64]*Supplier, len(suppliers)),
		itemsByID:           make(map[int64]*Item, len(items)),
		suppliersByCategory: make(map[string][]*Supplier),
	}
	for _, s := range suppliers {
		if _, dup := c.suppliersByID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate supplier id %d", s.ID)
		}
		c.suppliersByID[s.ID] = s
		c.suppliersByCategory[s.Category] = append(c.suppliersByCategory[s.Category], s)
	}
	for _, it := range items {
		if _, dup := c.itemsByID[it.ID]; dup {
			return nil, fmt.Errorf("duplicate item id %d", it.ID)
		}
		c.itemsByID[it.ID] = it
	}
	return c, nil
}

// SupplierByID returns the supplier or nil.
func (c *Catalog) SupplierByID(id int64) *Supplier {
	return c.suppliersByID[id]
}

// ItemByID returns the item or nil.
func (c *Catalog) ItemByID(id int64) *Item {
	return c.itemsByID[id]
}

// EligibleSuppliers returns the suppliers stocking the given category, in ID
// order. The returned slice must not be mutated.
func (c *Catalog) EligibleSuppliers(category string) []*Supplier {
	return c.suppliersByCategory[category]
}
