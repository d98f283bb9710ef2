// Package catalog holds the purchasable device offerings. The built-in set
// ships with the binary; deployments can override it with a YAML file via
// CATALOG_PATH.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Item is one purchasable mining device model.
type Item struct {
	ID                 string  `json:"id" yaml:"id"`
	Name               string  `json:"name" yaml:"name"`
	PriceCents         int64   `json:"price_cents" yaml:"price_cents"`
	DurationDays       int     `json:"duration_days" yaml:"duration_days"`
	DailyProfitPercent float64 `json:"daily_profit_percent" yaml:"daily_profit_percent"`
	Hashrate           string  `json:"hashrate" yaml:"hashrate"`
	Icon               string  `json:"icon,omitempty" yaml:"icon,omitempty"`
}

type Catalog struct {
	items []Item
	byID  map[string]Item
}

var builtin = []Item{
	{ID: "pkg-1", Name: "Antminer S9 - Classic", PriceCents: 1200, DurationDays: 15, DailyProfitPercent: 2.5, Hashrate: "14 TH/s"},
	{ID: "pkg-2", Name: "Whatsminer M30S", PriceCents: 4000, DurationDays: 30, DailyProfitPercent: 2.5, Hashrate: "88 TH/s"},
	{ID: "pkg-3", Name: "GPU Rig RTX 3090", PriceCents: 8000, DurationDays: 45, DailyProfitPercent: 2.5, Hashrate: "1.2 GH/s"},
	{ID: "pkg-4", Name: "Antminer S19 Pro", PriceCents: 18000, DurationDays: 60, DailyProfitPercent: 2.5, Hashrate: "110 TH/s"},
}

// Builtin returns the catalog shipped with the binary.
func Builtin() *Catalog {
	return newCatalog(builtin)
}

// Load reads a catalog from a YAML file. An empty path returns the built-in
// catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Builtin(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	var file struct {
		Items []Item `yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	if len(file.Items) == 0 {
		return nil, fmt.Errorf("catalog %s: no items", path)
	}
	for _, it := range file.Items {
		if it.ID == "" || it.PriceCents <= 0 || it.DurationDays <= 0 || it.DailyProfitPercent <= 0 {
			return nil, fmt.Errorf("catalog %s: invalid item %q", path, it.ID)
		}
	}
	return newCatalog(file.Items), nil
}

func newCatalog(items []Item) *Catalog {
	byID := make(map[string]Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	return &Catalog{items: items, byID: byID}
}

// Items returns all offerings in display order.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns the item with the given id.
func (c *Catalog) Get(id string) (Item, bool) {
	it, ok := c.byID[id]
	return it, ok
}
