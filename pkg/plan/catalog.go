package plan

import (
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var defaultCatalog []byte

// Capabilities describes what a tier is allowed to do.
type Capabilities struct {
	DailyAnalyses int  `yaml:"daily_analyses"`
	BodyAnalysis  bool `yaml:"body_analysis"`
}

// Plan is a catalog entry.
type Plan struct {
	Tier         Tier   `yaml:"tier"`
	DisplayName  string `yaml:"display_name"`
	Capabilities `yaml:",inline"`
	// PriceID is the payment provider price that buys the plan. Empty for
	// tiers that are not sold.
	PriceID string `yaml:"-"`
}

// Catalog maps tiers to plans and provider prices back to tiers.
type Catalog struct {
	plans   map[Tier]Plan
	byPrice map[string]Tier
}

type catalogFile struct {
	Plans []Plan `yaml:"plans"`
}

// LoadCatalog parses a YAML catalog. Every known tier must be present
// exactly once.
func LoadCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}

	c := &Catalog{
		plans:   make(map[Tier]Plan, len(file.Plans)),
		byPrice: make(map[string]Tier),
	}
	for _, p := range file.Plans {
		if !p.Tier.Valid() {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("unknown tier %q", p.Tier))
		}
		if _, dup := c.plans[p.Tier]; dup {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("duplicate tier %q", p.Tier))
		}
		if p.DailyAnalyses < Unlimited || p.DailyAnalyses == 0 {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("tier %q: invalid daily_analyses %d", p.Tier, p.DailyAnalyses))
		}
		c.plans[p.Tier] = p
	}
	for _, t := range tiers {
		if _, ok := c.plans[t]; !ok {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("missing tier %q", t))
		}
	}
	return c, nil
}

var loadDefault = sync.OnceValue(func() *Catalog {
	c, err := LoadCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
})

// Default returns the built-in catalog without price ids.
func Default() *Catalog {
	return loadDefault()
}

// WithPrices returns a copy of c with provider price ids attached.
func (c *Catalog) WithPrices(prices map[Tier]string) *Catalog {
	out := &Catalog{
		plans:   maps.Clone(c.plans),
		byPrice: maps.Clone(c.byPrice),
	}
	for t, price := range prices {
		p, ok := out.plans[t]
		if !ok || price == "" {
			continue
		}
		if p.PriceID != "" {
			delete(out.byPrice, p.PriceID)
		}
		p.PriceID = price
		out.plans[t] = p
		out.byPrice[price] = t
	}
	return out
}

// Plan returns the entry for t, falling back to Basic for unknown tiers.
func (c *Catalog) Plan(t Tier) Plan {
	if p, ok := c.plans[t]; ok {
		return p
	}
	return c.plans[Basic]
}

// TierForPrice maps a provider price id to the tier it buys.
func (c *Catalog) TierForPrice(priceID string) (Tier, error) {
	if t, ok := c.byPrice[priceID]; ok && priceID != "" {
		return t, nil
	}
	return "", ErrUnknownPrice
}
