package pricing

import (
	"embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/thomas-vilte/llmcost/internal/errors"
	"github.com/thomas-vilte/llmcost/internal/models"
)

//go:embed data/*.yaml
var embedded embed.FS

type tableFile struct {
	Provider       models.Provider                    `yaml:"provider"`
	Updated        string                             `yaml:"updated"`
	Currency       string                             `yaml:"currency"`
	CurrencySymbol string                             `yaml:"currency_symbol"`
	Models         map[string]map[string]ModelPricing `yaml:"models"`
	Fallbacks      []Fallback                         `yaml:"fallbacks"`
}

// ParseTable builds a Table from its YAML description.
func ParseTable(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.ErrCatalogInvalid.WithError(err)
	}
	if f.Provider == "" {
		return nil, errors.ErrCatalogInvalid.WithDetail("table has no provider")
	}

	currency, symbol := f.Currency, f.CurrencySymbol
	if currency == "" {
		currency = DefaultCurrency
	}
	if symbol == "" {
		symbol = DefaultCurrencySymbol
	}

	t := &Table{
		provider:  f.Provider,
		updated:   f.Updated,
		prices:    make(map[string]map[string]ModelPricing, len(f.Models)),
		fallbacks: f.Fallbacks,
	}
	for model, tiers := range f.Models {
		if _, ok := tiers[DefaultTier]; !ok {
			return nil, errors.ErrCatalogInvalid.WithDetail("%s/%s has no %q tier", f.Provider, model, DefaultTier)
		}
		t.prices[model] = make(map[string]ModelPricing, len(tiers))
		for tier, p := range tiers {
			p = p.withDefaults(currency, symbol)
			if err := validatePricing(p); err != nil {
				return nil, errors.ErrCatalogInvalid.WithError(err).WithDetail("%s/%s/%s", f.Provider, model, tier)
			}
			t.prices[model][tier] = p
		}
	}
	for _, fb := range t.fallbacks {
		if !t.Has(fb.Model) {
			return nil, errors.ErrCatalogInvalid.WithDetail("fallback to unknown model %q", fb.Model)
		}
	}
	return t, nil
}

func validatePricing(p ModelPricing) error {
	switch {
	case p.Input < 0:
		return fmt.Errorf("negative input rate %v", p.Input)
	case p.InputCached != nil && *p.InputCached < 0:
		return fmt.Errorf("negative cached input rate %v", *p.InputCached)
	case p.Output != nil && *p.Output < 0:
		return fmt.Errorf("negative output rate %v", *p.Output)
	case p.Unit != PerMillionTokens && p.Unit != PerSecond:
		return fmt.Errorf("unknown unit %q", p.Unit)
	case p.Unit == PerSecond && (p.Output != nil || p.InputCached != nil):
		return fmt.Errorf("per-second pricing cannot have output or cached rates")
	}
	return nil
}

// Catalog groups the tables of every supported provider.
type Catalog struct {
	tables map[models.Provider]*Table
}

// NewCatalog indexes tables by provider. Later tables replace earlier ones
// for the same provider.
func NewCatalog(tables ...*Table) *Catalog {
	c := &Catalog{tables: make(map[models.Provider]*Table, len(tables))}
	for _, t := range tables {
		c.tables[t.Provider()] = t
	}
	return c
}

// Table returns the table of provider p.
func (c *Catalog) Table(p models.Provider) (*Table, error) {
	t, ok := c.tables[p]
	if !ok {
		return nil, errors.ErrUnsupportedProvider.WithDetail("no pricing table for %q", p)
	}
	return t, nil
}

// Providers lists the providers with a table, sorted.
func (c *Catalog) Providers() []models.Provider {
	out := make([]models.Provider, 0, len(c.tables))
	for p := range c.tables {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Resolver returns the lookup policy of provider p. OpenAI is strict,
// Gemini falls back to a model family; the two are never unified.
func (c *Catalog) Resolver(p models.Provider) (Resolver, error) {
	t, err := c.Table(p)
	if err != nil {
		return nil, err
	}
	if p == models.ProviderGemini {
		return NewHeuristicResolver(t), nil
	}
	return NewStrictResolver(t), nil
}

// LoadCatalog parses the price tables embedded in the binary.
func LoadCatalog() (*Catalog, error) {
	entries, err := embedded.ReadDir("data")
	if err != nil {
		return nil, errors.ErrCatalogInvalid.WithError(err)
	}

	tables := make([]*Table, 0, len(entries))
	for _, e := range entries {
		data, err := embedded.ReadFile("data/" + e.Name())
		if err != nil {
			return nil, errors.ErrCatalogInvalid.WithError(err)
		}
		t, err := ParseTable(data)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return NewCatalog(tables...), nil
}

var defaultCatalog = sync.OnceValues(LoadCatalog)

// DefaultCatalog returns the embedded catalog, parsed once per process.
func DefaultCatalog() (*Catalog, error) {
	return defaultCatalog()
}
