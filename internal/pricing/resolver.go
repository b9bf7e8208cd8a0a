package pricing

import (
	"strings"

	"github.com/thomas-vilte/llmcost/internal/errors"
)

// Resolution is the outcome of a price lookup.
type Resolution struct {
	Pricing ModelPricing
	// Model and Tier are the table keys the price was read from.
	Model string
	Tier  string
	// Exact is false when the price comes from a family fallback rather
	// than the requested model.
	Exact bool
}

// Resolver finds the unit price of a model under a service tier. An empty
// tier means DefaultTier.
type Resolver interface {
	Resolve(model, tier string) (Resolution, error)
}

// StrictResolver fails on any model or tier missing from its table.
type StrictResolver struct {
	table *Table
}

func NewStrictResolver(t *Table) *StrictResolver {
	return &StrictResolver{table: t}
}

func (r *StrictResolver) Resolve(model, tier string) (Resolution, error) {
	name := NormalizeModelName(model)
	if tier == "" {
		tier = DefaultTier
	}

	if !r.table.Has(name) {
		return Resolution{}, errors.ErrUnknownModel.
			WithContext("provider", string(r.table.Provider())).
			WithContext("model", model).
			WithDetail("%s model %q", r.table.Provider(), name)
	}
	p, ok := r.table.Lookup(name, tier)
	if !ok {
		available := r.table.Tiers(name)
		return Resolution{}, errors.ErrUnknownTier.
			WithContext("model", name).
			WithContext("tier", tier).
			WithContext("available", available).
			WithDetail("tier %q for %s, available: %s", tier, name, strings.Join(available, ", "))
	}
	return Resolution{Pricing: p, Model: name, Tier: tier, Exact: true}, nil
}

// HeuristicResolver never fails on an unknown model: it walks the table's
// fallbacks and prices the name as the first matching family, at that
// family's default tier. The result can be wrong for unannounced models and
// is flagged with Exact=false.
type HeuristicResolver struct {
	table *Table
}

func NewHeuristicResolver(t *Table) *HeuristicResolver {
	return &HeuristicResolver{table: t}
}

func (r *HeuristicResolver) Resolve(model, tier string) (Resolution, error) {
	name := NormalizeModelName(model)
	if tier == "" {
		tier = DefaultTier
	}

	if r.table.Has(name) {
		if p, ok := r.table.Lookup(name, tier); ok {
			return Resolution{Pricing: p, Model: name, Tier: tier, Exact: true}, nil
		}
		p, _ := r.table.Lookup(name, DefaultTier)
		return Resolution{Pricing: p, Model: name, Tier: DefaultTier, Exact: true}, nil
	}

	for _, fb := range r.table.fallbacks {
		if strings.Contains(name, fb.Contains) {
			p, _ := r.table.Lookup(fb.Model, DefaultTier)
			return Resolution{Pricing: p, Model: fb.Model, Tier: DefaultTier, Exact: false}, nil
		}
	}
	return Resolution{}, errors.ErrUnknownModel.
		WithContext("provider", string(r.table.Provider())).
		WithContext("model", model).
		WithDetail("%s model %q matches no fallback", r.table.Provider(), name)
}
