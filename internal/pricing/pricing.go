// Package pricing holds the static per-provider price tables and the
// resolvers that map a model name and service tier to a unit price.
package pricing

import (
	"regexp"
	"sort"
	"strings"

	"github.com/thomas-vilte/llmcost/internal/models"
)

const (
	// DefaultTier is the tier used when a response does not name one.
	DefaultTier = "default"

	DefaultCurrency       = "dollar"
	DefaultCurrencySymbol = "$"
)

// Unit is what Input is charged against.
type Unit string

const (
	PerMillionTokens Unit = "million_tokens"
	PerSecond        Unit = "second"
)

// ModelPricing is the price of one model under one service tier.
//
// Input is per million tokens, or per second when Unit is PerSecond
// (transcription). A nil InputCached means cached tokens get no discounted
// rate and contribute nothing; a nil Output means the model has no output
// component.
type ModelPricing struct {
	Input          float64  `yaml:"input"`
	InputCached    *float64 `yaml:"input_cached"`
	Output         *float64 `yaml:"output"`
	Unit           Unit     `yaml:"unit"`
	Currency       string   `yaml:"currency"`
	CurrencySymbol string   `yaml:"currency_symbol"`
}

// Rate returns a pointer to v, for building ModelPricing literals.
func Rate(v float64) *float64 {
	return &v
}

// CachedRate returns the cached input rate, 0 when absent.
func (p ModelPricing) CachedRate() float64 {
	if p.InputCached == nil {
		return 0
	}
	return *p.InputCached
}

// OutputRate returns the output rate, 0 when absent.
func (p ModelPricing) OutputRate() float64 {
	if p.Output == nil {
		return 0
	}
	return *p.Output
}

// DurationBilled reports whether Input is a per-second rate.
func (p ModelPricing) DurationBilled() bool {
	return p.Unit == PerSecond
}

func (p ModelPricing) withDefaults(currency, symbol string) ModelPricing {
	if p.Unit == "" {
		p.Unit = PerMillionTokens
	}
	if p.Currency == "" {
		p.Currency = currency
	}
	if p.CurrencySymbol == "" {
		p.CurrencySymbol = symbol
	}
	return p
}

// Fallback routes unknown model names containing Contains to Model. An empty
// Contains matches every name.
type Fallback struct {
	Contains string `yaml:"contains"`
	Model    string `yaml:"model"`
}

// Table maps model -> tier -> ModelPricing for one provider. It is
// read-only once built.
type Table struct {
	provider  models.Provider
	updated   string
	prices    map[string]map[string]ModelPricing
	fallbacks []Fallback
}

func (t *Table) Provider() models.Provider {
	return t.provider
}

// Updated is the date the prices were copied from the provider's page.
func (t *Table) Updated() string {
	return t.updated
}

func (t *Table) Len() int {
	return len(t.prices)
}

func (t *Table) Has(model string) bool {
	_, ok := t.prices[model]
	return ok
}

// Lookup returns the price for an exact model and tier. ModelPricing holds
// only values and read-only pointers, so the copy is safe to hand out.
func (t *Table) Lookup(model, tier string) (ModelPricing, bool) {
	tiers, ok := t.prices[model]
	if !ok {
		return ModelPricing{}, false
	}
	p, ok := tiers[tier]
	return p, ok
}

// Models returns the model names in lexical order.
func (t *Table) Models() []string {
	out := make([]string, 0, len(t.prices))
	for m := range t.prices {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Tiers returns the tiers known for model in lexical order.
func (t *Table) Tiers(model string) []string {
	tiers := t.prices[model]
	out := make([]string, 0, len(tiers))
	for tier := range tiers {
		out = append(out, tier)
	}
	sort.Strings(out)
	return out
}

// Fallbacks returns a copy of the heuristic routing rules, in match order.
func (t *Table) Fallbacks() []Fallback {
	return append([]Fallback(nil), t.fallbacks...)
}

var dateSuffix = regexp.MustCompile(`-\d{4}-\d{2}-\d{2}$`)

// NormalizeModelName lower-cases model and strips a trailing snapshot date,
// so "GPT-4.1-nano-2025-04-14" prices as "gpt-4.1-nano".
func NormalizeModelName(model string) string {
	return dateSuffix.ReplaceAllString(strings.ToLower(model), "")
}
