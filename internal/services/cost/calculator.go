package cost

import (
	"log/slog"

	"github.com/thomas-vilte/llmcost/internal/errors"
	"github.com/thomas-vilte/llmcost/internal/models"
	"github.com/thomas-vilte/llmcost/internal/pricing"
)

const tokensPerMillion = 1_000_000

// FromTokens prices token usage. Cached tokens cost nothing when the model
// has no cached rate, output tokens nothing when it has no output rate.
func FromTokens(p pricing.ModelPricing, inputTokens, cachedInputTokens, outputTokens int) Price {
	inputCost := float64(inputTokens) * p.Input / tokensPerMillion

	inputCachedCost := 0.0
	if p.InputCached != nil {
		inputCachedCost = float64(cachedInputTokens) * *p.InputCached / tokensPerMillion
	}

	outputCost := 0.0
	if p.Output != nil {
		outputCost = float64(outputTokens) * *p.Output / tokensPerMillion
	}

	return Price{
		InputPrice:         inputCost,
		InputCachedPrice:   inputCachedCost,
		OutputPrice:        outputCost,
		TotalPrice:         inputCost + inputCachedCost + outputCost,
		InputTokens:        inputTokens,
		InputCachedTokens:  cachedInputTokens,
		OutputTokens:       outputTokens,
		InputPricing:       p.Input,
		InputCachedPricing: p.CachedRate(),
		OutputPricing:      p.OutputRate(),
		Currency:           p.Currency,
		CurrencySymbol:     p.CurrencySymbol,
		Quantity:           1,
	}
}

// FromDuration prices audio duration. Input is read as a per-second rate.
func FromDuration(p pricing.ModelPricing, durationSeconds float64) Price {
	c := durationSeconds * p.Input
	return Price{
		InputPrice:     c,
		TotalPrice:     c,
		InputTokens:    int(durationSeconds),
		InputPricing:   p.Input,
		Currency:       p.Currency,
		CurrencySymbol: p.CurrencySymbol,
		Quantity:       1,
	}
}

// Calculator prices provider responses against an injected catalog.
type Calculator struct {
	catalog *pricing.Catalog
	logger  *slog.Logger
}

type Option func(*Calculator)

func WithLogger(l *slog.Logger) Option {
	return func(c *Calculator) {
		c.logger = l
	}
}

func NewCalculator(catalog *pricing.Catalog, opts ...Option) *Calculator {
	c := &Calculator{
		catalog: catalog,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewDefaultCalculator uses the catalog embedded in the binary.
func NewDefaultCalculator(opts ...Option) (*Calculator, error) {
	catalog, err := pricing.DefaultCatalog()
	if err != nil {
		return nil, err
	}
	return NewCalculator(catalog, opts...), nil
}

type computeOptions struct {
	provider models.Provider
	sttModel string
}

type ComputeOption func(*computeOptions)

// WithProvider skips detection and reads the response as p's shape.
func WithProvider(p models.Provider) ComputeOption {
	return func(o *computeOptions) {
		o.provider = p
	}
}

// WithSTTModel names the model of responses that do not carry one, which is
// always the case for transcriptions.
func WithSTTModel(model string) ComputeOption {
	return func(o *computeOptions) {
		o.sttModel = model
	}
}

// Compute detects the response shape, extracts its usage and prices it.
// The returned Price has Quantity 1.
func (c *Calculator) Compute(resp any, opts ...ComputeOption) (*Price, error) {
	var o computeOptions
	for _, opt := range opts {
		opt(&o)
	}

	shape, err := Classify(resp, o.provider)
	if err != nil {
		return nil, err
	}

	usage, err := ExtractUsage(resp, shape, o.sttModel)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("usage extracted",
		"shape", shape,
		"model", usage.Model,
		"tier", usage.Tier,
		"kind", usage.Kind.String(),
		"input_tokens", usage.InputTokens,
		"cached_tokens", usage.CachedInputTokens,
		"output_tokens", usage.OutputTokens,
		"duration_seconds", usage.DurationSeconds)

	return c.Price(usage)
}

// Price resolves the unit price for an extracted usage record and applies it.
func (c *Calculator) Price(u models.Usage) (*Price, error) {
	provider := u.Shape.Provider()
	resolver, err := c.catalog.Resolver(provider)
	if err != nil {
		return nil, err
	}

	res, err := resolver.Resolve(u.Model, u.Tier)
	if err != nil {
		c.logger.Debug("price resolution failed",
			"provider", provider,
			"model", u.Model,
			"tier", u.Tier,
			"error", err)
		return nil, err
	}
	if !res.Exact {
		c.logger.Warn("model not in pricing table, using family price",
			"provider", provider,
			"model", u.Model,
			"priced_as", res.Model)
	}

	if (u.Kind == models.UsageDuration) != res.Pricing.DurationBilled() {
		return nil, errors.ErrMalformedUsage.
			WithContext("model", res.Model).
			WithDetail("%s usage cannot be priced with %s rates of %s", u.Kind, res.Pricing.Unit, res.Model)
	}

	var p Price
	if u.Kind == models.UsageDuration {
		p = FromDuration(res.Pricing, u.DurationSeconds)
	} else {
		p = FromTokens(res.Pricing, u.InputTokens, u.CachedInputTokens, u.OutputTokens)
	}
	p.Provider = provider
	p.Model = res.Model
	p.Tier = res.Tier
	p.Approximate = !res.Exact

	c.logger.Debug("price computed",
		"provider", provider,
		"model", res.Model,
		"tier", res.Tier,
		"cost", p.TotalPrice)

	return &p, nil
}
