package cost

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/thomas-vilte/llmcost/internal/errors"
	"github.com/thomas-vilte/llmcost/internal/models"
)

// DefaultDecimalPlaces is the precision used by String.
const DefaultDecimalPlaces = 8

// Price is the cost of one priced call, or of several folded together.
//
// TotalPrice always equals InputPrice+InputCachedPrice+OutputPrice up to
// float rounding. The *Pricing fields are the unit rates that were applied;
// after Combine they describe the first operand only.
type Price struct {
	InputPrice       float64 `json:"input_price"`
	InputCachedPrice float64 `json:"input_cached_price"`
	OutputPrice      float64 `json:"output_price"`
	TotalPrice       float64 `json:"total_price"`

	// For duration priced calls InputTokens holds the whole seconds.
	InputTokens       int `json:"input_tokens"`
	InputCachedTokens int `json:"input_cached_tokens"`
	OutputTokens      int `json:"output_tokens"`

	InputPricing       float64 `json:"input_pricing"`
	InputCachedPricing float64 `json:"input_cached_pricing"`
	OutputPricing      float64 `json:"output_pricing"`

	Currency       string `json:"currency"`
	CurrencySymbol string `json:"currency_symbol"`
	Quantity       int    `json:"quantity"`

	Provider models.Provider `json:"provider,omitempty"`
	Model    string          `json:"model,omitempty"`
	Tier     string          `json:"tier,omitempty"`
	// Approximate is set when the model was priced as another family.
	Approximate bool `json:"approximate,omitempty"`
}

// Combine returns a new Price holding the sum of a and b.
func Combine(a, b Price) (Price, error) {
	if err := a.Accumulate(b); err != nil {
		return Price{}, err
	}
	return a, nil
}

// Accumulate adds other into p. p is left untouched on error. Concurrent
// calls on the same Price must be serialized by the caller.
func (p *Price) Accumulate(other Price) error {
	if p.Currency != other.Currency {
		return errors.ErrCurrencyMismatch.
			WithContext("left", p.Currency).
			WithContext("right", other.Currency).
			WithDetail("%s vs %s", p.Currency, other.Currency)
	}

	p.InputPrice += other.InputPrice
	p.InputCachedPrice += other.InputCachedPrice
	p.OutputPrice += other.OutputPrice
	p.TotalPrice += other.TotalPrice
	p.InputTokens += other.InputTokens
	p.InputCachedTokens += other.InputCachedTokens
	p.OutputTokens += other.OutputTokens
	p.Quantity += other.Quantity
	p.Approximate = p.Approximate || other.Approximate
	return nil
}

// AveragePrice is the total divided by the number of calls.
func (p Price) AveragePrice() float64 {
	if p.Quantity <= 0 {
		return p.TotalPrice
	}
	return p.TotalPrice / float64(p.Quantity)
}

// Render formats the breakdown, e.g.
//
//	$0.00008 (input, 80%) + $0.00002 (output, 20%) = $0.0001 total
//
// Components that cost nothing are left out. A " (xN calls, $avg per call)"
// suffix is added when more than one call was folded in.
func (p Price) Render(decimalPlaces int) string {
	format := func(v float64) string {
		return p.CurrencySymbol + FormatAmount(v, decimalPlaces)
	}

	parts := make([]string, 0, 3)
	if p.InputPrice > 0 {
		parts = append(parts, fmt.Sprintf("%s (input, %d%%)", format(p.InputPrice), percentage(p.InputPrice, p.TotalPrice)))
	}
	if p.InputCachedPrice > 0 {
		parts = append(parts, fmt.Sprintf("%s (cached, %d%%)", format(p.InputCachedPrice), percentage(p.InputCachedPrice, p.TotalPrice)))
	}
	if p.OutputPrice > 0 {
		parts = append(parts, fmt.Sprintf("%s (output, %d%%)", format(p.OutputPrice), percentage(p.OutputPrice, p.TotalPrice)))
	}

	breakdown := p.CurrencySymbol + "0"
	if len(parts) > 0 {
		breakdown = strings.Join(parts, " + ")
	}

	result := fmt.Sprintf("%s = %s total", breakdown, format(p.TotalPrice))
	if p.Quantity > 1 {
		result += fmt.Sprintf(" (x%d calls, %s per call)", p.Quantity, format(p.AveragePrice()))
	}
	return result
}

func (p Price) String() string {
	return p.Render(DefaultDecimalPlaces)
}

// GoString is the %#v form, meant for debugging.
func (p Price) GoString() string {
	return fmt.Sprintf("cost.Price{input=%.10g, input_cached=%.10g, output=%.10g, total=%.10g, "+
		"input_tokens=%d, input_cached_tokens=%d, output_tokens=%d, "+
		"input_pricing=%.10g, input_cached_pricing=%.10g, output_pricing=%.10g, "+
		"currency=%s, quantity=%d}",
		p.InputPrice, p.InputCachedPrice, p.OutputPrice, p.TotalPrice,
		p.InputTokens, p.InputCachedTokens, p.OutputTokens,
		p.InputPricing, p.InputCachedPricing, p.OutputPricing,
		p.Currency, p.Quantity)
}

// FormatAmount prints v with a fixed number of decimals, then drops trailing
// zeros while keeping at least one digit after the point: 12.340000 ->
// 12.34, 12.000000 -> 12.0.
func FormatAmount(v float64, decimalPlaces int) string {
	if decimalPlaces < 0 {
		decimalPlaces = 0
	}
	s := strconv.FormatFloat(v, 'f', decimalPlaces, 64)
	if !strings.Contains(s, ".") {
		return s + ".0"
	}
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}

// percentage is round(100*part/total), half to even, 0 when total is 0.
func percentage(part, total float64) int {
	if total == 0 {
		return 0
	}
	return int(math.RoundToEven(100 * part / total))
}
