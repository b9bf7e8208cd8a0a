package pricing

import (
	"fmt"

	"github.com/thomas-vilte/llmcost/internal/models"
)

// Row is one model/tier line of a price listing.
type Row struct {
	Provider    models.Provider
	Model       string
	Tier        string
	Input       float64
	InputCached *float64
	Output      *float64
	Unit        Unit
	Symbol      string
}

// Listing flattens a table into rows sorted by model then tier.
func Listing(t *Table) []Row {
	rows := make([]Row, 0, t.Len())
	for _, model := range t.Models() {
		for _, tier := range t.Tiers(model) {
			p, _ := t.Lookup(model, tier)
			rows = append(rows, Row{
				Provider:    t.Provider(),
				Model:       model,
				Tier:        tier,
				Input:       p.Input,
				InputCached: p.InputCached,
				Output:      p.Output,
				Unit:        p.Unit,
				Symbol:      p.CurrencySymbol,
			})
		}
	}
	return rows
}

// FormatRate renders a rate right-aligned in width columns, or "-" when
// the rate is absent.
func FormatRate(rate *float64, width, decimals int) string {
	if rate == nil {
		return fmt.Sprintf("%*s", width, "-")
	}
	return fmt.Sprintf("%*.*f", width, decimals, *rate)
}

// Decimals is the precision rates of r are shown with. Per second rates
// are a few orders of magnitude below per million token ones.
func (r Row) Decimals() int {
	if r.Unit == PerSecond {
		return 4
	}
	return 3
}

// UnitLabel is the suffix shown next to a rate, e.g. "$/M" or "$/s".
func (r Row) UnitLabel() string {
	if r.Unit == PerSecond {
		return r.Symbol + "/s"
	}
	return r.Symbol + "/M"
}
