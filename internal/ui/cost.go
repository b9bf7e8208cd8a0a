package ui

import (
	"fmt"
	"io"
	"sort"

	"github.com/thomas-vilte/llmcost/internal/i18n"
	"github.com/thomas-vilte/llmcost/internal/metrics"
	"github.com/thomas-vilte/llmcost/internal/services/cost"
)

// PrintPrice prints one priced response: its label, the rendered breakdown
// and the model it was priced as.
func PrintPrice(w io.Writer, label string, p *cost.Price, decimals int, t *i18n.Translations) {
	_, _ = fmt.Fprintf(w, "%s %s %s\n",
		Info.Sprint(label),
		Money.Sprint(p.Render(decimals)),
		Dim.Sprintf("[%s %s]", p.Model, p.Tier))

	if p.Approximate {
		PrintWarning(w, t.GetMessage("price.approximate", 0, map[string]interface{}{
			"Model": p.Model,
		}))
	}
}

// PrintTotal prints the session total with the per-model subtotals below.
func PrintTotal(w io.Writer, total cost.Price, subtotals []cost.ModelSubtotal, decimals int, t *i18n.Translations) {
	PrintSectionBanner(w, t.GetMessage("price.total_title", total.Quantity, map[string]interface{}{
		"Count": total.Quantity,
	}))
	_, _ = fmt.Fprintln(w, Money.Sprint(total.Render(decimals)))

	if len(subtotals) < 2 {
		return
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, Dim.Sprint(t.GetMessage("price.by_model_title", 0, nil)))
	for _, s := range subtotals {
		PrintKeyValue(w, s.Key, fmt.Sprintf("%s%s (x%d)",
			s.Price.CurrencySymbol, cost.FormatAmount(s.Price.TotalPrice, decimals), s.Price.Quantity))
	}
}

// PrintBudget prints a warning once spending passes a warning level.
func PrintBudget(w io.Writer, status cost.BudgetStatus, symbol string, decimals int, t *i18n.Translations) {
	data := map[string]interface{}{
		"Percent": fmt.Sprintf("%.0f", status.PercentUsed),
		"Level":   status.WarningLevel,
		"Limit":   symbol + cost.FormatAmount(status.Limit, decimals),
		"Total":   symbol + cost.FormatAmount(status.Total, decimals),
	}
	switch {
	case status.PercentUsed >= 100:
		PrintError(w, t.GetMessage("price.budget_exceeded", 0, data))
	case status.IsWarning:
		PrintWarning(w, t.GetMessage("price.budget_warning", 0, data))
	}
}

// PrintMetricsSummary prints what the session recorded in its registry.
func PrintMetricsSummary(w io.Writer, s metrics.Summary, symbol string, decimals int, t *i18n.Translations) {
	PrintSectionBanner(w, t.GetMessage("price.metrics_title", 0, nil))

	PrintKeyValue(w, t.GetMessage("price.metrics_calls", 0, nil), fmt.Sprintf("%.0f", s.Calls))
	PrintKeyValue(w, t.GetMessage("price.metrics_mean", 0, nil), symbol+cost.FormatAmount(s.MeanCost, decimals))

	for _, component := range sortedKeys(s.Cost) {
		PrintKeyValue(w,
			t.GetMessage("price.metrics_component", 0, map[string]interface{}{"Component": component}),
			fmt.Sprintf("%s%s / %.0f tokens", symbol, cost.FormatAmount(s.Cost[component], decimals), s.Tokens[component]))
	}
	for _, m := range s.Models {
		_, _ = fmt.Fprintf(w, "   %s\n", Dim.Sprint("- "+m))
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
