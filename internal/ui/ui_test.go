package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/thomas-vilte/llmcost/internal/errors"
	"github.com/thomas-vilte/llmcost/internal/i18n"
	"github.com/thomas-vilte/llmcost/internal/metrics"
	"github.com/thomas-vilte/llmcost/internal/services/cost"
)

func setup(t *testing.T) *i18n.Translations {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	trans, err := i18n.NewTranslations("en", "")
	require.NoError(t, err)
	return trans
}

func TestHandleAppError(t *testing.T) {
	trans := setup(t)

	t.Run("app error with suggestion", func(t *testing.T) {
		var buf bytes.Buffer
		HandleAppError(&buf, domainErrors.ErrMissingModelName, trans)

		out := buf.String()
		assert.Contains(t, out, "USAGE: model name is required")
		assert.Contains(t, out, "Try: Name the model the usage was billed for")
	})

	t.Run("plain error", func(t *testing.T) {
		var buf bytes.Buffer
		HandleAppError(&buf, errors.New("boom"))
		assert.Contains(t, buf.String(), "boom")
		assert.NotContains(t, buf.String(), "Try")
	})

	t.Run("nil", func(t *testing.T) {
		var buf bytes.Buffer
		HandleAppError(&buf, nil)
		assert.Empty(t, buf.String())
	})
}

func TestPrintPrice(t *testing.T) {
	trans := setup(t)

	p := &cost.Price{
		InputPrice:     0.004,
		OutputPrice:    0.006,
		TotalPrice:     0.01,
		CurrencySymbol: "$",
		Quantity:       1,
		Model:          "gemini-3-pro-preview",
		Tier:           "default",
		Approximate:    true,
	}

	var buf bytes.Buffer
	PrintPrice(&buf, "resp.json", p, 8, trans)

	out := buf.String()
	assert.Contains(t, out, "resp.json $0.004 (input, 40%) + $0.006 (output, 60%) = $0.01 total [gemini-3-pro-preview default]")
	assert.Contains(t, out, "gemini-3-pro-preview")
	assert.Contains(t, out, "⚠️")
}

func TestPrintTotal(t *testing.T) {
	trans := setup(t)

	total := cost.Price{InputPrice: 0.03, TotalPrice: 0.03, CurrencySymbol: "$", Quantity: 3}
	subtotals := []cost.ModelSubtotal{
		{Key: "openai/gpt-5", Price: cost.Price{TotalPrice: 0.02, CurrencySymbol: "$", Quantity: 2}},
		{Key: "gemini/gemini-3-pro-preview", Price: cost.Price{TotalPrice: 0.01, CurrencySymbol: "$", Quantity: 1}},
	}

	var buf bytes.Buffer
	PrintTotal(&buf, total, subtotals, 8, trans)

	out := buf.String()
	assert.Contains(t, out, "$0.03 (input, 100%) = $0.03 total (x3 calls, $0.01 per call)")
	assert.Contains(t, out, "openai/gpt-5: $0.02 (x2)")
	assert.Contains(t, out, "gemini/gemini-3-pro-preview: $0.01 (x1)")
}

func TestPrintBudget(t *testing.T) {
	trans := setup(t)

	var buf bytes.Buffer
	PrintBudget(&buf, cost.BudgetStatus{}, "$", 2, trans)
	assert.Empty(t, buf.String())

	PrintBudget(&buf, cost.BudgetStatus{IsWarning: true, WarningLevel: 75, PercentUsed: 80, Limit: 1, Total: 0.8}, "$", 2, trans)
	assert.Contains(t, buf.String(), "80%")
	assert.Contains(t, buf.String(), "$1.0")

	buf.Reset()
	PrintBudget(&buf, cost.BudgetStatus{IsWarning: true, WarningLevel: 90, PercentUsed: 120, Limit: 1, Total: 1.2}, "$", 2, trans)
	assert.Contains(t, buf.String(), "❌")
}

func TestPrintMetricsSummary(t *testing.T) {
	trans := setup(t)

	var buf bytes.Buffer
	PrintMetricsSummary(&buf, metrics.Summary{
		Calls:    2,
		Cost:     map[string]float64{"input": 0.02, "output": 0.01},
		Tokens:   map[string]float64{"input": 300, "output": 20},
		Observed: 2,
		MeanCost: 0.015,
		Models:   []string{"openai/gpt-5"},
	}, "$", 8, trans)

	out := buf.String()
	assert.Contains(t, out, ": 2\n")
	assert.Contains(t, out, "$0.015")
	assert.Contains(t, out, "$0.02 / 300 tokens")
	assert.Contains(t, out, "- openai/gpt-5")
}
