package pricing

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/llmcost/internal/cli/command"
	"github.com/thomas-vilte/llmcost/internal/config"
	"github.com/thomas-vilte/llmcost/internal/errors"
	"github.com/thomas-vilte/llmcost/internal/i18n"
	"github.com/thomas-vilte/llmcost/internal/logger"
	"github.com/thomas-vilte/llmcost/internal/models"
	"github.com/thomas-vilte/llmcost/internal/pricing"
	"github.com/thomas-vilte/llmcost/internal/ui"
)

type PricingCommandFactory struct {
	catalog *pricing.Catalog
	out     io.Writer
	errOut  io.Writer
}

type Option func(*PricingCommandFactory)

func WithOutput(w io.Writer) Option {
	return func(f *PricingCommandFactory) {
		f.out = w
	}
}

func WithErrorOutput(w io.Writer) Option {
	return func(f *PricingCommandFactory) {
		f.errOut = w
	}
}

func NewPricingCommandFactory(catalog *pricing.Catalog, opts ...Option) *PricingCommandFactory {
	f := &PricingCommandFactory{
		catalog: catalog,
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *PricingCommandFactory) CreateCommand(t *i18n.Translations, _ *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "pricing",
		Usage: t.GetMessage("pricing.usage", 0, nil),
		Commands: []*cli.Command{
			f.newListCommand(t),
			f.newShowCommand(t),
		},
	}
}

func (f *PricingCommandFactory) newListCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   t.GetMessage("pricing.list_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "provider",
				Usage: t.GetMessage("pricing.flag_provider", 0, nil),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			providers := f.catalog.Providers()
			if p := cmd.String("provider"); p != "" {
				providers = []models.Provider{models.Provider(p)}
			}

			for _, p := range providers {
				table, err := f.catalog.Table(p)
				if err != nil {
					return err
				}
				f.printTable(table, t)
			}
			return nil
		},
	}
}

func (f *PricingCommandFactory) printTable(table *pricing.Table, t *i18n.Translations) {
	ui.PrintSectionBanner(f.out, t.GetMessage("pricing.table_title", 0, map[string]interface{}{
		"Provider": table.Provider(),
		"Updated":  table.Updated(),
	}))

	rows := pricing.Listing(table)
	modelWidth, tierWidth := len("model"), len("tier")
	for _, r := range rows {
		modelWidth = max(modelWidth, len(r.Model))
		tierWidth = max(tierWidth, len(r.Tier))
	}

	header := fmt.Sprintf("%-*s  %-*s  %9s  %9s  %9s  %s",
		modelWidth, t.GetMessage("pricing.column_model", 0, nil),
		tierWidth, t.GetMessage("pricing.column_tier", 0, nil),
		t.GetMessage("pricing.column_input", 0, nil),
		t.GetMessage("pricing.column_cached", 0, nil),
		t.GetMessage("pricing.column_output", 0, nil),
		t.GetMessage("pricing.column_unit", 0, nil))
	_, _ = fmt.Fprintln(f.out, ui.Dim.Sprint(strings.TrimRight(header, " ")))

	for _, r := range rows {
		d := r.Decimals()
		input := r.Input
		_, _ = fmt.Fprintf(f.out, "%-*s  %-*s  %s  %s  %s  %s\n",
			modelWidth, r.Model,
			tierWidth, r.Tier,
			pricing.FormatRate(&input, 9, d),
			pricing.FormatRate(r.InputCached, 9, d),
			pricing.FormatRate(r.Output, 9, d),
			r.UnitLabel())
	}
}

func (f *PricingCommandFactory) newShowCommand(t *i18n.Translations) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     t.GetMessage("pricing.show_usage", 0, nil),
		ArgsUsage: "<model>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "provider",
				Usage: t.GetMessage("pricing.flag_provider", 0, nil),
			},
			&cli.StringFlag{
				Name:  "tier",
				Value: pricing.DefaultTier,
				Usage: t.GetMessage("pricing.flag_tier", 0, nil),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx = command.WithLogging(ctx, cmd, f.errOut)

			model := cmd.Args().First()
			if model == "" {
				return errors.ErrMissingModelName.
					WithSuggestion(t.GetMessage("pricing.show_missing_model", 0, nil))
			}

			provider := models.Provider(cmd.String("provider"))
			if provider == "" {
				provider = f.inferProvider(model)
				logger.Debug(ctx, "provider inferred", "model", model, "provider", provider)
			}

			resolver, err := f.catalog.Resolver(provider)
			if err != nil {
				return err
			}
			res, err := resolver.Resolve(model, cmd.String("tier"))
			if err != nil {
				return err
			}

			f.printResolution(provider, model, res, t)
			return nil
		},
	}
}

// inferProvider picks the table that lists model. Names no table knows go
// to Gemini when they look like a Gemini model, so the family fallback
// applies, and to OpenAI otherwise.
func (f *PricingCommandFactory) inferProvider(model string) models.Provider {
	name := pricing.NormalizeModelName(model)
	for _, p := range f.catalog.Providers() {
		if table, err := f.catalog.Table(p); err == nil && table.Has(name) {
			return p
		}
	}
	if strings.HasPrefix(name, "gemini") {
		return models.ProviderGemini
	}
	return models.ProviderOpenAI
}

func (f *PricingCommandFactory) printResolution(provider models.Provider, model string, res pricing.Resolution, t *i18n.Translations) {
	ui.PrintSectionBanner(f.out, fmt.Sprintf("%s (%s)", res.Model, provider))

	row := pricing.Row{Unit: res.Pricing.Unit, Symbol: res.Pricing.CurrencySymbol}
	d := row.Decimals()
	rate := func(v *float64) string {
		return strings.TrimSpace(pricing.FormatRate(v, 0, d)) + " " + row.UnitLabel()
	}
	input := res.Pricing.Input

	ui.PrintKeyValue(f.out, t.GetMessage("pricing.column_tier", 0, nil), res.Tier)
	ui.PrintKeyValue(f.out, t.GetMessage("pricing.column_input", 0, nil), rate(&input))
	if res.Pricing.InputCached != nil {
		ui.PrintKeyValue(f.out, t.GetMessage("pricing.column_cached", 0, nil), rate(res.Pricing.InputCached))
	}
	if res.Pricing.Output != nil {
		ui.PrintKeyValue(f.out, t.GetMessage("pricing.column_output", 0, nil), rate(res.Pricing.Output))
	}
	ui.PrintKeyValue(f.out, t.GetMessage("pricing.column_currency", 0, nil), res.Pricing.Currency)

	if !res.Exact {
		ui.PrintWarning(f.out, t.GetMessage("pricing.show_approximate", 0, map[string]interface{}{
			"Requested": model,
			"Model":     res.Model,
		}))
	}
}
