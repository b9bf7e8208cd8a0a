package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sourcegraph/conc/pool"
	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/llmcost/internal/cli/command"
	"github.com/thomas-vilte/llmcost/internal/config"
	"github.com/thomas-vilte/llmcost/internal/errors"
	"github.com/thomas-vilte/llmcost/internal/i18n"
	"github.com/thomas-vilte/llmcost/internal/logger"
	"github.com/thomas-vilte/llmcost/internal/metrics"
	"github.com/thomas-vilte/llmcost/internal/models"
	"github.com/thomas-vilte/llmcost/internal/pricing"
	"github.com/thomas-vilte/llmcost/internal/services/cost"
	"github.com/thomas-vilte/llmcost/internal/ui"
)

const maxDecimals = 20

// entry is the outcome of pricing one response.
type entry struct {
	Source string      `json:"source"`
	Price  *cost.Price `json:"price,omitempty"`
	Error  string      `json:"error,omitempty"`
	err    error
}

type report struct {
	Session string      `json:"session"`
	Results []entry     `json:"results"`
	Total   *cost.Price `json:"total,omitempty"`
	Failed  int         `json:"failed"`
}

type PriceCommandFactory struct {
	catalog *pricing.Catalog
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
}

type Option func(*PriceCommandFactory)

func WithInput(r io.Reader) Option {
	return func(f *PriceCommandFactory) {
		f.in = r
	}
}

func WithOutput(w io.Writer) Option {
	return func(f *PriceCommandFactory) {
		f.out = w
	}
}

// WithErrorOutput sets where log lines go.
func WithErrorOutput(w io.Writer) Option {
	return func(f *PriceCommandFactory) {
		f.errOut = w
	}
}

func NewPriceCommandFactory(catalog *pricing.Catalog, opts ...Option) *PriceCommandFactory {
	f := &PriceCommandFactory{
		catalog: catalog,
		in:      os.Stdin,
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *PriceCommandFactory) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "price",
		Aliases:   []string{"p"},
		Usage:     t.GetMessage("price.usage", 0, nil),
		ArgsUsage: t.GetMessage("price.args_usage", 0, nil),
		Flags:     f.createFlags(cfg, t),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx = command.WithLogging(ctx, cmd, f.errOut)
			return f.run(ctx, cmd, t)
		},
	}
}

func (f *PriceCommandFactory) createFlags(cfg *config.Config, t *i18n.Translations) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "provider",
			Usage: t.GetMessage("price.flag_provider", 0, nil),
		},
		&cli.StringFlag{
			Name:  "stt-model",
			Value: cfg.DefaultSTTModel,
			Usage: t.GetMessage("price.flag_stt_model", 0, nil),
		},
		&cli.IntFlag{
			Name:    "decimals",
			Aliases: []string{"d"},
			Value:   int64(cfg.DecimalPlaces),
			Usage:   t.GetMessage("price.flag_decimals", 0, nil),
		},
		&cli.IntFlag{
			Name:    "concurrency",
			Aliases: []string{"j"},
			Value:   int64(cfg.Concurrency),
			Usage:   t.GetMessage("price.flag_concurrency", 0, nil),
		},
		&cli.FloatFlag{
			Name:  "budget",
			Value: cfg.Budget,
			Usage: t.GetMessage("price.flag_budget", 0, nil),
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: t.GetMessage("price.flag_json", 0, nil),
		},
		&cli.BoolFlag{
			Name:  "metrics",
			Usage: t.GetMessage("price.flag_metrics", 0, nil),
		},
	}
}

func (f *PriceCommandFactory) run(ctx context.Context, cmd *cli.Command, t *i18n.Translations) error {
	decimals := int(cmd.Int("decimals"))
	if decimals < 0 || decimals > maxDecimals {
		return errors.ErrConfigInvalid.WithDetail("%s", t.GetMessage("price.invalid_decimals", 0, map[string]interface{}{
			"Max": maxDecimals,
		}))
	}
	concurrency := int(cmd.Int("concurrency"))
	if concurrency < 1 {
		concurrency = 1
	}

	sources := cmd.Args().Slice()
	if len(sources) == 0 {
		sources = []string{stdinSource}
	}
	sources, usesStdin := dedupeStdin(sources)

	// stdin is read here, once, so workers never share f.in.
	var stdinDocs []document
	if usesStdin {
		stdinDocs = decodeAll("stdin", f.in)
	}

	calc := cost.NewCalculator(f.catalog, cost.WithLogger(logger.FromContext(ctx)))
	opts := []cost.ComputeOption{
		cost.WithProvider(models.Provider(cmd.String("provider"))),
		cost.WithSTTModel(cmd.String("stt-model")),
	}

	results := make([][]entry, len(sources))
	p := pool.New().WithMaxGoroutines(concurrency)
	for i, src := range sources {
		p.Go(func() {
			var docs []document
			if src == stdinSource {
				docs = stdinDocs
			} else {
				docs = readSource(src)
			}
			results[i] = f.priceSource(ctx, calc, src, docs, opts)
		})
	}
	p.Wait()

	registry := prometheus.NewRegistry()
	session := cost.NewSession(
		cost.WithBudget(cmd.Float("budget")),
		cost.WithMetrics(metrics.NewCostMetrics(registry)),
		cost.WithSessionLogger(logger.FromContext(ctx)),
	)

	var entries []entry
	failed := 0
	for _, group := range results {
		for _, e := range group {
			if e.err == nil {
				e.err = session.Add(e.Price)
			}
			if e.err != nil {
				failed++
				e.Price = nil
				e.Error = e.err.Error()
			}
			entries = append(entries, e)
		}
	}

	logger.Info(ctx, "pricing finished",
		"session", session.ID(),
		"count", len(entries),
		"failed", failed)

	var err error
	if cmd.Bool("json") {
		err = f.writeJSON(session, entries, failed)
	} else {
		err = f.writeText(session, entries, decimals, cmd.Bool("metrics"), registry, t)
	}
	if err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%s", t.GetMessage("price.failed_count", failed, map[string]interface{}{
			"Count": failed,
			"Total": len(entries),
		}))
	}
	return nil
}

func (f *PriceCommandFactory) priceSource(ctx context.Context, calc *cost.Calculator, src string, docs []document, opts []cost.ComputeOption) []entry {
	ctx = logger.With(ctx, "source", src)
	logger.Debug(ctx, "source read", "count", len(docs))

	out := make([]entry, 0, len(docs))
	for _, doc := range docs {
		e := entry{Source: doc.label, err: doc.err}
		if e.err == nil {
			e.Price, e.err = calc.Compute(doc.body, opts...)
		}
		if e.err != nil {
			logger.Debug(ctx, "response not priced", "document", doc.label, "error", e.err)
		}
		out = append(out, e)
	}
	return out
}

func (f *PriceCommandFactory) writeJSON(session *cost.Session, entries []entry, failed int) error {
	r := report{
		Session: session.ID(),
		Results: entries,
		Failed:  failed,
	}
	if total, ok := session.Total(); ok {
		r.Total = &total
	}

	enc := json.NewEncoder(f.out)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func (f *PriceCommandFactory) writeText(session *cost.Session, entries []entry, decimals int, showMetrics bool, registry *prometheus.Registry, t *i18n.Translations) error {
	for _, e := range entries {
		if e.err != nil {
			_, _ = fmt.Fprintln(f.out, ui.Info.Sprint(e.Source))
			ui.HandleAppError(f.out, e.err, t)
			continue
		}
		ui.PrintPrice(f.out, e.Source, e.Price, decimals, t)
	}

	total, ok := session.Total()
	if !ok {
		return nil
	}
	ui.PrintTotal(f.out, total, session.ByModel(), decimals, t)
	ui.PrintBudget(f.out, session.CheckBudget(0), total.CurrencySymbol, decimals, t)

	if showMetrics {
		summary, err := metrics.Summarize(registry)
		if err != nil {
			return err
		}
		ui.PrintMetricsSummary(f.out, summary, total.CurrencySymbol, decimals, t)
	}
	return nil
}
