package command

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/llmcost/internal/i18n"
	"github.com/thomas-vilte/llmcost/internal/logger"
)

// GlobalFlags are declared on the root command and read by subcommands.
func GlobalFlags(t *i18n.Translations) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "debug",
			Usage: t.GetMessage("flag_debug_usage", 0, nil),
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: t.GetMessage("flag_verbose_usage", 0, nil),
		},
	}
}

// WithLogging returns ctx carrying a logger set up from the global flags,
// writing to w or stderr when w is nil.
func WithLogging(ctx context.Context, cmd *cli.Command, w io.Writer) context.Context {
	if w == nil {
		w = os.Stderr
	}
	return logger.WithLogger(ctx, logger.New(w, cmd.Bool("debug"), cmd.Bool("verbose")))
}
