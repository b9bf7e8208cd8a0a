package config

import (
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/llmcost/internal/config"
	"github.com/thomas-vilte/llmcost/internal/i18n"
)

type ConfigCommandFactory struct {
	out io.Writer
}

type Option func(*ConfigCommandFactory)

func WithOutput(w io.Writer) Option {
	return func(f *ConfigCommandFactory) {
		f.out = w
	}
}

func NewConfigCommandFactory(opts ...Option) *ConfigCommandFactory {
	f := &ConfigCommandFactory{out: os.Stdout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *ConfigCommandFactory) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   t.GetMessage("config.usage", 0, nil),
		Commands: []*cli.Command{
			f.newShowCommand(t, cfg),
			f.newSetCommand(t, cfg),
		},
	}
}
