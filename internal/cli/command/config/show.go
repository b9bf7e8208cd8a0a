package config

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/llmcost/internal/config"
	"github.com/thomas-vilte/llmcost/internal/i18n"
	"github.com/thomas-vilte/llmcost/internal/ui"
)

func (f *ConfigCommandFactory) newShowCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: t.GetMessage("config.show_usage", 0, nil),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ui.PrintSectionBanner(f.out, t.GetMessage("config.show_title", 0, nil))
			for _, key := range config.Keys {
				value, _ := cfg.Get(key)
				ui.PrintKeyValue(f.out, key, value)
			}
			ui.PrintKeyValue(f.out, t.GetMessage("config.path_label", 0, nil), cfg.PathFile)
			return nil
		},
	}
}
