package config

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/llmcost/internal/config"
	"github.com/thomas-vilte/llmcost/internal/i18n"
	"github.com/thomas-vilte/llmcost/internal/ui"
)

func (f *ConfigCommandFactory) newSetCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     t.GetMessage("config.set_usage", 0, nil),
		ArgsUsage: "<key> <value>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return fmt.Errorf("%s", t.GetMessage("config.set_args", 0, map[string]interface{}{
					"Keys": fmt.Sprint(config.Keys),
				}))
			}
			key, value := cmd.Args().Get(0), cmd.Args().Get(1)

			if err := cfg.Set(key, value); err != nil {
				return err
			}
			if err := config.SaveConfig(cfg); err != nil {
				return err
			}

			ui.PrintSuccess(f.out, t.GetMessage("config.updated", 0, map[string]interface{}{
				"Key":   key,
				"Value": value,
			}))
			return nil
		},
	}
}
