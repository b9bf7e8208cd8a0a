package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/llmcost/internal/cli/command"
	"github.com/thomas-vilte/llmcost/internal/cli/command/config"
	"github.com/thomas-vilte/llmcost/internal/cli/command/price"
	"github.com/thomas-vilte/llmcost/internal/cli/command/pricing"
	"github.com/thomas-vilte/llmcost/internal/cli/registry"
	cfg "github.com/thomas-vilte/llmcost/internal/config"
	"github.com/thomas-vilte/llmcost/internal/i18n"
	"github.com/thomas-vilte/llmcost/internal/logger"
	catalog "github.com/thomas-vilte/llmcost/internal/pricing"
	"github.com/thomas-vilte/llmcost/internal/ui"
	"github.com/thomas-vilte/llmcost/internal/version"
)

func main() {
	logger.Initialize(false, false)

	app, translations, err := initializeApp()
	if err != nil {
		ui.HandleAppError(os.Stderr, err)
		os.Exit(1)
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		ui.HandleAppError(os.Stderr, err, translations)
		os.Exit(1)
	}
}

func initializeApp() (*cli.Command, *i18n.Translations, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, nil, fmt.Errorf("could not find the home directory: %w", err)
	}

	cfgApp, err := cfg.LoadConfig(homeDir)
	if err != nil {
		return nil, nil, err
	}

	translations, err := i18n.NewTranslations(cfg.GetLocaleConfig(cfgApp.Language), "")
	if err != nil {
		return nil, nil, fmt.Errorf("could not load translations: %w", err)
	}

	prices, err := catalog.DefaultCatalog()
	if err != nil {
		return nil, nil, err
	}

	registerCommand := registry.NewRegistry(cfgApp, translations)

	if err := registerCommand.Register("price", price.NewPriceCommandFactory(prices)); err != nil {
		return nil, nil, err
	}
	if err := registerCommand.Register("pricing", pricing.NewPricingCommandFactory(prices)); err != nil {
		return nil, nil, err
	}
	if err := registerCommand.Register("config", config.NewConfigCommandFactory()); err != nil {
		return nil, nil, err
	}

	commands := registerCommand.CreateCommands()

	helpCommand := &cli.Command{
		Name:    "help",
		Aliases: []string{"h"},
		Usage:   translations.GetMessage("help_command_usage", 0, nil),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
	}
	commands = append(commands, helpCommand)

	return &cli.Command{
		Name:                  "llmcost",
		Usage:                 translations.GetMessage("app_usage", 0, nil),
		Version:               version.FullVersion(),
		Description:           translations.GetMessage("app_description", 0, nil),
		Flags:                 command.GlobalFlags(translations),
		Commands:              commands,
		EnableShellCompletion: true,
	}, translations, nil
}
