package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/wallets/cmd/app/commands"
	"github.com/allisson/wallets/internal/app"
	"github.com/allisson/wallets/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server, the summary sweep and the outbox worker",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
			},
		},
		{
			Name:  "recompute-summaries",
			Usage: "Recompute the summary credential of one wallet or of every wallet",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "wallet-id",
					Aliases: []string{"w"},
					Usage:   "Wallet to recompute (omit to recompute every wallet)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				if err := ensureAuthorityWallet(ctx, container); err != nil {
					return err
				}

				recomputer, err := container.Recomputer()
				if err != nil {
					return err
				}

				sweeper, err := container.Sweeper()
				if err != nil {
					return err
				}

				return commands.RunRecomputeSummaries(
					ctx,
					recomputer,
					sweeper,
					container.Logger(),
					cmd.String("wallet-id"),
					cmd.String("format"),
					output(cmd),
				)
			},
		},
		{
			Name:  "did-document",
			Usage: "Print the DID document of a hosted wallet",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "wallet-id",
					Aliases:  []string{"w"},
					Required: true,
					Usage:    "Wallet identifier (BPN)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				documents, err := container.DocumentService()
				if err != nil {
					return err
				}

				return commands.RunDIDDocument(ctx, documents, cmd.String("wallet-id"), output(cmd))
			},
		},
	}
}

// ensureAuthorityWallet creates the authority wallet before commands that
// issue credentials.
func ensureAuthorityWallet(ctx context.Context, container *app.Container) error {
	bootstrap, err := container.Bootstrap()
	if err != nil {
		return err
	}
	return bootstrap.EnsureAuthorityWallet(ctx)
}
