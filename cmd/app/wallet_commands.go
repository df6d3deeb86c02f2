package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/wallets/cmd/app/commands"
	"github.com/allisson/wallets/internal/app"
	"github.com/allisson/wallets/internal/config"
)

func getWalletCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-wallet",
			Usage: "Create a hosted wallet with its signing key and business partner credential",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Wallet identifier (BPN, e.g., BPNL000000000001)",
				},
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Human-readable wallet name",
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

				wallets, err := container.WalletUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateWallet(
					ctx,
					wallets,
					container.Logger(),
					cmd.String("id"),
					cmd.String("name"),
					cmd.String("format"),
					output(cmd),
				)
			},
		},
		{
			Name:  "delete-wallet",
			Usage: "Delete a hosted wallet and its holdings",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Wallet identifier (BPN)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				wallets, err := container.WalletUseCase()
				if err != nil {
					return err
				}

				return commands.RunDeleteWallet(
					ctx,
					wallets,
					container.Logger(),
					cmd.String("id"),
					output(cmd),
				)
			},
		},
		{
			Name:  "issue-credential",
			Usage: "Issue a credential to a hosted wallet",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "kind",
					Aliases:  []string{"k"},
					Required: true,
					Usage:    "Credential kind (bpn, membership, dismantler, framework)",
				},
				&cli.StringFlag{
					Name:     "holder",
					Aliases:  []string{"w"},
					Required: true,
					Usage:    "Holder wallet identifier (BPN)",
				},
				&cli.StringFlag{
					Name:  "activity-type",
					Usage: "Dismantler activity type (default vehicleDismantle)",
				},
				&cli.StringSliceFlag{
					Name:  "brand",
					Usage: "Allowed vehicle brand of a dismantler credential (repeatable)",
				},
				&cli.StringFlag{
					Name:  "type",
					Usage: "Framework credential type (e.g., PcfCredential)",
				},
				&cli.StringFlag{
					Name:  "contract-template",
					Usage: "Framework contract template URL",
				},
				&cli.StringFlag{
					Name:  "contract-version",
					Usage: "Framework contract version",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				if err := ensureAuthorityWallet(ctx, container); err != nil {
					return err
				}

				issuance, err := container.IssuanceUseCase()
				if err != nil {
					return err
				}

				return commands.RunIssueCredential(
					ctx,
					issuance,
					container.Logger(),
					commands.IssueCredentialInput{
						Kind:                 cmd.String("kind"),
						HolderWalletID:       cmd.String("holder"),
						ActivityType:         cmd.String("activity-type"),
						AllowedVehicleBrands: cmd.StringSlice("brand"),
						FrameworkType:        cmd.String("type"),
						ContractTemplate:     cmd.String("contract-template"),
						ContractVersion:      cmd.String("contract-version"),
					},
					output(cmd),
				)
			},
		},
	}
}
