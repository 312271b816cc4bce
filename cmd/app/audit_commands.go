package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/fieldvault/cmd/app/commands"
	"github.com/allisson/fieldvault/internal/app"
	"github.com/allisson/fieldvault/internal/config"
)

func getAuditCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "verify-audit-logs",
			Usage: "Verify cryptographic integrity of audit logs",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "start",
					Aliases:  []string{"s"},
					Value:    "",
					Required: true,
					Usage:    "Start date (YYYY-MM-DD or 'YYYY-MM-DD HH:MM:SS')",
				},
				&cli.StringFlag{
					Name:     "end",
					Aliases:  []string{"e"},
					Value:    "",
					Required: true,
					Usage:    "End date (YYYY-MM-DD or 'YYYY-MM-DD HH:MM:SS')",
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
				defer commands.CloseContainer(container, container.Logger())

				auditUseCase, err := container.AuditUseCase()
				if err != nil {
					return err
				}
				kekChain, err := container.KekChain()
				if err != nil {
					return err
				}

				return commands.RunVerifyAuditLogs(
					ctx,
					auditUseCase,
					kekChain,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("start"),
					cmd.String("end"),
					cmd.String("format"),
				)
			},
		},
	}
}
