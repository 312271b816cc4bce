package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/fieldvault/cmd/app/commands"
	"github.com/allisson/fieldvault/internal/app"
	"github.com/allisson/fieldvault/internal/config"
)

func getSystemCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunMigrations()
			},
		},
		{
			Name:  "metrics-server",
			Usage: "Start the Prometheus metrics server",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "port",
					Aliases: []string{"p"},
					Value:   0,
					Usage:   "Port to listen on (defaults to METRICS_PORT)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer commands.CloseContainer(container, container.Logger())

				provider, err := container.MetricsProvider()
				if err != nil {
					return err
				}

				port := int(cmd.Int("port"))
				if port == 0 {
					port = cfg.MetricsPort
				}

				return commands.RunMetricsServer(ctx, provider, container.Logger(), port)
			},
		},
	}
}
