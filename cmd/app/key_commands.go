package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/fieldvault/cmd/app/commands"
	"github.com/allisson/fieldvault/internal/app"
	"github.com/allisson/fieldvault/internal/config"
	cryptoService "github.com/allisson/fieldvault/internal/crypto/service"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-master-key",
			Usage: "Generate a new Master Key for envelope encryption",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "id",
					Aliases: []string{"i"},
					Value:   "",
					Usage:   "Master key ID (e.g., prod-master-key-2026)",
				},
				&cli.StringFlag{
					Name:     "kms-provider",
					Value:    "",
					Required: true,
					Usage:    "KMS provider (localsecrets, gcpkms, awskms, azurekeyvault, hashivault)",
				},
				&cli.StringFlag{
					Name:     "kms-key-uri",
					Value:    "",
					Required: true,
					Usage:    "KMS key URI (e.g., base64key://, gcpkms://projects/.../cryptoKeys/...)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunCreateMasterKey(
					ctx,
					cryptoService.NewKMSService(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.String("kms-provider"),
					cmd.String("kms-key-uri"),
				)
			},
		},
		{
			Name:  "create-kek",
			Usage: "Create a new Key Encryption Key (KEK)",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "algorithm",
					Aliases: []string{"alg"},
					Value:   "aes-gcm",
					Usage:   "Encryption algorithm to use (aes-gcm or chacha20-poly1305)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer commands.CloseContainer(container, container.Logger())

				kekUseCase, err := container.KekUseCase()
				if err != nil {
					return err
				}
				masterKeyChain, err := container.MasterKeyChain()
				if err != nil {
					return err
				}

				return commands.RunCreateKek(
					ctx,
					kekUseCase,
					masterKeyChain,
					container.Logger(),
					cmd.String("algorithm"),
				)
			},
		},
		{
			Name:  "rotate-kek",
			Usage: "Rotate the active KEK by creating a new version",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "algorithm",
					Aliases: []string{"alg"},
					Value:   "aes-gcm",
					Usage:   "Encryption algorithm to use (aes-gcm or chacha20-poly1305)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer commands.CloseContainer(container, container.Logger())

				kekUseCase, err := container.KekUseCase()
				if err != nil {
					return err
				}
				masterKeyChain, err := container.MasterKeyChain()
				if err != nil {
					return err
				}

				return commands.RunRotateKek(
					ctx,
					kekUseCase,
					masterKeyChain,
					container.Logger(),
					cmd.String("algorithm"),
				)
			},
		},
		{
			Name:  "rewrap-field-keys",
			Usage: "Rewrap field keys under a new KEK in throttled batches",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "kek-id",
					Value:    "",
					Required: true,
					Usage:    "Target KEK ID to rewrap field keys under",
				},
				&cli.IntFlag{
					Name:    "batch-size",
					Aliases: []string{"b"},
					Value:   0,
					Usage:   "Field keys per batch (defaults to REWRAP_BATCH_SIZE)",
				},
				&cli.FloatFlag{
					Name:    "batches-per-sec",
					Value:   0,
					Usage:   "Batches per second (defaults to REWRAP_BATCHES_PER_SEC)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer commands.CloseContainer(container, container.Logger())

				fieldKeyUseCase, err := container.FieldKeyUseCase()
				if err != nil {
					return err
				}
				kekChain, err := container.KekChain()
				if err != nil {
					return err
				}

				batchSize := int(cmd.Int("batch-size"))
				if batchSize == 0 {
					batchSize = cfg.RewrapBatchSize
				}
				batchesPerSec := cmd.Float("batches-per-sec")
				if batchesPerSec == 0 {
					batchesPerSec = cfg.RewrapBatchesPerSec
				}

				return commands.RunRewrapFieldKeys(
					ctx,
					fieldKeyUseCase,
					kekChain,
					container.Logger(),
					cmd.String("kek-id"),
					batchSize,
					batchesPerSec,
				)
			},
		},
		{
			Name:  "rotate-field-key",
			Usage: "Rotate the field key for a key alias",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "alias",
					Aliases:  []string{"a"},
					Value:    "",
					Required: true,
					Usage:    "Key alias to rotate (e.g., patient.ssn)",
				},
				&cli.StringFlag{
					Name:    "operator",
					Aliases: []string{"o"},
					Value:   "cli",
					Usage:   "Principal ID recorded in the audit trail",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer commands.CloseContainer(container, container.Logger())

				recordUseCase, err := container.RecordUseCase()
				if err != nil {
					return err
				}
				kekChain, err := container.KekChain()
				if err != nil {
					return err
				}

				return commands.RunRotateFieldKey(
					ctx,
					recordUseCase,
					kekChain,
					container.Logger(),
					cmd.String("alias"),
					cmd.String("operator"),
				)
			},
		},
	}
}
