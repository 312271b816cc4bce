package commands

import (
	"context"
	"fmt"
	"log/slog"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	cryptoUseCase "github.com/allisson/fieldvault/internal/crypto/usecase"
)

// RunCreateKek creates the first Key Encryption Key using the specified
// algorithm. Should only be run once during initial system setup; use
// rotate-kek afterwards. The KEK is encrypted with the active master key.
func RunCreateKek(
	ctx context.Context,
	kekUseCase cryptoUseCase.KekUseCase,
	masterKeyChain *cryptoDomain.MasterKeyChain,
	logger *slog.Logger,
	algorithmStr string,
) error {
	logger.Info("creating new KEK", slog.String("algorithm", algorithmStr))

	algorithm, err := parseAlgorithm(algorithmStr)
	if err != nil {
		return err
	}

	if err := kekUseCase.Create(ctx, masterKeyChain, algorithm); err != nil {
		return fmt.Errorf("failed to create KEK: %w", err)
	}

	logger.Info("KEK created successfully",
		slog.String("algorithm", string(algorithm)),
		slog.String("master_key_id", masterKeyChain.ActiveMasterKeyID()),
	)

	return nil
}
