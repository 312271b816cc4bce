package commands

import (
	"context"
	"fmt"
	"log/slog"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	cryptoUseCase "github.com/allisson/fieldvault/internal/crypto/usecase"
)

// RunRotateKek rotates the Key Encryption Key using the specified algorithm.
// Creates a new KEK version and marks the previous active KEK as inactive.
// Existing field keys wrapped with the old KEK remain readable; run
// rewrap-field-keys afterwards to move them to the new KEK.
func RunRotateKek(
	ctx context.Context,
	kekUseCase cryptoUseCase.KekUseCase,
	masterKeyChain *cryptoDomain.MasterKeyChain,
	logger *slog.Logger,
	algorithmStr string,
) error {
	logger.Info("rotating KEK", slog.String("algorithm", algorithmStr))

	algorithm, err := parseAlgorithm(algorithmStr)
	if err != nil {
		return err
	}

	if err := kekUseCase.Rotate(ctx, masterKeyChain, algorithm); err != nil {
		return fmt.Errorf("failed to rotate KEK: %w", err)
	}

	logger.Info("KEK rotated successfully",
		slog.String("algorithm", string(algorithm)),
		slog.String("master_key_id", masterKeyChain.ActiveMasterKeyID()),
	)

	return nil
}
