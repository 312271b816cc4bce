package commands

import (
	"context"
	"fmt"
	"log/slog"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	"github.com/allisson/fieldvault/internal/policy"
	recordsUseCase "github.com/allisson/fieldvault/internal/records/usecase"
)

// RunRotateFieldKey retires the active key version of a field key alias and
// creates the next one. Existing records keep decrypting under the retired
// versions; new writes pick up the new version. The rotation is audited.
func RunRotateFieldKey(
	ctx context.Context,
	recordUseCase recordsUseCase.RecordUseCase,
	kekChain *cryptoDomain.KekChain,
	logger *slog.Logger,
	alias, operator string,
) error {
	if alias == "" {
		return fmt.Errorf("--alias is required")
	}

	logger.Info("rotating field key", slog.String("alias", alias))

	principal := policy.Principal{ID: operator}
	version, err := recordUseCase.RotateFieldKey(ctx, kekChain, principal, alias)
	if err != nil {
		return fmt.Errorf("failed to rotate field key: %w", err)
	}

	logger.Info("field key rotated successfully",
		slog.String("alias", alias),
		slog.Uint64("new_version", uint64(version)),
	)

	return nil
}
