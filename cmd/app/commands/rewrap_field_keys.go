package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	cryptoUseCase "github.com/allisson/fieldvault/internal/crypto/usecase"
)

// RunRewrapFieldKeys finds all field keys that are not wrapped with the
// specified KEK and re-wraps them with it in throttled batches. Run after a
// KEK rotation to move every field key to the new KEK. Field key material is
// unchanged; only the wrapping changes, so no record data is re-encrypted.
func RunRewrapFieldKeys(
	ctx context.Context,
	fieldKeyUseCase cryptoUseCase.FieldKeyUseCase,
	kekChain *cryptoDomain.KekChain,
	logger *slog.Logger,
	kekIDStr string,
	batchSize int,
	batchesPerSec float64,
) error {
	newKekID, err := uuid.Parse(kekIDStr)
	if err != nil {
		return fmt.Errorf("invalid kek-id: %w", err)
	}

	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if batchesPerSec <= 0 {
		return fmt.Errorf("batches-per-sec must be greater than 0")
	}

	logger.Info("starting field key rewrap process",
		slog.String("kek_id", kekIDStr),
		slog.Int("batch_size", batchSize),
	)

	// Throttle batches so a large rewrap does not starve the database.
	limiter := rate.NewLimiter(rate.Limit(batchesPerSec), 1)

	totalRewrapped := 0
	for {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rewrap interrupted: %w", err)
		}

		rewrappedCount, err := fieldKeyUseCase.Rewrap(ctx, kekChain, newKekID, batchSize)
		if err != nil {
			return fmt.Errorf("failed to rewrap field keys in batch: %w", err)
		}

		if rewrappedCount == 0 {
			break
		}

		totalRewrapped += rewrappedCount
		logger.Info("rewrapped batch of field keys",
			slog.Int("rewrapped_in_batch", rewrappedCount),
			slog.Int("total_rewrapped", totalRewrapped),
		)
	}

	logger.Info("field key rewrap process completed",
		slog.Int("total_rewrapped", totalRewrapped),
		slog.String("target_kek_id", kekIDStr),
	)

	return nil
}
