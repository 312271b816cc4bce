package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	cryptoService "github.com/allisson/fieldvault/internal/crypto/service"
	"github.com/allisson/fieldvault/internal/database"
	apperrors "github.com/allisson/fieldvault/internal/errors"
)

type fieldKeyUseCase struct {
	txManager    database.TxManager
	fieldKeyRepo FieldKeyRepository
	keyManager   cryptoService.KeyManager
}

func (f *fieldKeyUseCase) activeKek(kekChain *cryptoDomain.KekChain) (*cryptoDomain.Kek, error) {
	kek, ok := kekChain.Get(kekChain.ActiveKekID())
	if !ok {
		return nil, cryptoDomain.ErrKekNotFound
	}
	return kek, nil
}

// GetOrCreate returns the active key for an alias, lazily creating version 1
// on first use. Concurrent first uses race on the store-level (alias, version)
// uniqueness: the loser observes ErrConflict and fetches the winner's row, so
// exactly one version 1 is ever created per alias.
func (f *fieldKeyUseCase) GetOrCreate(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	alias string,
	alg cryptoDomain.Algorithm,
) (*cryptoDomain.FieldKey, error) {
	fieldKey, err := f.fieldKeyRepo.GetActive(ctx, alias)
	if err == nil {
		return fieldKey, nil
	}
	if !apperrors.Is(err, cryptoDomain.ErrFieldKeyNotFound) {
		return nil, err
	}

	kek, err := f.activeKek(kekChain)
	if err != nil {
		return nil, err
	}

	newKey, err := f.keyManager.CreateFieldKey(kek, alias, 1, alg)
	if err != nil {
		return nil, err
	}

	if err := f.fieldKeyRepo.Create(ctx, &newKey); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			// Lost the creation race, return the winner.
			return f.fieldKeyRepo.GetActive(ctx, alias)
		}
		return nil, err
	}

	return &newKey, nil
}

// Get retrieves a specific key version for an alias, retired or not.
func (f *fieldKeyUseCase) Get(
	ctx context.Context, alias string, version uint,
) (*cryptoDomain.FieldKey, error) {
	return f.fieldKeyRepo.Get(ctx, alias, version)
}

// Rotate retires the active key version and creates the next one atomically.
// The retired version stays in place for decrypting ciphertext written under
// it; only new encryptions pick up the new version.
func (f *fieldKeyUseCase) Rotate(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	alias string,
	alg cryptoDomain.Algorithm,
) (*cryptoDomain.FieldKey, error) {
	kek, err := f.activeKek(kekChain)
	if err != nil {
		return nil, err
	}

	var rotated *cryptoDomain.FieldKey
	err = f.txManager.WithTx(ctx, func(ctx context.Context) error {
		current, err := f.fieldKeyRepo.GetActive(ctx, alias)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		current.RetiredAt = &now
		if err := f.fieldKeyRepo.Update(ctx, current); err != nil {
			return err
		}

		newKey, err := f.keyManager.CreateFieldKey(kek, alias, current.Version+1, alg)
		if err != nil {
			return err
		}

		if err := f.fieldKeyRepo.Create(ctx, &newKey); err != nil {
			return err
		}

		rotated = &newKey
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rotated, nil
}

// ListVersions retrieves every version of an alias, newest first.
func (f *fieldKeyUseCase) ListVersions(
	ctx context.Context, alias string,
) ([]*cryptoDomain.FieldKey, error) {
	return f.fieldKeyRepo.ListByAlias(ctx, alias)
}

// Rewrap finds field keys that are not wrapped with the specified KEK,
// decrypts them using their old KEKs, and re-encrypts them with the new one.
// Returns the number of field keys rewrapped in this batch.
func (f *fieldKeyUseCase) Rewrap(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	newKekID uuid.UUID,
	batchSize int,
) (int, error) {
	fieldKeys, err := f.fieldKeyRepo.GetBatchNotKekID(ctx, newKekID, batchSize)
	if err != nil {
		return 0, err
	}

	if len(fieldKeys) == 0 {
		return 0, nil
	}

	newKek, ok := kekChain.Get(newKekID)
	if !ok {
		return 0, cryptoDomain.ErrKekNotFound
	}
	if newKek.Key == nil {
		return 0, cryptoDomain.ErrDecryptionFailed
	}

	for _, fieldKey := range fieldKeys {
		oldKek, ok := kekChain.Get(fieldKey.KekID)
		if !ok {
			return 0, cryptoDomain.ErrKekNotFound
		}

		rawKey, err := f.keyManager.DecryptFieldKey(fieldKey, oldKek)
		if err != nil {
			return 0, err
		}

		encryptedKey, nonce, err := f.keyManager.EncryptFieldKey(rawKey, newKek)
		if err != nil {
			cryptoDomain.Zero(rawKey)
			return 0, err
		}
		cryptoDomain.Zero(rawKey)

		fieldKey.KekID = newKekID
		fieldKey.EncryptedKey = encryptedKey
		fieldKey.Nonce = nonce

		if err := f.fieldKeyRepo.Update(ctx, fieldKey); err != nil {
			return 0, err
		}
	}

	return len(fieldKeys), nil
}

// Unwrap decrypts a field key's material using its wrapping KEK from the
// chain. The caller owns the returned plaintext and must zero it after use.
func (f *fieldKeyUseCase) Unwrap(
	fieldKey *cryptoDomain.FieldKey,
	kekChain *cryptoDomain.KekChain,
) ([]byte, error) {
	kek, ok := kekChain.Get(fieldKey.KekID)
	if !ok {
		return nil, cryptoDomain.ErrKekNotFound
	}

	return f.keyManager.DecryptFieldKey(fieldKey, kek)
}

// NewFieldKeyUseCase creates a new FieldKeyUseCase instance.
func NewFieldKeyUseCase(
	txManager database.TxManager,
	fieldKeyRepo FieldKeyRepository,
	keyManager cryptoService.KeyManager,
) FieldKeyUseCase {
	return &fieldKeyUseCase{
		txManager:    txManager,
		fieldKeyRepo: fieldKeyRepo,
		keyManager:   keyManager,
	}
}
