package usecase

import (
	"context"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	cryptoService "github.com/allisson/fieldvault/internal/crypto/service"
	"github.com/allisson/fieldvault/internal/database"
)

// kekUseCase implements the KekUseCase interface for managing Key Encryption Keys.
//
// It coordinates between the key manager service for cryptographic operations
// and the repository for persistence. Rotation runs inside a transaction so
// the deactivation of the old KEK and the creation of the new one are atomic.
type kekUseCase struct {
	txManager  database.TxManager
	kekRepo    KekRepository
	keyManager cryptoService.KeyManager
}

func (k *kekUseCase) getMasterKey(
	masterKeyChain *cryptoDomain.MasterKeyChain, id string,
) (*cryptoDomain.MasterKey, error) {
	masterKey, ok := masterKeyChain.Get(id)
	if !ok {
		return nil, cryptoDomain.ErrMasterKeyNotFound
	}
	return masterKey, nil
}

// Create generates and persists a new Key Encryption Key with version 1,
// encrypted with the active master key from the provided chain. It should be
// called once during system initialization; use Rotate for subsequent KEKs.
func (k *kekUseCase) Create(
	ctx context.Context,
	masterKeyChain *cryptoDomain.MasterKeyChain,
	alg cryptoDomain.Algorithm,
) error {
	masterKey, err := k.getMasterKey(masterKeyChain, masterKeyChain.ActiveMasterKeyID())
	if err != nil {
		return err
	}

	kek, err := k.keyManager.CreateKek(masterKey, alg)
	if err != nil {
		return err
	}

	return k.kekRepo.Create(ctx, &kek)
}

// Rotate performs a KEK rotation by creating a new KEK with an incremented
// version and deactivating the current one, atomically.
//
// The rotation process:
//  1. Retrieves all KEKs ordered by version descending
//  2. If no KEKs exist, creates the first KEK with version 1 (delegates to Create)
//  3. Otherwise deactivates the current KEK and creates a new one with
//     version = current + 1
//
// After rotation, new field keys are wrapped with the new KEK. Existing field
// keys remain decryptable under the old KEK until rewrapped.
func (k *kekUseCase) Rotate(
	ctx context.Context,
	masterKeyChain *cryptoDomain.MasterKeyChain,
	alg cryptoDomain.Algorithm,
) error {
	masterKey, err := k.getMasterKey(masterKeyChain, masterKeyChain.ActiveMasterKeyID())
	if err != nil {
		return err
	}

	return k.txManager.WithTx(ctx, func(ctx context.Context) error {
		keks, err := k.kekRepo.List(ctx)
		if err != nil {
			return err
		}

		// No registered keks yet, create the first one.
		if len(keks) == 0 {
			return k.Create(ctx, masterKeyChain, alg)
		}

		currentKek := keks[0]
		currentKek.IsActive = false
		if err := k.kekRepo.Update(ctx, currentKek); err != nil {
			return err
		}

		kek, err := k.keyManager.CreateKek(masterKey, alg)
		if err != nil {
			return err
		}

		kek.Version = currentKek.Version + 1
		return k.kekRepo.Create(ctx, &kek)
	})
}

// Unwrap decrypts all KEKs from the database and returns them in a KekChain.
//
// Typically called once during application startup to load the KEK chain into
// memory. The returned chain contains plaintext KEKs: call Close() on it when
// it is no longer needed.
func (k *kekUseCase) Unwrap(
	ctx context.Context,
	masterKeyChain *cryptoDomain.MasterKeyChain,
) (*cryptoDomain.KekChain, error) {
	keks, err := k.kekRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	if len(keks) == 0 {
		return nil, cryptoDomain.ErrKekNotFound
	}

	for _, kek := range keks {
		masterKey, err := k.getMasterKey(masterKeyChain, kek.MasterKeyID)
		if err != nil {
			return nil, err
		}
		key, err := k.keyManager.DecryptKek(kek, masterKey)
		if err != nil {
			return nil, err
		}
		kek.Key = key
	}

	return cryptoDomain.NewKekChain(keks), nil
}

// NewKekUseCase creates a new KEK use case instance.
func NewKekUseCase(
	txManager database.TxManager,
	kekRepo KekRepository,
	keyManager cryptoService.KeyManager,
) KekUseCase {
	return &kekUseCase{
		txManager:  txManager,
		kekRepo:    kekRepo,
		keyManager: keyManager,
	}
}
