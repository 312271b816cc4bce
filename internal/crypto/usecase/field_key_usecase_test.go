package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	cryptoService "github.com/allisson/fieldvault/internal/crypto/service"
	usecaseMocks "github.com/allisson/fieldvault/internal/crypto/usecase/mocks"
	databaseMocks "github.com/allisson/fieldvault/internal/database/mocks"
	apperrors "github.com/allisson/fieldvault/internal/errors"
)

func newUnwrappedKekChain(t *testing.T, keyManager cryptoService.KeyManager) *cryptoDomain.KekChain {
	t.Helper()

	masterKeyChain := newMasterKeyChain(t)
	masterKey, ok := masterKeyChain.Get("key1")
	require.True(t, ok)

	kek, err := keyManager.CreateKek(masterKey, cryptoDomain.AESGCM)
	require.NoError(t, err)
	key, err := keyManager.DecryptKek(&kek, masterKey)
	require.NoError(t, err)
	kek.Key = key

	chain := cryptoDomain.NewKekChain([]*cryptoDomain.Kek{&kek})
	t.Cleanup(chain.Close)

	return chain
}

func TestFieldKeyUseCase_GetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the existing active key", func(t *testing.T) {
		keyManager := newKeyManager()
		kekChain := newUnwrappedKekChain(t, keyManager)
		existing := &cryptoDomain.FieldKey{ID: uuid.Must(uuid.NewV7()), Alias: "patient.ssn", Version: 2}

		fieldKeyRepo := &usecaseMocks.MockFieldKeyRepository{}
		fieldKeyRepo.On("GetActive", ctx, "patient.ssn").Return(existing, nil).Once()

		uc := NewFieldKeyUseCase(&databaseMocks.MockTxManager{}, fieldKeyRepo, keyManager)
		got, err := uc.GetOrCreate(ctx, kekChain, "patient.ssn", cryptoDomain.AESGCM)
		require.NoError(t, err)
		assert.Equal(t, existing, got)
		fieldKeyRepo.AssertExpectations(t)
	})

	t.Run("creates version 1 on first use of an alias", func(t *testing.T) {
		keyManager := newKeyManager()
		kekChain := newUnwrappedKekChain(t, keyManager)

		fieldKeyRepo := &usecaseMocks.MockFieldKeyRepository{}
		fieldKeyRepo.On("GetActive", ctx, "patient.ssn").
			Return(nil, cryptoDomain.ErrFieldKeyNotFound).Once()
		fieldKeyRepo.On("Create", ctx, mock.MatchedBy(func(fk *cryptoDomain.FieldKey) bool {
			return fk.Alias == "patient.ssn" &&
				fk.Version == 1 &&
				fk.KekID == kekChain.ActiveKekID() &&
				len(fk.EncryptedKey) > 0
		})).Return(nil).Once()

		uc := NewFieldKeyUseCase(&databaseMocks.MockTxManager{}, fieldKeyRepo, keyManager)
		got, err := uc.GetOrCreate(ctx, kekChain, "patient.ssn", cryptoDomain.AESGCM)
		require.NoError(t, err)
		assert.Equal(t, uint(1), got.Version)
		fieldKeyRepo.AssertExpectations(t)
	})

	t.Run("loser of the creation race returns the winner", func(t *testing.T) {
		keyManager := newKeyManager()
		kekChain := newUnwrappedKekChain(t, keyManager)
		winner := &cryptoDomain.FieldKey{ID: uuid.Must(uuid.NewV7()), Alias: "patient.ssn", Version: 1}

		fieldKeyRepo := &usecaseMocks.MockFieldKeyRepository{}
		fieldKeyRepo.On("GetActive", ctx, "patient.ssn").
			Return(nil, cryptoDomain.ErrFieldKeyNotFound).Once()
		fieldKeyRepo.On("Create", ctx, mock.Anything).
			Return(apperrors.Wrap(apperrors.ErrConflict, "field key already exists")).Once()
		fieldKeyRepo.On("GetActive", ctx, "patient.ssn").Return(winner, nil).Once()

		uc := NewFieldKeyUseCase(&databaseMocks.MockTxManager{}, fieldKeyRepo, keyManager)
		got, err := uc.GetOrCreate(ctx, kekChain, "patient.ssn", cryptoDomain.AESGCM)
		require.NoError(t, err)
		assert.Equal(t, winner.ID, got.ID)
		fieldKeyRepo.AssertExpectations(t)
	})

	t.Run("fails when the kek chain has no active kek", func(t *testing.T) {
		keyManager := newKeyManager()

		fieldKeyRepo := &usecaseMocks.MockFieldKeyRepository{}
		fieldKeyRepo.On("GetActive", ctx, "patient.ssn").
			Return(nil, cryptoDomain.ErrFieldKeyNotFound).Once()

		uc := NewFieldKeyUseCase(&databaseMocks.MockTxManager{}, fieldKeyRepo, keyManager)
		_, err := uc.GetOrCreate(ctx, &cryptoDomain.KekChain{}, "patient.ssn", cryptoDomain.AESGCM)
		assert.ErrorIs(t, err, cryptoDomain.ErrKekNotFound)
	})
}

func TestFieldKeyUseCase_Rotate(t *testing.T) {
	ctx := context.Background()

	t.Run("retires the active version and creates the next one", func(t *testing.T) {
		keyManager := newKeyManager()
		kekChain := newUnwrappedKekChain(t, keyManager)
		kek, ok := kekChain.Get(kekChain.ActiveKekID())
		require.True(t, ok)

		current, err := keyManager.CreateFieldKey(kek, "patient.ssn", 1, cryptoDomain.AESGCM)
		require.NoError(t, err)

		fieldKeyRepo := &usecaseMocks.MockFieldKeyRepository{}
		fieldKeyRepo.On("GetActive", ctx, "patient.ssn").Return(&current, nil).Once()
		fieldKeyRepo.On("Update", ctx, mock.MatchedBy(func(fk *cryptoDomain.FieldKey) bool {
			return fk.ID == current.ID && fk.IsRetired()
		})).Return(nil).Once()
		fieldKeyRepo.On("Create", ctx, mock.MatchedBy(func(fk *cryptoDomain.FieldKey) bool {
			return fk.Alias == "patient.ssn" && fk.Version == 2 && !fk.IsRetired()
		})).Return(nil).Once()

		uc := NewFieldKeyUseCase(&databaseMocks.MockTxManager{}, fieldKeyRepo, keyManager)
		rotated, err := uc.Rotate(ctx, kekChain, "patient.ssn", cryptoDomain.AESGCM)
		require.NoError(t, err)
		assert.Equal(t, uint(2), rotated.Version)
		fieldKeyRepo.AssertExpectations(t)
	})

	t.Run("fails when the alias has no active key", func(t *testing.T) {
		keyManager := newKeyManager()
		kekChain := newUnwrappedKekChain(t, keyManager)

		fieldKeyRepo := &usecaseMocks.MockFieldKeyRepository{}
		fieldKeyRepo.On("GetActive", ctx, "unknown").
			Return(nil, cryptoDomain.ErrFieldKeyNotFound).Once()

		uc := NewFieldKeyUseCase(&databaseMocks.MockTxManager{}, fieldKeyRepo, keyManager)
		_, err := uc.Rotate(ctx, kekChain, "unknown", cryptoDomain.AESGCM)
		assert.ErrorIs(t, err, cryptoDomain.ErrFieldKeyNotFound)
	})
}

func TestFieldKeyUseCase_Rewrap(t *testing.T) {
	ctx := context.Background()

	t.Run("rewraps a batch under the new kek", func(t *testing.T) {
		keyManager := newKeyManager()
		masterKeyChain := newMasterKeyChain(t)
		masterKey, ok := masterKeyChain.Get("key1")
		require.True(t, ok)

		oldKek, err := keyManager.CreateKek(masterKey, cryptoDomain.AESGCM)
		require.NoError(t, err)
		oldKek.Key, err = keyManager.DecryptKek(&oldKek, masterKey)
		require.NoError(t, err)
		oldKek.IsActive = false

		newKek, err := keyManager.CreateKek(masterKey, cryptoDomain.AESGCM)
		require.NoError(t, err)
		newKek.Key, err = keyManager.DecryptKek(&newKek, masterKey)
		require.NoError(t, err)
		newKek.Version = 2

		chain := cryptoDomain.NewKekChain([]*cryptoDomain.Kek{&newKek, &oldKek})
		defer chain.Close()

		fieldKey, err := keyManager.CreateFieldKey(&oldKek, "patient.ssn", 1, cryptoDomain.AESGCM)
		require.NoError(t, err)
		rawBefore, err := keyManager.DecryptFieldKey(&fieldKey, &oldKek)
		require.NoError(t, err)

		fieldKeyRepo := &usecaseMocks.MockFieldKeyRepository{}
		fieldKeyRepo.On("GetBatchNotKekID", ctx, newKek.ID, 100).
			Return([]*cryptoDomain.FieldKey{&fieldKey}, nil).Once()
		fieldKeyRepo.On("Update", ctx, mock.MatchedBy(func(fk *cryptoDomain.FieldKey) bool {
			return fk.KekID == newKek.ID
		})).Return(nil).Once()

		uc := NewFieldKeyUseCase(&databaseMocks.MockTxManager{}, fieldKeyRepo, keyManager)
		n, err := uc.Rewrap(ctx, chain, newKek.ID, 100)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		// The key material is unchanged, only the wrapping kek differs.
		rawAfter, err := keyManager.DecryptFieldKey(&fieldKey, &newKek)
		require.NoError(t, err)
		assert.Equal(t, rawBefore, rawAfter)
		fieldKeyRepo.AssertExpectations(t)
	})

	t.Run("returns zero when no keys need rewrapping", func(t *testing.T) {
		keyManager := newKeyManager()
		kekChain := newUnwrappedKekChain(t, keyManager)

		fieldKeyRepo := &usecaseMocks.MockFieldKeyRepository{}
		fieldKeyRepo.On("GetBatchNotKekID", ctx, kekChain.ActiveKekID(), 100).
			Return([]*cryptoDomain.FieldKey{}, nil).Once()

		uc := NewFieldKeyUseCase(&databaseMocks.MockTxManager{}, fieldKeyRepo, keyManager)
		n, err := uc.Rewrap(ctx, kekChain, kekChain.ActiveKekID(), 100)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("propagates batch fetch errors", func(t *testing.T) {
		keyManager := newKeyManager()
		kekChain := newUnwrappedKekChain(t, keyManager)
		fetchErr := errors.New("boom")

		fieldKeyRepo := &usecaseMocks.MockFieldKeyRepository{}
		fieldKeyRepo.On("GetBatchNotKekID", ctx, kekChain.ActiveKekID(), 100).
			Return(nil, fetchErr).Once()

		uc := NewFieldKeyUseCase(&databaseMocks.MockTxManager{}, fieldKeyRepo, keyManager)
		_, err := uc.Rewrap(ctx, kekChain, kekChain.ActiveKekID(), 100)
		assert.ErrorIs(t, err, fetchErr)
	})
}

func TestFieldKeyUseCase_Unwrap(t *testing.T) {
	t.Run("decrypts field key material via the wrapping kek", func(t *testing.T) {
		keyManager := newKeyManager()
		kekChain := newUnwrappedKekChain(t, keyManager)
		kek, ok := kekChain.Get(kekChain.ActiveKekID())
		require.True(t, ok)

		fieldKey, err := keyManager.CreateFieldKey(kek, "patient.ssn", 1, cryptoDomain.AESGCM)
		require.NoError(t, err)

		uc := NewFieldKeyUseCase(&databaseMocks.MockTxManager{}, &usecaseMocks.MockFieldKeyRepository{}, keyManager)
		raw, err := uc.Unwrap(&fieldKey, kekChain)
		require.NoError(t, err)
		assert.Len(t, raw, cryptoDomain.KeySize)
		cryptoDomain.Zero(raw)
	})

	t.Run("fails when the wrapping kek is not in the chain", func(t *testing.T) {
		keyManager := newKeyManager()
		kekChain := newUnwrappedKekChain(t, keyManager)

		fieldKey := &cryptoDomain.FieldKey{KekID: uuid.Must(uuid.NewV7())}
		uc := NewFieldKeyUseCase(&databaseMocks.MockTxManager{}, &usecaseMocks.MockFieldKeyRepository{}, keyManager)
		_, err := uc.Unwrap(fieldKey, kekChain)
		assert.ErrorIs(t, err, cryptoDomain.ErrKekNotFound)
	})
}
