package service

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
)

// KeyManagerService implements the KeyManager interface for envelope encryption.
//
// This service manages the lifecycle of Key Encryption Keys (KEKs) and per-field
// data encryption keys in a three-tier envelope encryption scheme:
//   - KEKs are encrypted with a master key
//   - Field keys are encrypted with KEKs
//   - Field values are encrypted with field keys
//
// This approach provides efficient key rotation and separation of concerns.
type KeyManagerService struct {
	aeadManager AEADManager
}

// NewKeyManager creates a new KeyManagerService instance with the provided AEADManager.
func NewKeyManager(aeadManager AEADManager) *KeyManagerService {
	return &KeyManagerService{
		aeadManager: aeadManager,
	}
}

// CreateKek creates a new Key Encryption Key encrypted with the provided master key.
//
// The KEK is generated as a random 32-byte key and encrypted using the master
// key with the specified algorithm. The master key's ID is stored in the KEK
// for tracking which master key was used, enabling rotation workflows where
// multiple master keys are maintained simultaneously.
func (km *KeyManagerService) CreateKek(
	masterKey *cryptoDomain.MasterKey,
	alg cryptoDomain.Algorithm,
) (cryptoDomain.Kek, error) {
	// Generate a random 32-byte KEK
	kekKey := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(kekKey); err != nil {
		return cryptoDomain.Kek{}, fmt.Errorf("failed to generate KEK: %w", err)
	}

	// Create cipher using AEADManager
	aead, err := km.aeadManager.CreateCipher(masterKey.Key, alg)
	if err != nil {
		return cryptoDomain.Kek{}, err
	}

	// Encrypt the KEK with the master key
	encryptedKey, nonce, err := aead.Encrypt(kekKey, nil)
	if err != nil {
		return cryptoDomain.Kek{}, fmt.Errorf("failed to encrypt KEK: %w", err)
	}

	kek := cryptoDomain.Kek{
		ID:           uuid.Must(uuid.NewV7()),
		MasterKeyID:  masterKey.ID,
		Algorithm:    alg,
		EncryptedKey: encryptedKey,
		Key:          kekKey,
		Nonce:        nonce,
		Version:      1,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	return kek, nil
}

// DecryptKek decrypts a KEK using the master key that encrypted it.
func (km *KeyManagerService) DecryptKek(
	kek *cryptoDomain.Kek,
	masterKey *cryptoDomain.MasterKey,
) ([]byte, error) {
	aead, err := km.aeadManager.CreateCipher(masterKey.Key, kek.Algorithm)
	if err != nil {
		return nil, err
	}

	kekKey, err := aead.Decrypt(kek.EncryptedKey, kek.Nonce, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	return kekKey, nil
}

// CreateFieldKey creates a new field key for the alias, encrypted with the KEK.
//
// The field key is generated as a random 32-byte key and encrypted with the
// KEK. The encrypted key is safe to persist; the plaintext key material is
// not returned here and must be recovered via DecryptFieldKey.
func (km *KeyManagerService) CreateFieldKey(
	kek *cryptoDomain.Kek,
	alias string,
	version uint,
	alg cryptoDomain.Algorithm,
) (cryptoDomain.FieldKey, error) {
	// Generate a random 32-byte field key
	rawKey := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(rawKey); err != nil {
		return cryptoDomain.FieldKey{}, fmt.Errorf("failed to generate field key: %w", err)
	}
	defer cryptoDomain.Zero(rawKey)

	// Create cipher using AEADManager with KEK's algorithm
	aead, err := km.aeadManager.CreateCipher(kek.Key, kek.Algorithm)
	if err != nil {
		return cryptoDomain.FieldKey{}, err
	}

	// Encrypt the field key with the KEK
	encryptedKey, nonce, err := aead.Encrypt(rawKey, nil)
	if err != nil {
		return cryptoDomain.FieldKey{}, fmt.Errorf("failed to encrypt field key: %w", err)
	}

	fieldKey := cryptoDomain.FieldKey{
		ID:           uuid.Must(uuid.NewV7()),
		Alias:        alias,
		Version:      version,
		KekID:        kek.ID,
		Algorithm:    alg,
		EncryptedKey: encryptedKey,
		Nonce:        nonce,
		CreatedAt:    time.Now().UTC(),
	}

	return fieldKey, nil
}

// DecryptFieldKey decrypts a field key using the provided KEK.
//
// The decrypted key must be kept in memory only for the duration of a single
// cipher operation and zeroed immediately after use.
func (km *KeyManagerService) DecryptFieldKey(
	fieldKey *cryptoDomain.FieldKey,
	kek *cryptoDomain.Kek,
) ([]byte, error) {
	aead, err := km.aeadManager.CreateCipher(kek.Key, kek.Algorithm)
	if err != nil {
		return nil, err
	}

	rawKey, err := aead.Decrypt(fieldKey.EncryptedKey, fieldKey.Nonce, nil)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	return rawKey, nil
}

// EncryptFieldKey re-encrypts plaintext field key material under a new KEK.
// Used when rewrapping field keys after a KEK rotation.
func (km *KeyManagerService) EncryptFieldKey(
	rawKey []byte,
	kek *cryptoDomain.Kek,
) (encryptedKey, nonce []byte, err error) {
	aead, err := km.aeadManager.CreateCipher(kek.Key, kek.Algorithm)
	if err != nil {
		return nil, nil, err
	}

	encryptedKey, nonce, err = aead.Encrypt(rawKey, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encrypt field key: %w", err)
	}

	return encryptedKey, nonce, nil
}
