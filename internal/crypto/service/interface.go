// Package service provides cryptographic services for envelope encryption.
// Implements AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305) for KEK and field
// key management.
package service

import (
	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and
	// a freshly generated random nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// EncryptWithNonce encrypts plaintext under a caller-supplied nonce.
	// Used for deterministic encryption, where the nonce is derived from the
	// plaintext; the caller is responsible for never reusing a nonce with a
	// different plaintext under the same key.
	EncryptWithNonce(nonce, plaintext, aad []byte) (ciphertext []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeyManager defines the interface for managing KEKs and field keys in
// envelope encryption.
type KeyManager interface {
	// CreateKek creates a new KEK encrypted with the master key.
	CreateKek(
		masterKey *cryptoDomain.MasterKey,
		alg cryptoDomain.Algorithm,
	) (cryptoDomain.Kek, error)

	// DecryptKek decrypts a KEK using the master key.
	DecryptKek(kek *cryptoDomain.Kek, masterKey *cryptoDomain.MasterKey) ([]byte, error)

	// CreateFieldKey creates a new field key for the alias, encrypted with the KEK.
	CreateFieldKey(
		kek *cryptoDomain.Kek,
		alias string,
		version uint,
		alg cryptoDomain.Algorithm,
	) (cryptoDomain.FieldKey, error)

	// DecryptFieldKey decrypts a field key using the KEK.
	DecryptFieldKey(fieldKey *cryptoDomain.FieldKey, kek *cryptoDomain.Kek) ([]byte, error)

	// EncryptFieldKey re-encrypts plaintext field key material under a new KEK.
	// Used when rewrapping field keys after a KEK rotation.
	EncryptFieldKey(rawKey []byte, kek *cryptoDomain.Kek) (encryptedKey, nonce []byte, err error)
}
