package domain

import (
	"github.com/allisson/fieldvault/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// to provide context for cryptographic failures.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	// Supported algorithms: AESGCM (AES-256-GCM), ChaCha20 (ChaCha20-Poly1305).
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates the cryptographic key size is invalid.
	// All keys must be exactly 32 bytes (256 bits).
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates a decryption operation failed.
	//
	// This error can occur due to a wrong key, tampered ciphertext
	// (authentication failure), an invalid nonce, or corrupted data.
	// For security reasons, the specific cause is not disclosed.
	// It is surfaced to the caller and never retried: a retry cannot fix
	// corrupted or tampered ciphertext.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrKeyUnavailable indicates key material required for the operation could
	// not be obtained (missing KEK, unreachable KMS, unknown key version).
	//
	// All operations fail closed on this error: nothing may fall back to
	// storing or returning plaintext.
	ErrKeyUnavailable = errors.Wrap(errors.ErrUnavailable, "key unavailable")

	// ErrMasterKeysNotSet indicates the MASTER_KEYS environment variable is not configured.
	ErrMasterKeysNotSet = errors.New("MASTER_KEYS environment variable not set")

	// ErrActiveMasterKeyIDNotSet indicates ACTIVE_MASTER_KEY_ID is not configured.
	ErrActiveMasterKeyIDNotSet = errors.New("ACTIVE_MASTER_KEY_ID environment variable not set")

	// ErrInvalidMasterKeysFormat indicates MASTER_KEYS is not in "id:base64key" format.
	ErrInvalidMasterKeysFormat = errors.Wrap(errors.ErrInvalidInput, "invalid master keys format")

	// ErrInvalidMasterKeyBase64 indicates a master key entry is not valid base64.
	ErrInvalidMasterKeyBase64 = errors.Wrap(errors.ErrInvalidInput, "invalid master key base64")

	// ErrActiveMasterKeyNotFound indicates the active master key ID is not present
	// in the loaded keychain.
	ErrActiveMasterKeyNotFound = errors.Wrap(errors.ErrNotFound, "active master key not found")

	// ErrMasterKeyNotFound indicates the referenced master key is not in the keychain.
	ErrMasterKeyNotFound = errors.Wrap(errors.ErrNotFound, "master key not found")

	// ErrKekNotFound indicates the referenced KEK does not exist.
	ErrKekNotFound = errors.Wrap(errors.ErrNotFound, "kek not found")

	// ErrFieldKeyNotFound indicates no field key exists for the requested alias/version.
	ErrFieldKeyNotFound = errors.Wrap(errors.ErrNotFound, "field key not found")
)
