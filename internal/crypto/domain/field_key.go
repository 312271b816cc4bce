package domain

import (
	"time"

	"github.com/google/uuid"
)

// FieldKey is a per-field data encryption key owned by the key vault.
//
// Each classified field has a key alias (e.g. "patient.last_name"); every
// alias has exactly one active version at a time. Rotation inserts a new
// version and retires the previous one. Retired versions are never deleted:
// they stay retrievable so ciphertext written before a rotation remains
// decryptable via its recorded key version.
//
// The key material is encrypted with a KEK and stored. The plaintext key is
// never persisted and must be zeroed from memory immediately after use.
type FieldKey struct {
	ID           uuid.UUID // Unique identifier (UUIDv7)
	Alias        string    // Key alias, e.g. "patient.ssn"
	Version      uint      // Version number, starts at 1, incremented on rotation
	KekID        uuid.UUID // Reference to the KEK used to encrypt this key
	Algorithm    Algorithm // Encryption algorithm (AESGCM or ChaCha20)
	EncryptedKey []byte    // The field key encrypted with the KEK
	Nonce        []byte    // Unique nonce for encrypting the field key
	RetiredAt    *time.Time
	CreatedAt    time.Time
}

// IsRetired reports whether this key version has been superseded by a rotation.
// Retired keys still decrypt historical ciphertext; they are never used for
// new encryptions.
func (f *FieldKey) IsRetired() bool {
	return f.RetiredAt != nil
}
