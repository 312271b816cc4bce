// Package usecase defines the business logic interfaces for key management.
//
// This package contains interface definitions for repositories and use cases
// related to envelope encryption. Implementations of these interfaces handle
// KEK and field key lifecycles: creation, rotation, rewrapping and unwrapping.
package usecase

import (
	"context"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
)

// KekRepository defines the interface for Key Encryption Key persistence.
//
// Implementations exist for PostgreSQL (native UUID/BYTEA types) and MySQL
// (BINARY(16)/BLOB). All operations are transaction-aware: when the context
// carries a transaction (via database.GetTx), the operation participates in it.
type KekRepository interface {
	// Create stores a new KEK. The KEK must be fully populated: ID,
	// MasterKeyID, Algorithm, EncryptedKey, Nonce, Version, IsActive and
	// CreatedAt.
	Create(ctx context.Context, kek *cryptoDomain.Kek) error

	// Update modifies an existing KEK identified by its ID. Used to
	// deactivate the previous KEK during rotation.
	Update(ctx context.Context, kek *cryptoDomain.Kek) error

	// List retrieves all KEKs ordered by version descending (newest first).
	// The ordering is load-bearing: the first KEK becomes the active one
	// when a KekChain is built.
	List(ctx context.Context) ([]*cryptoDomain.Kek, error)
}

// FieldKeyRepository defines the interface for field key persistence.
//
// Field keys are versioned per alias: (alias, version) is unique, and
// rotation inserts a new version while retiring the previous one. Retired
// versions are never deleted.
type FieldKeyRepository interface {
	// Create inserts a new field key version. When another writer already
	// inserted the same (alias, version) pair, Create returns an error
	// wrapping errors.ErrConflict and leaves the existing row untouched, so
	// callers can re-fetch the winner.
	Create(ctx context.Context, fieldKey *cryptoDomain.FieldKey) error

	// GetActive retrieves the newest non-retired key version for an alias.
	// Returns ErrFieldKeyNotFound when the alias has no active version.
	GetActive(ctx context.Context, alias string) (*cryptoDomain.FieldKey, error)

	// Get retrieves a specific key version for an alias, retired or not.
	// Returns ErrFieldKeyNotFound when the version does not exist.
	Get(ctx context.Context, alias string, version uint) (*cryptoDomain.FieldKey, error)

	// ListByAlias retrieves every version of a field key ordered by version
	// descending.
	ListByAlias(ctx context.Context, alias string) ([]*cryptoDomain.FieldKey, error)

	// Update modifies the wrapping material and retirement state of a field
	// key identified by its ID.
	Update(ctx context.Context, fieldKey *cryptoDomain.FieldKey) error

	// GetBatchNotKekID retrieves up to limit field keys whose wrapping KEK
	// differs from kekID, oldest first. Used to rewrap keys after a KEK
	// rotation.
	GetBatchNotKekID(ctx context.Context, kekID uuid.UUID, limit int) ([]*cryptoDomain.FieldKey, error)
}

// KekUseCase defines the interface for Key Encryption Key lifecycle operations.
type KekUseCase interface {
	// Create generates and persists the initial KEK (version 1), encrypted
	// with the active master key from the chain.
	Create(ctx context.Context, masterKeyChain *cryptoDomain.MasterKeyChain, alg cryptoDomain.Algorithm) error

	// Rotate creates a new KEK with an incremented version and deactivates
	// the current one, atomically. When no KEK exists yet it behaves like
	// Create, so it is safe to call during initial setup.
	Rotate(ctx context.Context, masterKeyChain *cryptoDomain.MasterKeyChain, alg cryptoDomain.Algorithm) error

	// Unwrap decrypts all stored KEKs using their master keys and returns
	// them in a KekChain for in-memory use. The chain contains plaintext
	// key material: callers must Close() it when done.
	Unwrap(ctx context.Context, masterKeyChain *cryptoDomain.MasterKeyChain) (*cryptoDomain.KekChain, error)
}

// FieldKeyUseCase defines the interface for field key lifecycle operations.
//
// Field keys are created lazily on first use of an alias and versioned
// through rotation. Every version ever created remains retrievable so
// ciphertext written before a rotation stays decryptable.
type FieldKeyUseCase interface {
	// GetOrCreate returns the active key for an alias, creating version 1
	// when the alias has never been used. Creation is idempotent under
	// concurrency: losers of the store-level insert race re-fetch and
	// return the winner, so exactly one version 1 exists per alias.
	GetOrCreate(ctx context.Context, kekChain *cryptoDomain.KekChain, alias string, alg cryptoDomain.Algorithm) (*cryptoDomain.FieldKey, error)

	// Get retrieves a specific key version for an alias. Retired versions
	// remain retrievable for decrypting historical ciphertext.
	Get(ctx context.Context, alias string, version uint) (*cryptoDomain.FieldKey, error)

	// Rotate retires the active key version and creates the next one,
	// atomically. Existing ciphertext is not re-encrypted: it still
	// references its original key version.
	Rotate(ctx context.Context, kekChain *cryptoDomain.KekChain, alias string, alg cryptoDomain.Algorithm) (*cryptoDomain.FieldKey, error)

	// ListVersions retrieves every version of an alias, newest first.
	ListVersions(ctx context.Context, alias string) ([]*cryptoDomain.FieldKey, error)

	// Rewrap re-encrypts a batch of field keys under the given KEK,
	// returning the number of keys rewrapped. Called repeatedly after a
	// KEK rotation until it returns 0.
	Rewrap(ctx context.Context, kekChain *cryptoDomain.KekChain, newKekID uuid.UUID, batchSize int) (int, error)

	// Unwrap decrypts a field key's material using its wrapping KEK from
	// the chain. The caller owns the returned plaintext and must zero it
	// after use.
	Unwrap(fieldKey *cryptoDomain.FieldKey, kekChain *cryptoDomain.KekChain) ([]byte, error)
}
