package service

import (
	"context"
	"encoding/json"
	"log/slog"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	cryptoService "github.com/allisson/fieldvault/internal/crypto/service"
	cryptoUsecase "github.com/allisson/fieldvault/internal/crypto/usecase"
	apperrors "github.com/allisson/fieldvault/internal/errors"
	"github.com/allisson/fieldvault/internal/records/domain"
	"github.com/allisson/fieldvault/internal/schema"
)

type fieldCipher struct {
	registry    *schema.Registry
	fieldKeys   cryptoUsecase.FieldKeyUseCase
	aeadManager cryptoService.AEADManager
	logger      *slog.Logger
	alg         cryptoDomain.Algorithm
}

func (c *fieldCipher) definition(entityType, field string) (*schema.FieldDefinition, error) {
	def, ok := c.registry.Lookup(entityType, field)
	if !ok || !def.Encrypted() {
		return nil, apperrors.Wrapf(
			schema.ErrUnknownFieldClassification, "%s.%s", entityType, field,
		)
	}
	return def, nil
}

// fieldKeyMaterial fetches and unwraps one version of a field key. Failures
// fail closed: a key that cannot be produced means the operation cannot
// proceed, never that it proceeds without encryption.
func (c *fieldCipher) fieldKeyMaterial(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	alias string,
	version uint,
) (*cryptoDomain.FieldKey, []byte, error) {
	fieldKey, err := c.fieldKeys.Get(ctx, alias, version)
	if err != nil {
		return nil, nil, apperrors.Wrapf(cryptoDomain.ErrKeyUnavailable, "%s v%d: %v", alias, version, err)
	}

	rawKey, err := c.fieldKeys.Unwrap(fieldKey, kekChain)
	if err != nil {
		return nil, nil, apperrors.Wrapf(cryptoDomain.ErrKeyUnavailable, "%s v%d: %v", alias, version, err)
	}

	return fieldKey, rawKey, nil
}

func (c *fieldCipher) Encrypt(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	entityType, field string,
	plaintext any,
) (*domain.EncryptedValue, error) {
	def, err := c.definition(entityType, field)
	if err != nil {
		return nil, err
	}

	fieldKey, err := c.fieldKeys.GetOrCreate(ctx, kekChain, def.KeyAlias, c.alg)
	if err != nil {
		return nil, apperrors.Wrapf(cryptoDomain.ErrKeyUnavailable, "%s: %v", def.KeyAlias, err)
	}

	envelope := &domain.EncryptedValue{
		Mode:       def.Mode,
		KeyAlias:   def.KeyAlias,
		KeyVersion: fieldKey.Version,
	}

	// Null values never touch the cipher; the envelope alone records the
	// classification.
	if plaintext == nil {
		return envelope, nil
	}

	serialized, err := json.Marshal(plaintext)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
	}

	rawKey, err := c.fieldKeys.Unwrap(fieldKey, kekChain)
	if err != nil {
		return nil, apperrors.Wrapf(cryptoDomain.ErrKeyUnavailable, "%s: %v", def.KeyAlias, err)
	}
	defer cryptoDomain.Zero(rawKey)

	cipher, err := c.aeadManager.CreateCipher(rawKey, fieldKey.Algorithm)
	if err != nil {
		return nil, err
	}

	aad := []byte(def.KeyAlias)

	if def.Mode == schema.ModeDeterministic {
		nonce, err := deterministicNonce(rawKey, serialized)
		if err != nil {
			return nil, err
		}
		ciphertext, err := cipher.EncryptWithNonce(nonce, serialized, aad)
		if err != nil {
			return nil, err
		}
		envelope.Nonce = nonce
		envelope.Ciphertext = ciphertext
		return envelope, nil
	}

	// Random and range modes both store randomized ciphertext in the
	// document; range order leaks only through the search index code.
	ciphertext, nonce, err := cipher.Encrypt(serialized, aad)
	if err != nil {
		return nil, err
	}
	envelope.Nonce = nonce
	envelope.Ciphertext = ciphertext
	return envelope, nil
}

func (c *fieldCipher) Decrypt(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	value *domain.EncryptedValue,
) (any, error) {
	if value.IsNull() {
		return nil, nil
	}

	fieldKey, rawKey, err := c.fieldKeyMaterial(ctx, kekChain, value.KeyAlias, value.KeyVersion)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(rawKey)

	cipher, err := c.aeadManager.CreateCipher(rawKey, fieldKey.Algorithm)
	if err != nil {
		return nil, err
	}

	serialized, err := cipher.Decrypt(value.Ciphertext, value.Nonce, []byte(value.KeyAlias))
	if err != nil {
		// Authentication failure means corruption or tampering. Surface it,
		// never retry or degrade.
		c.logger.ErrorContext(ctx, "field decryption failed",
			"key_alias", value.KeyAlias,
			"key_version", value.KeyVersion,
		)
		return nil, err
	}

	var plaintext any
	if err := json.Unmarshal(serialized, &plaintext); err != nil {
		return nil, apperrors.Wrap(cryptoDomain.ErrDecryptionFailed, err.Error())
	}

	return plaintext, nil
}

func (c *fieldCipher) EncryptForSearch(
	ctx context.Context,
	kekChain *cryptoDomain.KekChain,
	entityType, field string,
	value any,
	keyVersion uint,
) ([]byte, error) {
	def, err := c.definition(entityType, field)
	if err != nil {
		return nil, err
	}

	if def.Mode != schema.ModeDeterministic && def.Mode != schema.ModeRange {
		return nil, apperrors.Wrapf(domain.ErrFieldNotSearchable, "%s.%s is %s", entityType, field, schema.ModeRandom)
	}

	fieldKey, rawKey, err := c.fieldKeyMaterial(ctx, kekChain, def.KeyAlias, keyVersion)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(rawKey)

	if def.Mode == schema.ModeRange {
		ord, err := ordinal(value)
		if err != nil {
			return nil, err
		}

		rangeKey, err := deriveSubKey(rawKey, rangeEncodingInfo)
		if err != nil {
			return nil, err
		}
		defer cryptoDomain.Zero(rangeKey)

		return newRangeEncoder(rangeKey).Encode(ord), nil
	}

	serialized, err := json.Marshal(value)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
	}

	cipher, err := c.aeadManager.CreateCipher(rawKey, fieldKey.Algorithm)
	if err != nil {
		return nil, err
	}

	nonce, err := deterministicNonce(rawKey, serialized)
	if err != nil {
		return nil, err
	}

	return cipher.EncryptWithNonce(nonce, serialized, []byte(def.KeyAlias))
}

// NewFieldCipher creates the cipher engine. New field keys are created with
// the given algorithm; existing keys keep the algorithm they were created
// with.
func NewFieldCipher(
	registry *schema.Registry,
	fieldKeys cryptoUsecase.FieldKeyUseCase,
	aeadManager cryptoService.AEADManager,
	logger *slog.Logger,
	alg cryptoDomain.Algorithm,
) FieldCipher {
	return &fieldCipher{
		registry:    registry,
		fieldKeys:   fieldKeys,
		aeadManager: aeadManager,
		logger:      logger,
		alg:         alg,
	}
}
