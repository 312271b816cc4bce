package app

import (
	"context"
	"fmt"
	"sync"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	cryptoMySQL "github.com/allisson/fieldvault/internal/crypto/repository/mysql"
	cryptoPostgreSQL "github.com/allisson/fieldvault/internal/crypto/repository/postgresql"
	cryptoService "github.com/allisson/fieldvault/internal/crypto/service"
	cryptoUseCase "github.com/allisson/fieldvault/internal/crypto/usecase"
)

// cryptoComponents holds the key hierarchy dependencies of the container.
type cryptoComponents struct {
	masterKeyChain  *cryptoDomain.MasterKeyChain
	kekChain        *cryptoDomain.KekChain
	aeadManager     cryptoService.AEADManager
	keyManager      cryptoService.KeyManager
	kmsService      cryptoService.KMSService
	kekRepo         cryptoUseCase.KekRepository
	fieldKeyRepo    cryptoUseCase.FieldKeyRepository
	kekUseCase      cryptoUseCase.KekUseCase
	fieldKeyUseCase cryptoUseCase.FieldKeyUseCase

	masterKeyChainInit  sync.Once
	kekChainInit        sync.Once
	aeadManagerInit     sync.Once
	keyManagerInit      sync.Once
	kmsServiceInit      sync.Once
	kekRepoInit         sync.Once
	fieldKeyRepoInit    sync.Once
	kekUseCaseInit      sync.Once
	fieldKeyUseCaseInit sync.Once
}

// MasterKeyChain returns the master key chain loaded from environment
// variables, unwrapped through the configured KMS provider when one is set.
func (c *Container) MasterKeyChain() (*cryptoDomain.MasterKeyChain, error) {
	var err error
	c.masterKeyChainInit.Do(func() {
		c.masterKeyChain, err = c.initMasterKeyChain()
		if err != nil {
			c.initErrors["masterKeyChain"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["masterKeyChain"]; exists {
		return nil, storedErr
	}
	return c.masterKeyChain, nil
}

// KekChain returns the unwrapped KEK chain, loading every KEK from the
// database on first access.
func (c *Container) KekChain() (*cryptoDomain.KekChain, error) {
	var err error
	c.kekChainInit.Do(func() {
		c.kekChain, err = c.initKekChain()
		if err != nil {
			c.initErrors["kekChain"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["kekChain"]; exists {
		return nil, storedErr
	}
	return c.kekChain, nil
}

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// KeyManager returns the key manager service.
func (c *Container) KeyManager() cryptoService.KeyManager {
	c.keyManagerInit.Do(func() {
		c.keyManager = cryptoService.NewKeyManager(c.AEADManager())
	})
	return c.keyManager
}

// KMSService returns the KMS service.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// KekRepository returns the KEK repository for the configured database driver.
func (c *Container) KekRepository() (cryptoUseCase.KekRepository, error) {
	var err error
	c.kekRepoInit.Do(func() {
		c.kekRepo, err = c.initKekRepository()
		if err != nil {
			c.initErrors["kekRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["kekRepo"]; exists {
		return nil, storedErr
	}
	return c.kekRepo, nil
}

// FieldKeyRepository returns the field key repository for the configured
// database driver.
func (c *Container) FieldKeyRepository() (cryptoUseCase.FieldKeyRepository, error) {
	var err error
	c.fieldKeyRepoInit.Do(func() {
		c.fieldKeyRepo, err = c.initFieldKeyRepository()
		if err != nil {
			c.initErrors["fieldKeyRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["fieldKeyRepo"]; exists {
		return nil, storedErr
	}
	return c.fieldKeyRepo, nil
}

// KekUseCase returns the KEK use case.
func (c *Container) KekUseCase() (cryptoUseCase.KekUseCase, error) {
	var err error
	c.kekUseCaseInit.Do(func() {
		c.kekUseCase, err = c.initKekUseCase()
		if err != nil {
			c.initErrors["kekUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["kekUseCase"]; exists {
		return nil, storedErr
	}
	return c.kekUseCase, nil
}

// FieldKeyUseCase returns the field key use case.
func (c *Container) FieldKeyUseCase() (cryptoUseCase.FieldKeyUseCase, error) {
	var err error
	c.fieldKeyUseCaseInit.Do(func() {
		c.fieldKeyUseCase, err = c.initFieldKeyUseCase()
		if err != nil {
			c.initErrors["fieldKeyUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["fieldKeyUseCase"]; exists {
		return nil, storedErr
	}
	return c.fieldKeyUseCase, nil
}

// Algorithm returns the configured AEAD algorithm for new keys.
func (c *Container) Algorithm() (cryptoDomain.Algorithm, error) {
	switch c.config.EncryptionAlgorithm {
	case string(cryptoDomain.AESGCM):
		return cryptoDomain.AESGCM, nil
	case string(cryptoDomain.ChaCha20):
		return cryptoDomain.ChaCha20, nil
	default:
		return "", fmt.Errorf("unsupported encryption algorithm: %s", c.config.EncryptionAlgorithm)
	}
}

// initMasterKeyChain loads the master key chain from environment variables.
// When a KMS key URI is configured, each master key entry is unwrapped through
// the keeper; otherwise the entries are used as raw key material.
func (c *Container) initMasterKeyChain() (*cryptoDomain.MasterKeyChain, error) {
	ctx := context.Background()

	var keeper cryptoDomain.KMSKeeper
	if c.config.KMSKeyURI != "" {
		var err error
		keeper, err = c.KMSService().OpenKeeper(ctx, c.config.KMSKeyURI)
		if err != nil {
			return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
		}
		defer func() { _ = keeper.Close() }()
	}

	masterKeyChain, err := cryptoDomain.LoadMasterKeyChain(ctx, keeper)
	if err != nil {
		return nil, fmt.Errorf("failed to load master key chain: %w", err)
	}
	return masterKeyChain, nil
}

// initKekChain loads all KEKs from the database and unwraps them with the
// master key chain.
func (c *Container) initKekChain() (*cryptoDomain.KekChain, error) {
	kekUseCase, err := c.KekUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get kek use case: %w", err)
	}

	masterKeyChain, err := c.MasterKeyChain()
	if err != nil {
		return nil, fmt.Errorf("failed to get master key chain: %w", err)
	}

	kekChain, err := kekUseCase.Unwrap(context.Background(), masterKeyChain)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap keks: %w", err)
	}
	return kekChain, nil
}

// initKekRepository creates the KEK repository based on the database driver.
func (c *Container) initKekRepository() (cryptoUseCase.KekRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for kek repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return cryptoPostgreSQL.NewPostgreSQLKekRepository(db), nil
	case "mysql":
		return cryptoMySQL.NewMySQLKekRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initFieldKeyRepository creates the field key repository based on the
// database driver.
func (c *Container) initFieldKeyRepository() (cryptoUseCase.FieldKeyRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for field key repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return cryptoPostgreSQL.NewPostgreSQLFieldKeyRepository(db), nil
	case "mysql":
		return cryptoMySQL.NewMySQLFieldKeyRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initKekUseCase creates the KEK use case with all its dependencies.
func (c *Container) initKekUseCase() (cryptoUseCase.KekUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for kek use case: %w", err)
	}

	kekRepo, err := c.KekRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get kek repository for kek use case: %w", err)
	}

	return cryptoUseCase.NewKekUseCase(txManager, kekRepo, c.KeyManager()), nil
}

// initFieldKeyUseCase creates the field key use case with all its dependencies.
func (c *Container) initFieldKeyUseCase() (cryptoUseCase.FieldKeyUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for field key use case: %w", err)
	}

	fieldKeyRepo, err := c.FieldKeyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get field key repository for field key use case: %w", err)
	}

	return cryptoUseCase.NewFieldKeyUseCase(txManager, fieldKeyRepo, c.KeyManager()), nil
}
