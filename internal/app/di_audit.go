package app

import (
	"fmt"
	"sync"

	auditMySQL "github.com/allisson/fieldvault/internal/audit/repository/mysql"
	auditPostgreSQL "github.com/allisson/fieldvault/internal/audit/repository/postgresql"
	auditService "github.com/allisson/fieldvault/internal/audit/service"
	auditUseCase "github.com/allisson/fieldvault/internal/audit/usecase"
)

// auditComponents holds the audit trail dependencies of the container.
type auditComponents struct {
	auditSigner   auditService.Signer
	auditRepo     auditUseCase.AuditRepository
	auditUseCase  auditUseCase.AuditUseCase
	auditSignInit sync.Once
	auditRepoInit sync.Once
	auditUCInit   sync.Once
}

// AuditSigner returns the audit entry signer.
func (c *Container) AuditSigner() auditService.Signer {
	c.auditSignInit.Do(func() {
		c.auditSigner = auditService.NewAuditSigner()
	})
	return c.auditSigner
}

// AuditRepository returns the audit repository for the configured database
// driver.
func (c *Container) AuditRepository() (auditUseCase.AuditRepository, error) {
	var err error
	c.auditRepoInit.Do(func() {
		c.auditRepo, err = c.initAuditRepository()
		if err != nil {
			c.initErrors["auditRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditRepo"]; exists {
		return nil, storedErr
	}
	return c.auditRepo, nil
}

// AuditUseCase returns the audit use case.
func (c *Container) AuditUseCase() (auditUseCase.AuditUseCase, error) {
	var err error
	c.auditUCInit.Do(func() {
		c.auditUseCase, err = c.initAuditUseCase()
		if err != nil {
			c.initErrors["auditUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditUseCase"]; exists {
		return nil, storedErr
	}
	return c.auditUseCase, nil
}

// initAuditRepository creates the audit repository based on the database driver.
func (c *Container) initAuditRepository() (auditUseCase.AuditRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return auditPostgreSQL.NewPostgreSQLAuditRepository(db), nil
	case "mysql":
		return auditMySQL.NewMySQLAuditRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAuditUseCase creates the audit use case with all its dependencies.
func (c *Container) initAuditUseCase() (auditUseCase.AuditUseCase, error) {
	auditRepo, err := c.AuditRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit repository for audit use case: %w", err)
	}

	return auditUseCase.NewAuditUseCase(auditRepo, c.AuditSigner(), c.Logger()), nil
}
