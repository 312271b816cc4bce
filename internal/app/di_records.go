package app

import (
	"fmt"
	"sync"

	"github.com/allisson/fieldvault/internal/metrics"
	"github.com/allisson/fieldvault/internal/policy"
	recordsMySQL "github.com/allisson/fieldvault/internal/records/repository/mysql"
	recordsPostgreSQL "github.com/allisson/fieldvault/internal/records/repository/postgresql"
	recordsService "github.com/allisson/fieldvault/internal/records/service"
	recordsUseCase "github.com/allisson/fieldvault/internal/records/usecase"
	"github.com/allisson/fieldvault/internal/schema"
)

// recordComponents holds the record pipeline dependencies of the container.
type recordComponents struct {
	schemaRegistry  *schema.Registry
	policyTable     *policy.Table
	fieldCipher     recordsService.FieldCipher
	queryRewriter   recordsService.QueryRewriter
	recordRepo      recordsUseCase.RecordRepository
	recordUseCase   recordsUseCase.RecordUseCase
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	schemaRegistryInit  sync.Once
	policyTableInit     sync.Once
	fieldCipherInit     sync.Once
	queryRewriterInit   sync.Once
	recordRepoInit      sync.Once
	recordUseCaseInit   sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
}

// SchemaRegistry returns the field classification registry loaded from the
// configured schema document.
func (c *Container) SchemaRegistry() (*schema.Registry, error) {
	var err error
	c.schemaRegistryInit.Do(func() {
		c.schemaRegistry, err = schema.Load(c.config.SchemaPath)
		if err != nil {
			c.initErrors["schemaRegistry"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["schemaRegistry"]; exists {
		return nil, storedErr
	}
	return c.schemaRegistry, nil
}

// PolicyTable returns the role-based access table built from the schema
// registry.
func (c *Container) PolicyTable() (*policy.Table, error) {
	var err error
	c.policyTableInit.Do(func() {
		var registry *schema.Registry
		registry, err = c.SchemaRegistry()
		if err != nil {
			c.initErrors["policyTable"] = err
			return
		}
		c.policyTable = policy.NewTable(registry.All())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["policyTable"]; exists {
		return nil, storedErr
	}
	return c.policyTable, nil
}

// FieldCipher returns the field cipher engine.
func (c *Container) FieldCipher() (recordsService.FieldCipher, error) {
	var err error
	c.fieldCipherInit.Do(func() {
		c.fieldCipher, err = c.initFieldCipher()
		if err != nil {
			c.initErrors["fieldCipher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["fieldCipher"]; exists {
		return nil, storedErr
	}
	return c.fieldCipher, nil
}

// QueryRewriter returns the query rewriter.
func (c *Container) QueryRewriter() (recordsService.QueryRewriter, error) {
	var err error
	c.queryRewriterInit.Do(func() {
		c.queryRewriter, err = c.initQueryRewriter()
		if err != nil {
			c.initErrors["queryRewriter"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["queryRewriter"]; exists {
		return nil, storedErr
	}
	return c.queryRewriter, nil
}

// RecordRepository returns the record repository for the configured database
// driver.
func (c *Container) RecordRepository() (recordsUseCase.RecordRepository, error) {
	var err error
	c.recordRepoInit.Do(func() {
		c.recordRepo, err = c.initRecordRepository()
		if err != nil {
			c.initErrors["recordRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["recordRepo"]; exists {
		return nil, storedErr
	}
	return c.recordRepo, nil
}

// RecordUseCase returns the record use case, decorated with metrics when
// metrics are enabled.
func (c *Container) RecordUseCase() (recordsUseCase.RecordUseCase, error) {
	var err error
	c.recordUseCaseInit.Do(func() {
		c.recordUseCase, err = c.initRecordUseCase()
		if err != nil {
			c.initErrors["recordUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["recordUseCase"]; exists {
		return nil, storedErr
	}
	return c.recordUseCase, nil
}

// MetricsProvider returns the metrics provider.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder, a no-op when metrics
// are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

func (c *Container) initFieldCipher() (recordsService.FieldCipher, error) {
	registry, err := c.SchemaRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to get schema registry for field cipher: %w", err)
	}

	fieldKeyUseCase, err := c.FieldKeyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get field key use case for field cipher: %w", err)
	}

	alg, err := c.Algorithm()
	if err != nil {
		return nil, err
	}

	return recordsService.NewFieldCipher(registry, fieldKeyUseCase, c.AEADManager(), c.Logger(), alg), nil
}

func (c *Container) initQueryRewriter() (recordsService.QueryRewriter, error) {
	registry, err := c.SchemaRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to get schema registry for query rewriter: %w", err)
	}

	fieldKeyUseCase, err := c.FieldKeyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get field key use case for query rewriter: %w", err)
	}

	cipher, err := c.FieldCipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get field cipher for query rewriter: %w", err)
	}

	return recordsService.NewQueryRewriter(registry, fieldKeyUseCase, cipher), nil
}

func (c *Container) initRecordRepository() (recordsUseCase.RecordRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for record repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return recordsPostgreSQL.NewPostgreSQLRecordRepository(db), nil
	case "mysql":
		return recordsMySQL.NewMySQLRecordRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initRecordUseCase() (recordsUseCase.RecordUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for record use case: %w", err)
	}

	recordRepo, err := c.RecordRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get record repository for record use case: %w", err)
	}

	registry, err := c.SchemaRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to get schema registry for record use case: %w", err)
	}

	policyTable, err := c.PolicyTable()
	if err != nil {
		return nil, fmt.Errorf("failed to get policy table for record use case: %w", err)
	}

	cipher, err := c.FieldCipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get field cipher for record use case: %w", err)
	}

	rewriter, err := c.QueryRewriter()
	if err != nil {
		return nil, fmt.Errorf("failed to get query rewriter for record use case: %w", err)
	}

	auditUC, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for record use case: %w", err)
	}

	fieldKeyUseCase, err := c.FieldKeyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get field key use case for record use case: %w", err)
	}

	alg, err := c.Algorithm()
	if err != nil {
		return nil, err
	}

	useCase := recordsUseCase.NewRecordUseCase(
		txManager,
		recordRepo,
		registry,
		policyTable,
		cipher,
		rewriter,
		auditUC,
		fieldKeyUseCase,
		alg,
		c.config.FindMaxConcurrency,
	)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for record use case: %w", err)
		}
		useCase = recordsUseCase.NewRecordUseCaseWithMetrics(useCase, businessMetrics)
	}

	return useCase, nil
}

func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	if !c.config.MetricsEnabled {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider: %w", err)
	}

	return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}
