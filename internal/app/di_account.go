package app

import (
	"fmt"
	"sync"

	accountHTTP "github.com/allisson/credentials/internal/account/http"
	accountRepository "github.com/allisson/credentials/internal/account/repository"
	accountUseCase "github.com/allisson/credentials/internal/account/usecase"
	"github.com/allisson/credentials/internal/config"
	"github.com/allisson/credentials/internal/http"
)

// accountComponents holds the credential store, the auth use case and its servers.
type accountComponents struct {
	credentialRepository accountUseCase.CredentialRepository
	accountUseCase       accountUseCase.UseCase
	accountHandler       *accountHTTP.AccountHandler
	httpServer           *http.Server
	metricsServer        *http.MetricsServer

	credentialRepositoryInit sync.Once
	accountUseCaseInit       sync.Once
	accountHandlerInit       sync.Once
	httpServerInit           sync.Once
	metricsServerInit        sync.Once
}

// CredentialRepository returns the credential store selected by StoreDriver.
func (c *Container) CredentialRepository() (accountUseCase.CredentialRepository, error) {
	var err error
	c.credentialRepositoryInit.Do(func() {
		c.credentialRepository, err = c.initCredentialRepository()
		if err != nil {
			c.setInitError("credentialRepository", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("credentialRepository"); storedErr != nil {
		return nil, storedErr
	}
	return c.credentialRepository, nil
}

// AccountUseCase returns the auth use case bound to the server key pair.
func (c *Container) AccountUseCase() (accountUseCase.UseCase, error) {
	var err error
	c.accountUseCaseInit.Do(func() {
		c.accountUseCase, err = c.initAccountUseCase()
		if err != nil {
			c.setInitError("accountUseCase", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("accountUseCase"); storedErr != nil {
		return nil, storedErr
	}
	return c.accountUseCase, nil
}

// AccountHandler returns the HTTP handler of the auth routes.
func (c *Container) AccountHandler() (*accountHTTP.AccountHandler, error) {
	var err error
	c.accountHandlerInit.Do(func() {
		c.accountHandler, err = c.initAccountHandler()
		if err != nil {
			c.setInitError("accountHandler", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("accountHandler"); storedErr != nil {
		return nil, storedErr
	}
	return c.accountHandler, nil
}

// HTTPServer returns the auth service HTTP server with its router configured.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.setInitError("httpServer", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("httpServer"); storedErr != nil {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the /metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.setInitError("metricsServer", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("metricsServer"); storedErr != nil {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

func (c *Container) initCredentialRepository() (accountUseCase.CredentialRepository, error) {
	switch c.config.StoreDriver {
	case config.StoreDriverFile:
		txManager, err := c.TxManager()
		if err != nil {
			return nil, fmt.Errorf("failed to get tx manager for credential repository: %w", err)
		}
		return accountRepository.NewFileCredentialRepository(c.config.DataDir, txManager)
	case config.StoreDriverPostgres:
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for credential repository: %w", err)
		}
		return accountRepository.NewPostgreSQLCredentialRepository(db), nil
	case config.StoreDriverMySQL:
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for credential repository: %w", err)
		}
		return accountRepository.NewMySQLCredentialRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", c.config.StoreDriver)
	}
}

func (c *Container) initAccountUseCase() (accountUseCase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for account use case: %w", err)
	}

	repo, err := c.CredentialRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential repository for account use case: %w", err)
	}

	keyExchange, err := c.KeyExchange()
	if err != nil {
		return nil, fmt.Errorf("failed to get key exchange for account use case: %w", err)
	}

	serverKeyPair, err := c.ServerKeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to get server key pair for account use case: %w", err)
	}

	baseUseCase := accountUseCase.NewAccountUseCase(txManager, repo, keyExchange, serverKeyPair)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for account use case: %w", err)
		}
		return accountUseCase.NewUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

func (c *Container) initAccountHandler() (*accountHTTP.AccountHandler, error) {
	useCase, err := c.AccountUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get account use case for account handler: %w", err)
	}
	return accountHTTP.NewAccountHandler(useCase, c.Logger()), nil
}

func (c *Container) initHTTPServer() (*http.Server, error) {
	useCase, err := c.AccountUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get account use case for http server: %w", err)
	}

	accountHandler, err := c.AccountHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get account handler for http server: %w", err)
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(useCase, c.config.ServerHost, c.config.ServerPort, c.Logger())
	server.SetupRouter(c.config, accountHandler, metricsProvider)

	return server, nil
}

func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	if metricsProvider == nil {
		return nil, nil
	}

	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), metricsProvider), nil
}
