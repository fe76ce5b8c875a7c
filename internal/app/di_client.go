package app

import (
	"fmt"
	"sync"

	"github.com/allisson/credentials/internal/client"
	"github.com/allisson/credentials/internal/dispatcher"
)

// clientComponents holds the auth service transport and the request dispatcher.
type clientComponents struct {
	apiClient  *client.Client
	dispatcher *dispatcher.Dispatcher

	apiClientInit  sync.Once
	dispatcherInit sync.Once
}

// APIClient returns the HTTP client of the auth service at ClientServerURL.
func (c *Container) APIClient() (*client.Client, error) {
	var err error
	c.apiClientInit.Do(func() {
		c.apiClient, err = client.New(c.config.ClientServerURL, client.WithTimeout(c.config.ClientRequestTimeout))
		if err != nil {
			c.setInitError("apiClient", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("apiClient"); storedErr != nil {
		return nil, storedErr
	}
	return c.apiClient, nil
}

// Dispatcher returns the client request dispatcher. Messages for the user go
// to notifier; the loop is not started.
func (c *Container) Dispatcher(notifier dispatcher.Notifier) (*dispatcher.Dispatcher, error) {
	var err error
	c.dispatcherInit.Do(func() {
		c.dispatcher, err = c.initDispatcher(notifier)
		if err != nil {
			c.setInitError("dispatcher", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("dispatcher"); storedErr != nil {
		return nil, storedErr
	}
	return c.dispatcher, nil
}

func (c *Container) initDispatcher(notifier dispatcher.Notifier) (*dispatcher.Dispatcher, error) {
	apiClient, err := c.APIClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get api client for dispatcher: %w", err)
	}

	keyExchange, err := c.KeyExchange()
	if err != nil {
		return nil, fmt.Errorf("failed to get key exchange for dispatcher: %w", err)
	}

	clientKeyPair, err := c.ClientKeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to get client key pair for dispatcher: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for dispatcher: %w", err)
	}

	opts := []dispatcher.Option{
		dispatcher.WithLogger(c.Logger()),
		dispatcher.WithMetrics(businessMetrics),
		dispatcher.WithPollInterval(c.config.ClientPollInterval),
		dispatcher.WithHeartbeatInterval(c.config.ClientHeartbeatInterval),
	}
	if notifier != nil {
		opts = append(opts, dispatcher.WithNotifier(notifier))
	}

	return dispatcher.New(apiClient, keyExchange, clientKeyPair, opts...), nil
}
