package app

import (
	"fmt"
	"sync"

	cryptoDomain "github.com/allisson/credentials/internal/crypto/domain"
	cryptoService "github.com/allisson/credentials/internal/crypto/service"
)

// cryptoComponents holds the key exchange and the per-process key pairs.
type cryptoComponents struct {
	keyExchange   cryptoService.KeyExchange
	serverKeyPair *cryptoDomain.KeyPair
	clientKeyPair *cryptoDomain.KeyPair

	keyExchangeInit   sync.Once
	serverKeyPairInit sync.Once
	clientKeyPairInit sync.Once
}

// KeyExchange returns the RSA-OAEP key exchange sized by RSAKeyBits.
func (c *Container) KeyExchange() (cryptoService.KeyExchange, error) {
	var err error
	c.keyExchangeInit.Do(func() {
		c.keyExchange, err = c.initKeyExchange()
		if err != nil {
			c.setInitError("keyExchange", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("keyExchange"); storedErr != nil {
		return nil, storedErr
	}
	return c.keyExchange, nil
}

// ServerKeyPair returns the key pair announced by the auth service.
// It is generated on first access and lives as long as the process.
func (c *Container) ServerKeyPair() (*cryptoDomain.KeyPair, error) {
	var err error
	c.serverKeyPairInit.Do(func() {
		c.serverKeyPair, err = c.generateKeyPair()
		if err != nil {
			c.setInitError("serverKeyPair", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("serverKeyPair"); storedErr != nil {
		return nil, storedErr
	}
	return c.serverKeyPair, nil
}

// ClientKeyPair returns the key pair login profiles are sealed to.
func (c *Container) ClientKeyPair() (*cryptoDomain.KeyPair, error) {
	var err error
	c.clientKeyPairInit.Do(func() {
		c.clientKeyPair, err = c.generateKeyPair()
		if err != nil {
			c.setInitError("clientKeyPair", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("clientKeyPair"); storedErr != nil {
		return nil, storedErr
	}
	return c.clientKeyPair, nil
}

func (c *Container) initKeyExchange() (cryptoService.KeyExchange, error) {
	keyExchange, err := cryptoService.NewRSAKeyExchange(c.config.RSAKeyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to create key exchange: %w", err)
	}
	return keyExchange, nil
}

func (c *Container) generateKeyPair() (*cryptoDomain.KeyPair, error) {
	keyExchange, err := c.KeyExchange()
	if err != nil {
		return nil, err
	}

	keyPair, err := keyExchange.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	return keyPair, nil
}

// zeroKeys destroys both private keys on shutdown.
func (c *Container) zeroKeys() {
	c.serverKeyPair.Destroy()
	c.clientKeyPair.Destroy()
}
