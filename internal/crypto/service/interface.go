// Package service provides the asymmetric key exchange used to protect credentials in transit.
// Implements RSA-OAEP (SHA-256) encryption of short strings with base64 text encoding.
package service

import (
	cryptoDomain "github.com/allisson/credentials/internal/crypto/domain"
)

// KeyExchange generates per-process key pairs and encrypts short strings for a peer.
type KeyExchange interface {
	// GenerateKeyPair creates a fresh RSA key pair.
	GenerateKeyPair() (*cryptoDomain.KeyPair, error)

	// Encrypt encrypts plaintext for the holder of publicKeyText and returns base64 ciphertext.
	Encrypt(plaintext, publicKeyText string) (string, error)

	// Decrypt reverses Encrypt using the private half of keyPair.
	Decrypt(ciphertext string, keyPair *cryptoDomain.KeyPair) (string, error)

	// MaxPlaintextSize returns the largest plaintext, in bytes, publicKeyText can encrypt.
	MaxPlaintextSize(publicKeyText string) (int, error)
}
