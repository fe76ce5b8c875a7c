package service

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"io"

	cryptoDomain "github.com/allisson/credentials/internal/crypto/domain"
	apperrors "github.com/allisson/credentials/internal/errors"
)

// oaepOverhead is the padding cost of RSA-OAEP with SHA-256: 2*hLen + 2.
const oaepOverhead = 2*sha256.Size + 2

// RSAKeyExchange implements KeyExchange with RSA-OAEP and SHA-256.
//
// Ciphertexts are encoded with standard base64 so they can sit in JSON string
// fields. Encryption is randomized: the same plaintext yields a different
// ciphertext on every call, while Decrypt always recovers the original text.
//
// Plaintexts are bounded by MaxPlaintextSize (190 bytes for a 2048-bit key).
// Oversized input fails with ErrPayloadTooLarge.
//
// Thread safety:
//
//	The type holds no mutable state and is safe for concurrent use.
type RSAKeyExchange struct {
	bits   int
	random io.Reader
}

// NewRSAKeyExchange creates a key exchange that generates keys of the given modulus size.
// Returns ErrInvalidKeySize when bits is below MinKeyBits.
func NewRSAKeyExchange(bits int) (*RSAKeyExchange, error) {
	if bits < cryptoDomain.MinKeyBits {
		return nil, cryptoDomain.ErrInvalidKeySize
	}
	return &RSAKeyExchange{
		bits:   bits,
		random: rand.Reader,
	}, nil
}

// GenerateKeyPair creates a fresh RSA key pair.
func (r *RSAKeyExchange) GenerateKeyPair() (*cryptoDomain.KeyPair, error) {
	privateKey, err := rsa.GenerateKey(r.random, r.bits)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate rsa key")
	}
	return cryptoDomain.NewKeyPair(privateKey)
}

// Encrypt encrypts plaintext under publicKeyText and returns base64 ciphertext.
func (r *RSAKeyExchange) Encrypt(plaintext, publicKeyText string) (string, error) {
	publicKey, err := cryptoDomain.ParsePublicKey(publicKeyText)
	if err != nil {
		return "", err
	}

	if len(plaintext) > maxPlaintext(publicKey) {
		return "", cryptoDomain.ErrPayloadTooLarge
	}

	ciphertext, err := rsa.EncryptOAEP(sha256.New(), r.random, publicKey, []byte(plaintext), nil)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to encrypt")
	}

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts base64 ciphertext with the private half of keyPair.
func (r *RSAKeyExchange) Decrypt(ciphertext string, keyPair *cryptoDomain.KeyPair) (string, error) {
	if keyPair == nil || keyPair.PrivateKey == nil {
		return "", cryptoDomain.ErrDecryptionFailed
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", cryptoDomain.ErrDecryptionFailed
	}

	plaintext, err := rsa.DecryptOAEP(sha256.New(), nil, keyPair.PrivateKey, raw, nil)
	if err != nil {
		return "", cryptoDomain.ErrDecryptionFailed
	}
	defer cryptoDomain.Zero(plaintext)

	return string(plaintext), nil
}

// MaxPlaintextSize returns how many plaintext bytes publicKeyText can encrypt.
func (r *RSAKeyExchange) MaxPlaintextSize(publicKeyText string) (int, error) {
	publicKey, err := cryptoDomain.ParsePublicKey(publicKeyText)
	if err != nil {
		return 0, err
	}
	return maxPlaintext(publicKey), nil
}

func maxPlaintext(publicKey *rsa.PublicKey) int {
	return publicKey.Size() - oaepOverhead
}
