// Package domain defines the key exchange types shared by the server and the client.
package domain

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"math/big"
)

const (
	// MinKeyBits is the smallest RSA modulus accepted for a key pair.
	MinKeyBits = 2048

	// DefaultKeyBits is the modulus size used when none is configured.
	DefaultKeyBits = 2048
)

// KeyPair is an RSA key pair generated once per process.
//
// PublicKeyText is the announced form of the public key: standard base64 of the
// PKIX DER encoding. It is what travels in KeyAnnouncement and LoginRequest.
type KeyPair struct {
	PrivateKey    *rsa.PrivateKey
	PublicKeyText string
}

// NewKeyPair wraps a private key and derives its announced public key text.
func NewKeyPair(privateKey *rsa.PrivateKey) (*KeyPair, error) {
	publicKeyText, err := EncodePublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, err
	}
	return &KeyPair{
		PrivateKey:    privateKey,
		PublicKeyText: publicKeyText,
	}, nil
}

// PublicKey returns the public half of the pair.
func (k *KeyPair) PublicKey() *rsa.PublicKey {
	return &k.PrivateKey.PublicKey
}

// EncodePublicKey renders a public key as base64(PKIX DER).
func EncodePublicKey(publicKey *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return "", ErrInvalidPublicKey
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// ParsePublicKey parses base64(PKIX DER) text into an RSA public key.
func ParsePublicKey(text string) (*rsa.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, ErrInvalidPublicKey
	}

	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, ErrInvalidPublicKey
	}

	publicKey, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, ErrInvalidPublicKey
	}
	return publicKey, nil
}

// Destroy overwrites the private exponent, the primes and the CRT values in
// place and drops the precomputed state. The key can no longer decrypt.
// The public key text stays valid.
func (k *KeyPair) Destroy() {
	if k == nil || k.PrivateKey == nil {
		return
	}
	priv := k.PrivateKey

	zeroInt(priv.D)
	for _, prime := range priv.Primes {
		zeroInt(prime)
	}
	zeroInt(priv.Precomputed.Dp)
	zeroInt(priv.Precomputed.Dq)
	zeroInt(priv.Precomputed.Qinv)
	for i := range priv.Precomputed.CRTValues {
		zeroInt(priv.Precomputed.CRTValues[i].Exp)
		zeroInt(priv.Precomputed.CRTValues[i].Coeff)
		zeroInt(priv.Precomputed.CRTValues[i].R)
	}

	// Also releases the internal copy crypto/rsa keeps for decryption.
	priv.Precomputed = rsa.PrecomputedValues{}
}

// zeroInt clears the words backing n before resetting it to zero.
func zeroInt(n *big.Int) {
	if n == nil {
		return
	}
	words := n.Bits()
	for i := range words {
		words[i] = 0
	}
	n.SetInt64(0)
}

// Zero overwrites sensitive bytes once they are no longer needed.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
