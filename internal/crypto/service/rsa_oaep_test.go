package service

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/credentials/internal/crypto/domain"
	apperrors "github.com/allisson/credentials/internal/errors"
)

var (
	testKeysOnce  sync.Once
	testKeyA      *cryptoDomain.KeyPair
	testKeyB      *cryptoDomain.KeyPair
	testExchange  *RSAKeyExchange
	testKeysError error
)

// setupKeys generates two key pairs once for the whole package.
func setupKeys(t *testing.T) (*RSAKeyExchange, *cryptoDomain.KeyPair, *cryptoDomain.KeyPair) {
	t.Helper()

	testKeysOnce.Do(func() {
		testExchange, testKeysError = NewRSAKeyExchange(cryptoDomain.DefaultKeyBits)
		if testKeysError != nil {
			return
		}
		testKeyA, testKeysError = testExchange.GenerateKeyPair()
		if testKeysError != nil {
			return
		}
		testKeyB, testKeysError = testExchange.GenerateKeyPair()
	})
	require.NoError(t, testKeysError)

	return testExchange, testKeyA, testKeyB
}

func TestNewRSAKeyExchange(t *testing.T) {
	t.Run("Success_DefaultBits", func(t *testing.T) {
		kx, err := NewRSAKeyExchange(2048)
		require.NoError(t, err)
		assert.NotNil(t, kx)
	})

	t.Run("Error_KeyTooSmall", func(t *testing.T) {
		kx, err := NewRSAKeyExchange(1024)
		assert.Nil(t, kx)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize)
	})
}

func TestRSAKeyExchange_RoundTrip(t *testing.T) {
	kx, keyPair, _ := setupKeys(t)

	inputs := []string{
		"",
		"alice@example.com",
		"hunter2pass",
		"Ålice Wönderland 🔐",
		strings.Repeat("x", 190),
	}

	for _, input := range inputs {
		ciphertext, err := kx.Encrypt(input, keyPair.PublicKeyText)
		require.NoError(t, err)
		assert.NotEqual(t, input, ciphertext)

		plaintext, err := kx.Decrypt(ciphertext, keyPair)
		require.NoError(t, err)
		assert.Equal(t, input, plaintext)
	}
}

func TestRSAKeyExchange_Encrypt(t *testing.T) {
	kx, keyPair, _ := setupKeys(t)

	t.Run("Success_RandomizedCiphertext", func(t *testing.T) {
		first, err := kx.Encrypt("same input", keyPair.PublicKeyText)
		require.NoError(t, err)
		second, err := kx.Encrypt("same input", keyPair.PublicKeyText)
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("Error_PayloadTooLarge", func(t *testing.T) {
		ciphertext, err := kx.Encrypt(strings.Repeat("x", 191), keyPair.PublicKeyText)
		assert.Empty(t, ciphertext)
		assert.ErrorIs(t, err, cryptoDomain.ErrPayloadTooLarge)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("Error_InvalidPublicKey", func(t *testing.T) {
		_, err := kx.Encrypt("data", "not a key")
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidPublicKey)
	})
}

func TestRSAKeyExchange_Decrypt(t *testing.T) {
	kx, keyA, keyB := setupKeys(t)

	t.Run("Error_WrongKeyPair", func(t *testing.T) {
		ciphertext, err := kx.Encrypt("secret", keyA.PublicKeyText)
		require.NoError(t, err)

		plaintext, err := kx.Decrypt(ciphertext, keyB)
		assert.Empty(t, plaintext)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("Error_MalformedBase64", func(t *testing.T) {
		_, err := kx.Decrypt("%%%not-base64%%%", keyA)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("Error_TruncatedCiphertext", func(t *testing.T) {
		ciphertext, err := kx.Encrypt("secret", keyA.PublicKeyText)
		require.NoError(t, err)

		_, err = kx.Decrypt(ciphertext[:40], keyA)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})
}

func TestRSAKeyExchange_MaxPlaintextSize(t *testing.T) {
	kx, keyPair, _ := setupKeys(t)

	size, err := kx.MaxPlaintextSize(keyPair.PublicKeyText)
	require.NoError(t, err)
	assert.Equal(t, 190, size)

	_, err = kx.MaxPlaintextSize("")
	assert.ErrorIs(t, err, cryptoDomain.ErrInvalidPublicKey)
}

func TestKeyPair_PublicKeyText(t *testing.T) {
	_, keyPair, _ := setupKeys(t)

	parsed, err := cryptoDomain.ParsePublicKey(keyPair.PublicKeyText)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(keyPair.PublicKey()))
}
