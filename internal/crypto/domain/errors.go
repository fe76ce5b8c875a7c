package domain

import (
	"github.com/allisson/credentials/internal/errors"
)

// Key exchange error definitions.
//
// All of them wrap ErrInvalidInput: they describe material handed to the
// service by a caller, so the HTTP layer answers 422 without detail.
var (
	// ErrDecryptionFailed indicates a ciphertext could not be decrypted.
	//
	// This covers malformed base64, ciphertext produced for another key pair
	// and tampered data. The cause is not disclosed.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrPayloadTooLarge indicates a plaintext exceeds the key's size bound.
	//
	// RSA-OAEP can only encrypt k - 2*hLen - 2 bytes; longer input is rejected
	// instead of being truncated.
	ErrPayloadTooLarge = errors.Wrap(errors.ErrInvalidInput, "payload too large for key")

	// ErrInvalidPublicKey indicates public key text is not a base64 PKIX RSA key.
	ErrInvalidPublicKey = errors.Wrap(errors.ErrInvalidInput, "invalid public key")

	// ErrInvalidKeySize indicates a requested modulus size below MinKeyBits.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")
)
