package validation

import (
	"encoding/base64"

	validation "github.com/jellydator/validation"
)

// MaxBase64Length bounds an encoded wire field. It fits the ciphertext and the
// announced public key of an 8192-bit RSA key.
const MaxBase64Length = 2048

// Base64 accepts standard base64 text of at most MaxBase64Length characters.
// Empty strings pass so that Required reports them.
var Base64 = validation.NewStringRuleWithError(
	func(s string) bool {
		if len(s) > MaxBase64Length {
			return false
		}
		_, err := base64.StdEncoding.DecodeString(s)
		return err == nil
	},
	validation.NewError("validation_base64", "must be standard base64 of at most 2048 characters"),
)
