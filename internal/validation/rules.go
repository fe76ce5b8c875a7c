// Package validation provides custom validation rules for the application.
package validation

import (
	"fmt"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/credentials/internal/errors"
)

// MinPasswordLength is the shortest password the client accepts.
const MinPasswordLength = 8

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Email accepts any address containing both "@" and ".". The server treats
// the email as an opaque case-insensitive key, so nothing stricter is needed.
var Email = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.Contains(s, "@") && strings.Contains(s, ".")
	},
	validation.NewError("validation_email_format", "must be a valid email address"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// Password enforces the minimum password length used by the console.
var Password = validation.RuneLength(MinPasswordLength, 0).
	Error(fmt.Sprintf("password must be %d characters or longer", MinPasswordLength))

// MaxBytes limits the UTF-8 encoded size of a string. Fields that are encrypted
// with the server key must fit the key's plaintext bound.
func MaxBytes(limit int) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, ok := value.(string)
		if !ok {
			return validation.NewError("validation_max_bytes_type", "must be a string")
		}
		if len(s) > limit {
			return validation.NewError(
				"validation_max_bytes",
				fmt.Sprintf("must be at most %d bytes", limit),
			)
		}
		return nil
	})
}
