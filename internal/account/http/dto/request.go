// Package dto provides the wire schema of the auth service.
package dto

import (
	validation "github.com/jellydator/validation"

	accountDomain "github.com/allisson/credentials/internal/account/domain"
	customValidation "github.com/allisson/credentials/internal/validation"
)

// RegistrationRequest carries a new identity. Every field is base64 ciphertext
// under the server public key.
type RegistrationRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // ciphertext
}

// Validate checks that every field is present and base64 encoded.
func (r *RegistrationRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, customValidation.Base64),
		validation.Field(&r.Email, validation.Required, customValidation.Base64),
		validation.Field(&r.Password, validation.Required, customValidation.Base64),
	)
}

// ToDomain converts the request into use case input.
func (r *RegistrationRequest) ToDomain() *accountDomain.RegisterInput {
	return &accountDomain.RegisterInput{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
	}
}

// LoginRequest carries a login attempt. Email and Password are ciphertext under
// the server public key; PublicKey is where the profile gets encrypted to.
type LoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"` //nolint:gosec // ciphertext
	PublicKey string `json:"publicKey"`
}

// Validate checks that every field is present and base64 encoded.
func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, customValidation.Base64),
		validation.Field(&r.Password, validation.Required, customValidation.Base64),
		validation.Field(&r.PublicKey, validation.Required, customValidation.Base64),
	)
}

// ToDomain converts the request into use case input.
func (r *LoginRequest) ToDomain() *accountDomain.LoginInput {
	return &accountDomain.LoginInput{
		Email:     r.Email,
		Password:  r.Password,
		PublicKey: r.PublicKey,
	}
}
