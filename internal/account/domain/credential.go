// Package domain defines the credential records, request kinds and errors of the auth service.
package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"io"
	"strings"
)

// SaltSize is the number of random bytes mixed into every password digest.
const SaltSize = 16

// CredentialRecord is a registered identity as persisted by the credential store.
// Records are immutable once created.
type CredentialRecord struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash []byte `json:"passwordHash"`
	Salt         []byte `json:"salt"`
}

// MatchesEmail compares the record's email with email, ignoring case.
func (r *CredentialRecord) MatchesEmail(email string) bool {
	return strings.EqualFold(r.Email, email)
}

// VerifyPassword recomputes the digest of password with the stored salt and
// compares it with the stored digest in constant time.
func (r *CredentialRecord) VerifyPassword(password string) bool {
	digest := HashPassword(password, r.Salt)
	return subtle.ConstantTimeCompare(digest, r.PasswordHash) == 1
}

// HashPassword returns SHA-256(password ‖ salt).
func HashPassword(password string, salt []byte) []byte {
	h := sha256.New()
	h.Write([]byte(password))
	h.Write(salt)
	return h.Sum(nil)
}

// NewSalt reads SaltSize bytes from random, or from crypto/rand when random is nil.
func NewSalt(random io.Reader) ([]byte, error) {
	if random == nil {
		random = rand.Reader
	}
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(random, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// FindByEmail returns the first record matching email case-insensitively.
func FindByEmail(records []*CredentialRecord, email string) (*CredentialRecord, bool) {
	for _, record := range records {
		if record.MatchesEmail(email) {
			return record, true
		}
	}
	return nil, false
}
