package domain

// RegisterInput carries a registration whose fields are ciphertext under the
// server public key.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput carries a login attempt. Email and Password are ciphertext under
// the server public key; PublicKey is the requester's key in plaintext.
type LoginInput struct {
	Email     string
	Password  string
	PublicKey string
}

// Profile is returned on a successful login. Both fields are ciphertext under
// the requester's public key.
type Profile struct {
	Name  string
	Email string
}
