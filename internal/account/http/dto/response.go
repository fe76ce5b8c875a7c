package dto

import (
	accountDomain "github.com/allisson/credentials/internal/account/domain"
)

// KeyAnnouncement publishes the server public key.
type KeyAnnouncement struct {
	Key string `json:"key"`
}

// GenericReply is the body of every reply without a payload, errors included.
type GenericReply struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ProfileResponse is the successful login reply. Both fields are ciphertext
// under the requester's public key.
type ProfileResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// MapProfileToResponse converts a sealed profile to its wire form.
func MapProfileToResponse(profile *accountDomain.Profile) ProfileResponse {
	return ProfileResponse{
		Name:  profile.Name,
		Email: profile.Email,
	}
}
