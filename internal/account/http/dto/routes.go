package dto

import (
	"net/http"

	accountDomain "github.com/allisson/credentials/internal/account/domain"
)

// BasePath prefixes every auth service route.
const BasePath = "/v1/auth"

// Route paths relative to BasePath.
const (
	KeyPath       = "/key"
	HeartbeatPath = "/heartbeat"
	UsersPath     = "/users"
	LoginPath     = "/login"
)

// Endpoint returns the HTTP method and full path serving kind.
func Endpoint(kind accountDomain.RequestKind) (method, path string, ok bool) {
	switch kind {
	case accountDomain.GetKey:
		return http.MethodGet, BasePath + KeyPath, true
	case accountDomain.Heartbeat:
		return http.MethodHead, BasePath + HeartbeatPath, true
	case accountDomain.CreateUser:
		return http.MethodPost, BasePath + UsersPath, true
	case accountDomain.Login:
		return http.MethodPost, BasePath + LoginPath, true
	default:
		return "", "", false
	}
}
