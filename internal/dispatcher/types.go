package dispatcher

import (
	"time"

	accountDomain "github.com/allisson/credentials/internal/account/domain"
)

// Payload is the data attached to a data-bearing request. Implemented by
// *Registration and *LoginAttempt only.
type Payload interface {
	Kind() accountDomain.RequestKind
	payload()
}

// Registration is a plaintext registration waiting to be sealed and sent.
type Registration struct {
	Name     string
	Email    string
	Password string
}

// Kind returns CreateUser.
func (*Registration) Kind() accountDomain.RequestKind { return accountDomain.CreateUser }
func (*Registration) payload()                        {}

// LoginAttempt is a plaintext login waiting to be sealed and sent.
type LoginAttempt struct {
	Email    string
	Password string
}

// Kind returns Login.
func (*LoginAttempt) Kind() accountDomain.RequestKind { return accountDomain.Login }
func (*LoginAttempt) payload()                        {}

// Response is a server result routed to the response handler. Implemented by
// KeyResponse, ReplyResponse and ProfileResponse only.
type Response interface {
	response()
}

// KeyResponse carries an announced server public key.
type KeyResponse struct {
	Key string
}

// ReplyResponse carries a plaintext server message.
type ReplyResponse struct {
	Message string
}

// ProfileResponse carries a profile sealed under the client key.
type ProfileResponse struct {
	Name  string
	Email string
}

func (KeyResponse) response()     {}
func (ReplyResponse) response()   {}
func (ProfileResponse) response() {}

// User is the identity of the last successful login.
type User struct {
	Name       string
	Email      string
	LoggedInAt time.Time
}

// Notifier receives user-facing messages from the loop.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Notify calls f(message).
func (f NotifierFunc) Notify(message string) {
	f(message)
}
