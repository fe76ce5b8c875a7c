package domain

// RequestKind identifies an auth service operation. It drives both server
// routing and client dispatch.
type RequestKind int

// Request kinds, in protocol order.
const (
	Idle RequestKind = iota
	GetKey
	Heartbeat
	CreateUser
	Login
)

var requestKindNames = map[RequestKind]string{
	Idle:       "Idle",
	GetKey:     "GetKey",
	Heartbeat:  "Heartbeat",
	CreateUser: "CreateUser",
	Login:      "Login",
}

// String returns the operation name.
func (k RequestKind) String() string {
	if name, ok := requestKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// RequiresPayload reports whether the kind carries encrypted user data and can
// only be queued together with its payload.
func (k RequestKind) RequiresPayload() bool {
	return k == CreateUser || k == Login
}

// RequestKinds lists every non-idle kind.
func RequestKinds() []RequestKind {
	return []RequestKind{GetKey, Heartbeat, CreateUser, Login}
}
