package domain

// Credentials are issued by the chat once, on registration.
// The token is opaque; the server calls it an account hash.
type Credentials struct {
	Nickname    string `json:"nickname"`
	AccountHash string `json:"account_hash"`
}

type SessionRole string

const (
	ReadSession  SessionRole = "READ"
	WriteSession SessionRole = "WRITE"
)

type SessionState string

const (
	StateInitiated   SessionState = "INITIATED"
	StateEstablished SessionState = "ESTABLISHED"
	StateClosed      SessionState = "CLOSED"
	StateFailed      SessionState = "FAILED"
)
