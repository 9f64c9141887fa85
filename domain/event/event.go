package event

import (
	"time"

	"minechat/domain"
)

// ConnectionEvent tracks the lifecycle of one chat session.
// Emitted by the session workers, consumed by the presentation layer.
type ConnectionEvent struct {
	Role  domain.SessionRole
	State domain.SessionState
	At    time.Time
	// Reason carries the failure message for StateFailed, empty otherwise.
	Reason string
}
