// Package status exposes session lifecycle changes to the presentation
// layer as an ordered, queue-backed stream.
package status

import (
	"context"
	"log/slog"
	"time"

	"minechat/domain"
	"minechat/domain/event"
	"minechat/pipeline"
)

// Notifier is a pure sink for connection events. Per session, events come
// out in emission order; there is no cross-session ordering guarantee.
type Notifier struct {
	log    *slog.Logger
	events *pipeline.Queue[event.ConnectionEvent]
}

func NewNotifier(log *slog.Logger) *Notifier {
	return &Notifier{log: log, events: pipeline.NewQueue[event.ConnectionEvent]()}
}

func (n *Notifier) Notify(role domain.SessionRole, state domain.SessionState) {
	n.push(role, state, "")
}

// NotifyFailure reports a terminal session failure with a user-visible reason.
func (n *Notifier) NotifyFailure(role domain.SessionRole, reason string) {
	n.push(role, domain.StateFailed, reason)
}

// Next blocks until the next lifecycle event or cancellation.
func (n *Notifier) Next(ctx context.Context) (event.ConnectionEvent, error) {
	return n.events.Pop(ctx)
}

func (n *Notifier) Len() int {
	return n.events.Len()
}

func (n *Notifier) push(role domain.SessionRole, state domain.SessionState, reason string) {
	n.log.Debug("Connection state changed", "role", role, "state", state)
	n.events.Push(event.ConnectionEvent{
		Role:   role,
		State:  state,
		At:     time.Now().UTC(),
		Reason: reason,
	})
}
