// Package observability aggregates client-side counters for the telemetry
// worker: message throughput, reconnects and history appends.
package observability

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	MessagesReplayed uint64 `json:"messages_replayed"`
	HistoryAppends   uint64 `json:"history_appends"`
	Reconnects       uint64 `json:"reconnects"`
}

// Monitor collects counters from the workers. All methods are safe for
// concurrent use; the fields are only ever touched atomically.
type Monitor struct {
	log *slog.Logger

	messagesReceived uint64
	messagesSent     uint64
	messagesReplayed uint64
	historyAppends   uint64
	reconnects       uint64

	StartedAt time.Time
}

func NewMonitor(log *slog.Logger) *Monitor {
	return &Monitor{log: log, StartedAt: time.Now().UTC()}
}

func (m *Monitor) IncrReceived() {
	atomic.AddUint64(&m.messagesReceived, 1)
}

func (m *Monitor) IncrSent() {
	atomic.AddUint64(&m.messagesSent, 1)
}

func (m *Monitor) IncrReplayed() {
	atomic.AddUint64(&m.messagesReplayed, 1)
}

func (m *Monitor) IncrHistoryAppends() {
	atomic.AddUint64(&m.historyAppends, 1)
}

func (m *Monitor) IncrReconnects() {
	atomic.AddUint64(&m.reconnects, 1)
}

func (m *Monitor) Snapshot() Snapshot {
	return Snapshot{
		MessagesReceived: atomic.LoadUint64(&m.messagesReceived),
		MessagesSent:     atomic.LoadUint64(&m.messagesSent),
		MessagesReplayed: atomic.LoadUint64(&m.messagesReplayed),
		HistoryAppends:   atomic.LoadUint64(&m.historyAppends),
		Reconnects:       atomic.LoadUint64(&m.reconnects),
	}
}
