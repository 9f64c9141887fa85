package workers

import (
	"context"
	"log/slog"

	"minechat/observability"
	"minechat/pipeline"
	"minechat/storage"
)

// ReplayWorker loads the persisted history into the display staging queue
// once at startup, in file order, then finishes. Replayed lines bypass the
// history queue: they came from the history file in the first place.
type ReplayWorker struct {
	log     *slog.Logger
	store   storage.IHistoryStore
	inbound *pipeline.Queue[string]
	monitor *observability.Monitor
}

func NewReplayWorker(
	log *slog.Logger,
	store storage.IHistoryStore,
	inbound *pipeline.Queue[string],
	monitor *observability.Monitor,
) *ReplayWorker {
	return &ReplayWorker{log: log, store: store, inbound: inbound, monitor: monitor}
}

func (w *ReplayWorker) Run(ctx context.Context) error {
	lines, err := w.store.ReadAll()
	if err != nil {
		// No prior history is a normal first run, and an unreadable file
		// must not take the client down.
		w.log.Warn("History unavailable, starting empty", "error", err)
		return nil
	}
	for _, line := range lines {
		if ctx.Err() != nil {
			return nil
		}
		w.inbound.Push(line)
		w.monitor.IncrReplayed()
	}
	w.log.Info("History replayed", "lines", len(lines))
	return nil
}
