package workers

import (
	"context"
	"log/slog"

	"minechat/observability"
	"minechat/pipeline"
	"minechat/storage"
)

// PersistenceWorker is the single consumer of the history queue. Each item
// is appended to the history file in its own open/write/close cycle. The
// worker only exits on cancellation.
type PersistenceWorker struct {
	log     *slog.Logger
	queue   *pipeline.Queue[string]
	store   storage.IHistoryStore
	monitor *observability.Monitor
}

func NewPersistenceWorker(
	log *slog.Logger,
	queue *pipeline.Queue[string],
	store storage.IHistoryStore,
	monitor *observability.Monitor,
) *PersistenceWorker {
	return &PersistenceWorker{log: log, queue: queue, store: store, monitor: monitor}
}

func (w *PersistenceWorker) Run(ctx context.Context) error {
	for {
		line, err := w.queue.Pop(ctx)
		if err != nil {
			w.log.Debug("Context done, stopping history drain")
			return nil
		}
		if err := w.store.Append(line); err != nil {
			// The message is gone; log it and keep draining.
			w.log.Error("History append failed", "error", err)
			continue
		}
		w.monitor.IncrHistoryAppends()
	}
}
