package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"minechat/pipeline"
	"minechat/storage"
)

// ArchiveWorker drains its own fan-out queue into the indexed archive so
// the viewer can browse and search history offline. Archive failures are
// logged and skipped; the plain-text history file remains the durable log.
type ArchiveWorker struct {
	log        *slog.Logger
	queue      *pipeline.Queue[string]
	repository storage.IArchiveRepository
}

func NewArchiveWorker(
	log *slog.Logger,
	queue *pipeline.Queue[string],
	repository storage.IArchiveRepository,
) *ArchiveWorker {
	return &ArchiveWorker{log: log, queue: queue, repository: repository}
}

func (w *ArchiveWorker) Run(ctx context.Context) error {
	for {
		line, err := w.queue.Pop(ctx)
		if err != nil {
			w.log.Debug("Context done, stopping archive drain")
			return nil
		}
		message := storage.ArchivedMessage{
			ID:   uuid.New(),
			Text: line,
			At:   time.Now().UTC(),
		}
		if err := w.repository.Store(message); err != nil {
			w.log.Error("Archive store failed", "error", err)
		}
	}
}
