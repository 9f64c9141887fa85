package workers

import (
	"context"
	"log/slog"

	"github.com/abadojack/whatlanggo"

	"minechat/moderation"
	"minechat/pipeline"
)

// ModerationWorker sits between the inbound staging queue and the display
// queue. Both live traffic and replayed history flow through it, so the
// display output is uniform. With no censored words configured it is a
// plain pass-through.
type ModerationWorker struct {
	log       *slog.Logger
	moderator moderation.Moderator
	inbound   *pipeline.Queue[string]
	display   *pipeline.Queue[string]
}

func NewModerationWorker(
	log *slog.Logger,
	moderator moderation.Moderator,
	inbound, display *pipeline.Queue[string],
) *ModerationWorker {
	return &ModerationWorker{log: log, moderator: moderator, inbound: inbound, display: display}
}

func (w *ModerationWorker) Run(ctx context.Context) error {
	for {
		line, err := w.inbound.Pop(ctx)
		if err != nil {
			w.log.Debug("Context done, stopping moderation")
			return nil
		}

		censored, found := w.moderator.Censor(line)
		if len(found) > 0 {
			w.log.Warn("Censored inbound message", "patterns", found)
		}
		if w.log.Enabled(ctx, slog.LevelDebug) {
			info := whatlanggo.Detect(line)
			w.log.Debug("Inbound message", "lang", info.Lang.Iso6391())
		}

		w.display.Push(censored)
	}
}
