package workers

import (
	"context"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"minechat/moderation"
	"minechat/pipeline"
)

func TestModerationWorker_CensorsInFlight(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	inbound := pipeline.NewQueue[string]()
	display := pipeline.NewQueue[string]()

	moderator, err := moderation.NewModerator([]string{"badger"}, '*', log)
	req.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		_ = NewModerationWorker(log, moderator, inbound, display).Run(ctx)
		close(finished)
	}()

	inbound.Push("a badger appears")
	inbound.Push("nothing to see")

	item, err := display.Pop(ctx)
	req.NoError(err)
	req.Equal("a ****** appears", item)

	item, err = display.Pop(ctx)
	req.NoError(err)
	req.Equal("nothing to see", item)

	cancel()
	<-finished
}

func TestModerationWorker_PassThroughWithoutDictionary(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	inbound := pipeline.NewQueue[string]()
	display := pipeline.NewQueue[string]()

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		var passthrough moderation.Moderator
		_ = NewModerationWorker(log, passthrough, inbound, display).Run(ctx)
		close(finished)
	}()

	inbound.Push("[2026.08.30 13:45] raw history line")

	item, err := display.Pop(ctx)
	req.NoError(err)
	req.Equal("[2026.08.30 13:45] raw history line", item)

	cancel()
	<-finished
}
