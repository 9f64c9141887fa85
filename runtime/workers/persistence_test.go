package workers

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"minechat/mocks"
	"minechat/observability"
	"minechat/pipeline"
)

func TestPersistenceWorker_AppendsInOrder(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	queue := pipeline.NewQueue[string]()
	monitor := observability.NewMonitor(log)
	store := mocks.NewMockIHistoryStore(ctrl)

	done := make(chan struct{})
	gomock.InOrder(
		store.EXPECT().Append("first").Return(nil),
		store.EXPECT().Append("second").DoAndReturn(func(string) error {
			close(done)
			return nil
		}),
	)

	queue.Push("first")
	queue.Push("second")

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		_ = NewPersistenceWorker(log, queue, store, monitor).Run(ctx)
		close(finished)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		req.Fail("history appends did not happen")
	}
	cancel()
	<-finished

	req.Equal(uint64(2), monitor.Snapshot().HistoryAppends)
}

func TestPersistenceWorker_KeepsDrainingAfterAppendFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	queue := pipeline.NewQueue[string]()
	monitor := observability.NewMonitor(log)
	store := mocks.NewMockIHistoryStore(ctrl)

	// Given the first append fails
	done := make(chan struct{})
	gomock.InOrder(
		store.EXPECT().Append("doomed").Return(fmt.Errorf("disk full")),
		store.EXPECT().Append("survivor").DoAndReturn(func(string) error {
			close(done)
			return nil
		}),
	)

	queue.Push("doomed")
	queue.Push("survivor")

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		_ = NewPersistenceWorker(log, queue, store, monitor).Run(ctx)
		close(finished)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		req.Fail("worker stopped draining after a failed append")
	}
	cancel()
	<-finished

	// Then only the successful append is counted
	req.Equal(uint64(1), monitor.Snapshot().HistoryAppends)
}
