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
	"minechat/pipeline"
	"minechat/storage"
)

func TestArchiveWorker_StoresEveryLine(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	queue := pipeline.NewQueue[string]()
	repository := mocks.NewMockIArchiveRepository(ctrl)

	done := make(chan struct{})
	var stored []storage.ArchivedMessage
	gomock.InOrder(
		repository.EXPECT().Store(gomock.Any()).DoAndReturn(func(m storage.ArchivedMessage) error {
			stored = append(stored, m)
			return nil
		}),
		repository.EXPECT().Store(gomock.Any()).DoAndReturn(func(m storage.ArchivedMessage) error {
			stored = append(stored, m)
			close(done)
			return nil
		}),
	)

	queue.Push("first line")
	queue.Push("second line")

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		_ = NewArchiveWorker(log, queue, repository).Run(ctx)
		close(finished)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		req.Fail("archive stores did not happen")
	}
	cancel()
	<-finished

	req.Equal("first line", stored[0].Text)
	req.Equal("second line", stored[1].Text)
	// Every archived message carries its own identity and timestamp.
	req.NotEqual(stored[0].ID, stored[1].ID)
	req.False(stored[0].At.IsZero())
}

func TestArchiveWorker_KeepsDrainingAfterStoreFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	queue := pipeline.NewQueue[string]()
	repository := mocks.NewMockIArchiveRepository(ctrl)

	done := make(chan struct{})
	gomock.InOrder(
		repository.EXPECT().Store(gomock.Any()).Return(fmt.Errorf("index closed")),
		repository.EXPECT().Store(gomock.Any()).DoAndReturn(func(storage.ArchivedMessage) error {
			close(done)
			return nil
		}),
	)

	queue.Push("doomed")
	queue.Push("survivor")

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		_ = NewArchiveWorker(log, queue, repository).Run(ctx)
		close(finished)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		req.Fail("worker stopped draining after a failed store")
	}
	cancel()
	<-finished
}
