package e2e

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"minechat/domain"
	"minechat/runtime"
	"minechat/storage"
	"minechat/transport"
)

type testChatClientSuite struct {
	BaseChatSuite
}

func TestChatClientSuite(t *testing.T) {
	suite.Run(t, &testChatClientSuite{})
}

func (s *testChatClientSuite) startClient(token, historyPath string) *runtime.Orchestrator {
	sup := runtime.NewSupervisor(s.Log, 50*time.Millisecond)
	orchestrator := runtime.NewOrchestrator(s.Log, sup, runtime.Options{
		ReadAddress:   s.Server.ReadAddress(),
		WriteAddress:  s.Server.WriteAddress(),
		Token:         token,
		Dialer:        transport.NetDialer{},
		History:       storage.NewHistoryStore(historyPath, s.Log),
		RetryInterval: 100 * time.Millisecond,
	})

	// The supervisor owns its own cancellation; Stop tears the client down.
	s.Require().NoError(orchestrator.Start(context.Background()))
	return orchestrator
}

func (s *testChatClientSuite) popDisplay(orchestrator *runtime.Orchestrator) string {
	ctx, cancel := s.stepContext()
	defer cancel()
	line, err := orchestrator.Display.Pop(ctx)
	s.Require().NoError(err, "No display line arrived within the step timeout")
	return line
}

func (s *testChatClientSuite) waitDelivered(expected string) {
	select {
	case message := <-s.Server.Delivered():
		s.Require().Equal(expected, message)
	case <-time.After(s.Config.StepTimeout):
		s.FailNowf("Message never reached the server", "expected: %s", expected)
	}
}

func (s *testChatClientSuite) TestFullChatFlow() {
	historyPath := filepath.Join(s.T().TempDir(), "chat.history")
	seeded := "[2026.08.30 10:00] seeded one\n[2026.08.30 10:01] seeded two\n"
	s.Require().NoError(os.WriteFile(historyPath, []byte(seeded), 0o644))

	orchestrator := s.startClient(s.Config.ValidToken, historyPath)
	defer orchestrator.Stop()

	s.Run("Step 1: Persisted history is replayed before live traffic", func() {
		s.Require().Equal("[2026.08.30 10:00] seeded one", s.popDisplay(orchestrator))
		s.Require().Equal("[2026.08.30 10:01] seeded two", s.popDisplay(orchestrator))
	})

	s.Run("Step 2: Live messages reach the display and the history file", func() {
		s.Eventually(func() bool { return s.Server.ReaderCount() >= 1 },
			s.Config.StepTimeout, 10*time.Millisecond, "Read session never connected")

		s.Server.Broadcast("Ranger: hello from the lobby")
		s.Server.Broadcast("Anonymous: anyone here?")

		s.Require().Equal("Ranger: hello from the lobby", s.popDisplay(orchestrator))
		s.Require().Equal("Anonymous: anyone here?", s.popDisplay(orchestrator))

		history := storage.NewHistoryStore(historyPath, s.Log)
		s.Eventually(func() bool {
			lines, err := history.ReadAll()
			return err == nil && len(lines) == 4
		}, s.Config.StepTimeout, 10*time.Millisecond, "Live lines never hit the history file")
	})

	s.Run("Step 3: Outbound message is acknowledged by the server", func() {
		orchestrator.Outbound.Push("hello from the client")
		s.waitDelivered("hello from the client")
	})

	s.Run("Step 4: Multiline message becomes independent exchanges", func() {
		orchestrator.Outbound.Push("first half\nsecond half")
		s.waitDelivered("first half")
		s.waitDelivered("second half")
	})

	s.Run("Step 5: Read session survives a server-side drop", func() {
		s.Server.DropReaders()
		s.Eventually(func() bool { return s.Server.ReaderCount() >= 1 },
			s.Config.StepTimeout, 10*time.Millisecond, "Read session never reconnected")

		s.Server.Broadcast("Ranger: still with us?")
		s.Require().Equal("Ranger: still with us?", s.popDisplay(orchestrator))
		s.Require().GreaterOrEqual(orchestrator.Monitor.Snapshot().Reconnects, uint64(1))
	})
}

func (s *testChatClientSuite) TestRejectedTokenStopsWriteSession() {
	historyPath := filepath.Join(s.T().TempDir(), "chat.history")
	deliveredBefore := len(s.Server.Received())

	orchestrator := s.startClient("definitely-wrong-token", historyPath)
	defer orchestrator.Stop()

	// Given a queued message that must never be sent
	orchestrator.Outbound.Push("should never arrive")

	// Then the write session reports a terminal failure
	ctx, cancel := s.stepContext()
	defer cancel()
	for {
		evt, err := orchestrator.Status.Next(ctx)
		s.Require().NoError(err, "No failure event arrived within the step timeout")
		if evt.Role == domain.WriteSession && evt.State == domain.StateFailed {
			break
		}
	}

	// Then nothing was delivered on the write port
	s.Require().Len(s.Server.Received(), deliveredBefore)
	s.Require().Equal(1, orchestrator.Outbound.Len())
}
