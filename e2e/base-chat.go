package e2e

import (
	"context"
	"log/slog"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

// BaseChatSuite boots one scripted chat server for the whole suite and
// exposes it to every scenario.
type BaseChatSuite struct {
	suite.Suite
	Config Config
	Log    *slog.Logger
	Server *chatServer
}

func (s *BaseChatSuite) SetupSuite() {
	cfg, err := LoadConfig()
	s.Require().NoError(err, "Failed to load e2e configuration")
	s.Config = cfg
	s.Log = logs.GetLoggerFromString(cfg.LogLevel)

	server, err := startChatServer(s.Log, cfg.ValidToken, cfg.Nickname)
	s.Require().NoError(err, "Failed to start the scripted chat server")
	s.Server = server
}

func (s *BaseChatSuite) TearDownSuite() {
	if s.Server != nil {
		s.Server.Stop()
	}
}

// stepContext bounds one blocking wait inside a scenario step.
func (s *BaseChatSuite) stepContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.Config.StepTimeout)
}
