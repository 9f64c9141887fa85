package protocol

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	apperrors "minechat/errors"
	"minechat/mocks"
)

func newClient() Client {
	return NewClient(logs.GetLoggerFromLevel(slog.LevelDebug))
}

func TestClient_Register(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockLineTransport(ctrl)

	// Given a server that prompts, then replies with fresh credentials
	gomock.InOrder(
		transport.EXPECT().WriteLine("").Return(nil),
		transport.EXPECT().ReadLine().Return("Hello! Enter your nickname.", nil),
		transport.EXPECT().WriteLine("Ranger").Return(nil),
		transport.EXPECT().ReadLine().Return(`{"nickname": "Ranger", "account_hash": "abc-123"}`, nil),
	)

	creds, err := newClient().Register(transport, "Ranger")
	req.NoError(err)
	req.Equal("Ranger", creds.Nickname)
	req.Equal("abc-123", creds.AccountHash)
}

func TestClient_Register_NewlinesBecomeSpaces(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockLineTransport(ctrl)

	gomock.InOrder(
		transport.EXPECT().WriteLine("").Return(nil),
		transport.EXPECT().ReadLine().Return("prompt", nil),
		transport.EXPECT().WriteLine("Evil Nick").Return(nil),
		transport.EXPECT().ReadLine().Return(`{"nickname": "Evil Nick", "account_hash": "h"}`, nil),
	)

	_, err := newClient().Register(transport, "Evil\nNick")
	req.NoError(err)
}

func TestClient_Register_NullReplyIsMalformed(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockLineTransport(ctrl)

	gomock.InOrder(
		transport.EXPECT().WriteLine("").Return(nil),
		transport.EXPECT().ReadLine().Return("prompt", nil),
		transport.EXPECT().WriteLine("Ranger").Return(nil),
		transport.EXPECT().ReadLine().Return("null", nil),
	)

	_, err := newClient().Register(transport, "Ranger")
	req.ErrorIs(err, apperrors.ErrMalformedReply)
}

func TestClient_Authorize(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockLineTransport(ctrl)

	// Given a prompt, a credentials record and a welcome line
	gomock.InOrder(
		transport.EXPECT().ReadLine().Return("Hello! Enter your token.", nil),
		transport.EXPECT().WriteLine("token-xyz").Return(nil),
		transport.EXPECT().ReadLine().Return(`{"nickname": "Ranger", "account_hash": "token-xyz"}`, nil),
		transport.EXPECT().ReadLine().Return("Welcome to chat! Post your message below.", nil),
	)

	creds, err := newClient().Authorize(transport, "token-xyz")
	req.NoError(err)
	req.Equal("Ranger", creds.Nickname)
}

func TestClient_Authorize_InvalidToken(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockLineTransport(ctrl)

	// Given a server rejecting the token with a literal null
	gomock.InOrder(
		transport.EXPECT().ReadLine().Return("prompt", nil),
		transport.EXPECT().WriteLine("bad-token").Return(nil),
		transport.EXPECT().ReadLine().Return("null", nil),
	)

	_, err := newClient().Authorize(transport, "bad-token")
	req.ErrorIs(err, apperrors.ErrInvalidToken)
}

func TestClient_Authorize_GarbageReplyIsMalformed(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockLineTransport(ctrl)

	gomock.InOrder(
		transport.EXPECT().ReadLine().Return("prompt", nil),
		transport.EXPECT().WriteLine("token").Return(nil),
		transport.EXPECT().ReadLine().Return("not json at all", nil),
	)

	_, err := newClient().Authorize(transport, "token")
	req.ErrorIs(err, apperrors.ErrMalformedReply)
}

func TestClient_Send_SingleLine(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockLineTransport(ctrl)

	gomock.InOrder(
		transport.EXPECT().WriteLine("hello").Return(nil),
		transport.EXPECT().WriteLine("").Return(nil),
		transport.EXPECT().ReadLine().Return("Message send. Write more, when you want!", nil),
	)

	req.NoError(newClient().Send(transport, "hello"))
}

func TestClient_Send_MultilineSplitsIntoExchanges(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockLineTransport(ctrl)

	// Given a two line message, each line is its own exchange and the
	// acknowledgment is read before the next line goes out.
	gomock.InOrder(
		transport.EXPECT().WriteLine("first").Return(nil),
		transport.EXPECT().WriteLine("").Return(nil),
		transport.EXPECT().ReadLine().Return("ack", nil),
		transport.EXPECT().WriteLine("second").Return(nil),
		transport.EXPECT().WriteLine("").Return(nil),
		transport.EXPECT().ReadLine().Return("ack", nil),
	)

	req.NoError(newClient().Send(transport, "first\nsecond"))
}
