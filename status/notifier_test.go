package status

import (
	"context"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"minechat/domain"
)

func TestNotifier_EventsComeOutInEmissionOrder(t *testing.T) {
	req := require.New(t)
	notifier := NewNotifier(logs.GetLoggerFromLevel(slog.LevelDebug))
	ctx := context.Background()

	notifier.Notify(domain.ReadSession, domain.StateInitiated)
	notifier.Notify(domain.ReadSession, domain.StateEstablished)
	notifier.NotifyFailure(domain.WriteSession, "invalid token")

	evt, err := notifier.Next(ctx)
	req.NoError(err)
	req.Equal(domain.ReadSession, evt.Role)
	req.Equal(domain.StateInitiated, evt.State)
	req.Empty(evt.Reason)
	req.False(evt.At.IsZero())

	evt, err = notifier.Next(ctx)
	req.NoError(err)
	req.Equal(domain.StateEstablished, evt.State)

	evt, err = notifier.Next(ctx)
	req.NoError(err)
	req.Equal(domain.WriteSession, evt.Role)
	req.Equal(domain.StateFailed, evt.State)
	req.Equal("invalid token", evt.Reason)

	req.Equal(0, notifier.Len())
}
