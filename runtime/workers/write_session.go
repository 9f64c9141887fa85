package workers

import (
	"context"
	"log/slog"

	"minechat/contract"
	"minechat/domain"
	"minechat/observability"
	"minechat/pipeline"
	"minechat/protocol"
	"minechat/retry"
	"minechat/status"
)

// WriteSessionWorker owns the authenticated chat connection. It authorizes
// with the configured token on every (re)connect, then drains the outbound
// queue, one acknowledged exchange per message line.
//
// A rejected token is terminal: the worker reports a failure event and
// returns, and the supervisor will not restart it.
type WriteSessionWorker struct {
	log      *slog.Logger
	dialer   contract.Dialer
	address  string
	token    string
	proto    protocol.Client
	policy   *retry.Policy
	outbound *pipeline.Queue[string]
	notifier *status.Notifier
	monitor  *observability.Monitor

	wasConnected bool
}

func NewWriteSessionWorker(
	log *slog.Logger,
	dialer contract.Dialer,
	address string,
	token string,
	proto protocol.Client,
	policy *retry.Policy,
	outbound *pipeline.Queue[string],
	notifier *status.Notifier,
	monitor *observability.Monitor,
) *WriteSessionWorker {
	return &WriteSessionWorker{
		log:      log,
		dialer:   dialer,
		address:  address,
		token:    token,
		proto:    proto,
		policy:   policy,
		outbound: outbound,
		notifier: notifier,
		monitor:  monitor,
	}
}

func (w *WriteSessionWorker) Run(ctx context.Context) error {
	err := w.policy.Do(ctx, w.pump)
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		w.notifier.NotifyFailure(domain.WriteSession, err.Error())
	}
	return err
}

func (w *WriteSessionWorker) pump(ctx context.Context) error {
	w.notifier.Notify(domain.WriteSession, domain.StateInitiated)

	t, err := w.dialer.Dial(ctx, w.address)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = t.Close() })
	defer stop()
	defer func() {
		_ = t.Close()
		w.notifier.Notify(domain.WriteSession, domain.StateClosed)
	}()

	creds, err := w.proto.Authorize(t, w.token)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	w.notifier.Notify(domain.WriteSession, domain.StateEstablished)
	w.policy.Reset()
	if w.wasConnected {
		w.monitor.IncrReconnects()
	}
	w.wasConnected = true
	w.log.Info("Write session established", "address", w.address, "nickname", creds.Nickname)

	for {
		message, err := w.outbound.Pop(ctx)
		if err != nil {
			return ctx.Err()
		}
		if err := w.proto.Send(t, message); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		w.monitor.IncrSent()
	}
}
