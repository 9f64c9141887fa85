package workers

import (
	"context"
	"log/slog"

	"minechat/contract"
	"minechat/domain"
	"minechat/observability"
	"minechat/pipeline"
	"minechat/retry"
	"minechat/status"
)

// ReadSessionWorker owns the read-only chat connection. Every inbound line
// fans out to the display staging queue and the history queue, in that
// order. The transport is replaced across reconnects; the queues survive.
type ReadSessionWorker struct {
	log      *slog.Logger
	dialer   contract.Dialer
	address  string
	policy   *retry.Policy
	inbound  *pipeline.Queue[string]
	history  *pipeline.Queue[string]
	archive  *pipeline.Queue[string] // nil when archiving is disabled
	notifier *status.Notifier
	monitor  *observability.Monitor

	wasConnected bool
}

func NewReadSessionWorker(
	log *slog.Logger,
	dialer contract.Dialer,
	address string,
	policy *retry.Policy,
	inbound, history, archive *pipeline.Queue[string],
	notifier *status.Notifier,
	monitor *observability.Monitor,
) *ReadSessionWorker {
	return &ReadSessionWorker{
		log:      log,
		dialer:   dialer,
		address:  address,
		policy:   policy,
		inbound:  inbound,
		history:  history,
		archive:  archive,
		notifier: notifier,
		monitor:  monitor,
	}
}

func (w *ReadSessionWorker) Run(ctx context.Context) error {
	err := w.policy.Do(ctx, w.pump)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// pump performs one connection attempt: dial, then read until the server
// closes or the context is cancelled. Any returned error goes back to the
// retry policy for classification.
func (w *ReadSessionWorker) pump(ctx context.Context) error {
	w.notifier.Notify(domain.ReadSession, domain.StateInitiated)

	t, err := w.dialer.Dial(ctx, w.address)
	if err != nil {
		return err
	}
	// Cancellation unblocks the pending ReadLine by closing the socket.
	stop := context.AfterFunc(ctx, func() { _ = t.Close() })
	defer stop()
	defer func() {
		_ = t.Close()
		w.notifier.Notify(domain.ReadSession, domain.StateClosed)
	}()

	w.notifier.Notify(domain.ReadSession, domain.StateEstablished)
	w.policy.Reset()
	if w.wasConnected {
		w.monitor.IncrReconnects()
	}
	w.wasConnected = true
	w.log.Info("Read session established", "address", w.address)

	for {
		line, err := t.ReadLine()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		w.inbound.Push(line)
		w.history.Push(line)
		if w.archive != nil {
			w.archive.Push(line)
		}
		w.monitor.IncrReceived()
	}
}
