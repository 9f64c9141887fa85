package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"minechat/contract"
	"minechat/moderation"
	"minechat/observability"
	"minechat/pipeline"
	"minechat/protocol"
	"minechat/retry"
	"minechat/runtime/workers"
	"minechat/status"
	"minechat/storage"
)

// Options carries everything the orchestrator needs to assemble a client.
// Configuration is loaded once at process start and never mutated.
type Options struct {
	ReadAddress  string
	WriteAddress string
	Token        string

	Dialer  contract.Dialer
	History storage.IHistoryStore
	// Archive enables the indexed message archive when non-nil.
	Archive   storage.IArchiveRepository
	Moderator moderation.Moderator

	RetryInterval time.Duration
	// TelemetryInterval enables the telemetry worker when positive.
	TelemetryInterval time.Duration
}

// Orchestrator wires the queues, sessions and drain workers together and
// runs them under one supervisor. The exported queues are the seam to the
// presentation layer: it drains Display and Status and fills Outbound.
type Orchestrator struct {
	log  *slog.Logger
	sup  *Supervisor
	opts Options

	Display  *pipeline.Queue[string]
	Outbound *pipeline.Queue[string]
	Status   *status.Notifier
	Monitor  *observability.Monitor

	inbound *pipeline.Queue[string]
	history *pipeline.Queue[string]
	archive *pipeline.Queue[string]
	done    chan struct{}
}

func NewOrchestrator(log *slog.Logger, sup *Supervisor, opts Options) *Orchestrator {
	o := &Orchestrator{
		log:      log,
		sup:      sup,
		opts:     opts,
		Display:  pipeline.NewQueue[string](),
		Outbound: pipeline.NewQueue[string](),
		Status:   status.NewNotifier(log),
		Monitor:  observability.NewMonitor(log),
		inbound:  pipeline.NewQueue[string](),
		history:  pipeline.NewQueue[string](),
		done:     make(chan struct{}),
	}
	if opts.Archive != nil {
		o.archive = pipeline.NewQueue[string]()
	}
	return o
}

// Start launches every worker and returns immediately. The workers stop
// when ctx is cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) error {
	if o.opts.ReadAddress == "" || o.opts.WriteAddress == "" {
		return fmt.Errorf("orchestrator: both chat addresses are required")
	}
	if o.opts.Dialer == nil || o.opts.History == nil {
		return fmt.Errorf("orchestrator: dialer and history store are required")
	}

	proto := protocol.NewClient(o.log)

	o.sup.Add(
		workers.NewReadSessionWorker(
			o.log, o.opts.Dialer, o.opts.ReadAddress,
			retry.NewPolicy(o.log, o.opts.RetryInterval),
			o.inbound, o.history, o.archive,
			o.Status, o.Monitor,
		),
		workers.NewWriteSessionWorker(
			o.log, o.opts.Dialer, o.opts.WriteAddress, o.opts.Token, proto,
			retry.NewPolicy(o.log, o.opts.RetryInterval),
			o.Outbound, o.Status, o.Monitor,
		),
		workers.NewModerationWorker(o.log, o.opts.Moderator, o.inbound, o.Display),
		workers.NewPersistenceWorker(o.log, o.history, o.opts.History, o.Monitor),
		workers.NewReplayWorker(o.log, o.opts.History, o.inbound, o.Monitor),
	)

	if o.archive != nil {
		o.sup.Add(workers.NewArchiveWorker(o.log, o.archive, o.opts.Archive))
	}
	if o.opts.TelemetryInterval > 0 {
		queues := []workers.NamedQueue{
			{Name: "display", Len: o.Display.Len},
			{Name: "history", Len: o.history.Len},
			{Name: "outbound", Len: o.Outbound.Len},
		}
		o.sup.Add(workers.NewTelemetryWorker(o.log, o.Monitor, queues, o.opts.TelemetryInterval))
	}

	go func() {
		o.sup.Run(ctx)
		close(o.done)
	}()
	o.log.Info("Chat client started",
		"read_address", o.opts.ReadAddress, "write_address", o.opts.WriteAddress)
	return nil
}

// Stop cancels every worker and waits for them to finish.
func (o *Orchestrator) Stop() {
	o.sup.Stop()
	<-o.done
}

// Done closes once every worker has exited.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.done
}
