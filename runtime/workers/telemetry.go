package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"minechat/observability"
)

// NamedQueue lets the telemetry worker sample a queue depth without knowing
// the queue's element type.
type NamedQueue struct {
	Name string
	Len  func() int
}

// TelemetryWorker periodically logs queue depths, counter snapshots and the
// client's own memory/CPU usage. Reading a queue length is non-blocking, so
// sampling never interferes with the pipeline.
type TelemetryWorker struct {
	log      *slog.Logger
	monitor  *observability.Monitor
	queues   []NamedQueue
	interval time.Duration
}

func NewTelemetryWorker(
	log *slog.Logger,
	monitor *observability.Monitor,
	queues []NamedQueue,
	interval time.Duration,
) *TelemetryWorker {
	return &TelemetryWorker{log: log, monitor: monitor, queues: queues, interval: interval}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping telemetry")
			return nil
		case <-ticker.C:
			snapshot := w.monitor.Snapshot()
			attrs := []any{
				"received", snapshot.MessagesReceived,
				"sent", snapshot.MessagesSent,
				"replayed", snapshot.MessagesReplayed,
				"appends", snapshot.HistoryAppends,
				"reconnects", snapshot.Reconnects,
			}
			for _, q := range w.queues {
				attrs = append(attrs, "queue_"+q.Name, q.Len())
			}
			if rss, cpu, err := getSelfStats(p); err == nil {
				attrs = append(attrs, "rss_bytes", rss, "cpu_percent", cpu)
			}
			w.log.Debug("Client telemetry", attrs...)
		}
	}
}

// getSelfStats retrieves memory and CPU metrics for the given process.
func getSelfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
