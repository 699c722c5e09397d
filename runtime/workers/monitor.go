package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"chat-hub/observability"

	"github.com/shirou/gopsutil/process"
)

// MonitorWorker periodically logs engine gauges (connections, rooms,
// sessions, broadcast counters) together with self process stats.
type MonitorWorker struct {
	log      *slog.Logger
	stats    *observability.Stats
	interval time.Duration
}

func NewMonitorWorker(log *slog.Logger, stats *observability.Stats, interval time.Duration) *MonitorWorker {
	return &MonitorWorker{log: log, stats: stats, interval: interval}
}

func (w *MonitorWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			snap := w.stats.Snapshot()
			w.log.Info("engine stats",
				"connections", snap.Connections,
				"rooms", snap.Rooms,
				"sessions", snap.Sessions,
				"broadcasts", snap.Broadcasts,
				"dropped_events", snap.DroppedEvents,
				"auth_ok", snap.AuthSuccesses,
				"auth_ko", snap.AuthFailures,
				"messages", snap.StoredMessages,
				"rss_bytes", rss,
				"cpu_percent", cpu,
			)
		}
	}
}

// selfStats retrieves memory and CPU usage for the given process.
func selfStats(p *process.Process) (uint64, float64, error) {
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
