package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"moodmatch/contract"
	"moodmatch/observability"
)

var _ contract.Worker = (*TelemetryWorker)(nil)

// TelemetryWorker periodically logs a matchmaking snapshot together with
// the process's own CPU and memory usage.
type TelemetryWorker struct {
	log      *slog.Logger
	stats    *observability.StatsManager
	interval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, stats *observability.StatsManager,
	interval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{log: log, stats: stats, interval: interval}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	w.log.Info("Starting telemetry worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping telemetry worker")
			return nil
		case <-ticker.C:
			rss, cpu, err := selfStats(proc)
			if err != nil {
				w.log.Error("Failed to collect self stats", "error", err)
				continue
			}
			snapshot := w.stats.Snapshot()
			w.log.Info("Telemetry",
				"open_connections", snapshot.OpenConnections,
				"waiting", snapshot.Waiting,
				"active_rooms", snapshot.ActiveRooms,
				"matches_made", snapshot.MatchesMade,
				"messages_relayed", snapshot.MessagesRelayed,
				"messages_dropped", snapshot.MessagesDropped,
				"messages_censored", snapshot.MessagesCensored,
				"guest_sessions", snapshot.GuestSessions,
				"rss_mb", rss/1024/1024,
				"cpu_percent", cpu)
		}
	}
}

// selfStats retrieves memory and CPU usage for this process.
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
