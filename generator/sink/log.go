package sink

import (
	"context"
	"log/slog"

	"github.com/yaron8/dashboard-feed/dashboard"
)

type LogSink struct {
	logger *slog.Logger
	level  slog.Level
}

func NewLogSink(logger *slog.Logger, level slog.Level) *LogSink {
	return &LogSink{logger: logger, level: level}
}

func (ls *LogSink) Publish(ctx context.Context, snap dashboard.Snapshot) error {
	// No logging on hot path unless the level is enabled
	if !ls.logger.Enabled(ctx, ls.level) {
		return nil
	}

	ls.logger.Log(ctx, ls.level, "snapshot published",
		"run_id", snap.RunID,
		"seq", snap.Seq,
		"active_users", snap.Metrics.ActiveUsers,
		"revenue", snap.Metrics.Revenue,
		"conversions", snap.Metrics.Conversions,
		"avg_response_time", snap.Metrics.AvgResponseTime,
		"series_points", len(snap.TimeSeries),
		"devices", len(snap.Devices),
		"connected", snap.Connected,
		"last_update", snap.LastUpdate,
	)
	return nil
}
