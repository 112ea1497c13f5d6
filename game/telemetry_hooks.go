package game

import (
	"log/slog"

	"github.com/pthm-cable/evolution/restart"
	"github.com/pthm-cable/evolution/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	tick := g.world.Time()
	if !g.collector.ShouldFlush(tick) {
		return
	}

	stats := g.collector.Flush(tick, telemetry.SamplePopulation(g.world))
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}
}

// logChecksum logs the state checksum every checksumEvery ticks.
func (g *Game) logChecksum() {
	tick := g.world.Time()
	if g.checksumEvery == 0 || tick%g.checksumEvery != 0 {
		return
	}
	slog.Info("checksum",
		"tick", tick,
		"sha256", restart.FormatChecksum(g.world.Checksum()),
	)
}
