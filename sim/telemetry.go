package sim

import (
	"log/slog"

	"github.com/mkessel/protoplasm/components"
	"github.com/mkessel/protoplasm/systems"
	"github.com/mkessel/protoplasm/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and
// handles bookmarks.
func (e *Engine) flushTelemetry() {
	if !e.collector.ShouldFlush(e.step) {
		return
	}

	census := e.sampleCensus()

	stats := e.collector.Flush(e.step, census)
	perfStats := e.perfCollector.Stats()

	// Call stats callback if provided
	if e.statsCallback != nil {
		e.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if e.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	// Write to CSV if output manager is enabled
	if e.outputManager != nil {
		if err := e.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := e.outputManager.WritePerf(perfStats, stats.WindowEnd); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	// Check for bookmarks
	bookmarks := e.bookmarkDetector.Check(stats)
	for _, bm := range bookmarks {
		if e.logStats {
			bm.LogBookmark()
		}

		if e.outputManager != nil {
			if err := e.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}

		// Save snapshot on bookmark
		if e.snapshotDir != "" {
			e.saveSnapshot(&bm)
		}
	}
}

// sampleCensus measures the population at window end: phase counts,
// cluster structure, and predator state.
func (e *Engine) sampleCensus() telemetry.Census {
	census := telemetry.Census{
		Population:      len(e.roster),
		SolidThreshold:  e.classifier.SolidThreshold,
		PlasmaThreshold: e.classifier.PlasmaThreshold,
	}

	for _, ent := range e.roster {
		_, neu := e.mapper.Get(ent)
		switch neu.Phase {
		case components.PhaseSolid:
			census.Solid++
		case components.PhaseLiquid:
			census.Liquid++
		case components.PhasePlasma:
			census.Plasma++
		}
	}

	e.freezeViews()
	clusters := systems.Clusters(e.views, e.cfg.Simulation.Radius)
	census.ClusterSizes = make([]float64, len(clusters))
	for i, c := range clusters {
		census.ClusterSizes[i] = float64(len(c))
	}

	if e.predator != nil {
		census.PredatorActive = true
		census.PredatorHunger = e.predator.Hunger
		census.EatenTotal = e.predator.Eaten
	}

	return census
}

// saveSnapshot creates and saves a snapshot to disk.
func (e *Engine) saveSnapshot(bookmark *telemetry.Bookmark) {
	snapshot := e.createSnapshot(bookmark)

	path, err := telemetry.SaveSnapshot(snapshot, e.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}

	slog.Info("snapshot saved", "path", path, "step", e.step)
}
