package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/mkessel/protoplasm/config"
	"github.com/mkessel/protoplasm/sim"
	"github.com/mkessel/protoplasm/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in steps (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	steps := flag.Int("steps", 0, "Total steps to run (0 = use config)")
	resume := flag.String("resume", "", "Path to a snapshot file to resume from")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *steps > 0 {
		cfg.Simulation.Steps = *steps
	}

	// Set up seed. A resumed run keeps the snapshot's seed unless one is
	// given explicitly.
	rngSeed := *seed
	if rngSeed == 0 && *resume == "" {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	opts := sim.Options{
		Seed:        rngSeed,
		Config:      cfg,
		StatsWindow: *statsWindow,
		SnapshotDir: *snapshotDir,
		OutputDir:   *outputDir,
		LogStats:    *logStats,
	}

	var engine *sim.Engine
	var err error
	if *resume != "" {
		snap, loadErr := telemetry.LoadSnapshot(*resume)
		if loadErr != nil {
			slog.Error("failed to load snapshot", "error", loadErr)
			os.Exit(1)
		}
		engine, err = sim.NewEngineFromSnapshot(snap, opts)
	} else {
		engine, err = sim.NewEngine(opts)
	}
	if err != nil {
		slog.Error("failed to create engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	slog.Info("starting simulation",
		"seed", engine.Seed(),
		"population", engine.Population(),
		"steps", cfg.Simulation.Steps,
		"start_step", engine.CurrentStep(),
	)

	start := time.Now()
	final := engine.Run()

	eatenTotal := 0
	if final.Predator != nil {
		eatenTotal = final.Predator.Eaten
	}

	slog.Info("simulation complete",
		"steps", final.Step,
		"survivors", len(final.Agents),
		"eaten_total", eatenTotal,
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)

	// Save a final snapshot so the run can be resumed or inspected
	if *snapshotDir != "" {
		path, saveErr := engine.SaveSnapshot(*snapshotDir)
		if saveErr != nil {
			slog.Error("failed to save snapshot", "error", saveErr)
			os.Exit(1)
		}
		slog.Info("snapshot saved", "path", path, "step", final.Step)
	}
}
