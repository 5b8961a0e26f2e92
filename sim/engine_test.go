package sim

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/mkessel/protoplasm/config"
	"github.com/mkessel/protoplasm/telemetry"
)

// testConfig returns a small valid config for engine tests. The poke is
// off and the predator spawn is pushed out of reach; tests that need
// them override the fields.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	cfg.Simulation.Population = 10
	cfg.Simulation.Steps = 40
	cfg.Poke.Enabled = false
	cfg.Predator.SpawnInterval = 1000
	cfg.Telemetry.WindowSteps = 10
	return cfg
}

// placeAgents builds a snapshot that pins agents (and optionally a
// predator) at exact positions, bypassing the random spawn.
func placeAgents(agents []telemetry.AgentState, pred *telemetry.PredatorState) *telemetry.Snapshot {
	return &telemetry.Snapshot{
		Version:         telemetry.SnapshotVersion,
		RNGSeed:         1,
		Step:            0,
		SolidThreshold:  0.2,
		PlasmaThreshold: 0.8,
		SpawnCountdown:  1000,
		Agents:          agents,
		Predator:        pred,
	}
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Simulation.Population = 0

	if _, err := NewEngine(Options{Seed: 1, Config: cfg}); err == nil {
		t.Error("expected error for zero population")
	}
}

func TestNewEngineInitialState(t *testing.T) {
	cfg := testConfig(t)
	engine, err := NewEngine(Options{Seed: 42, Config: cfg})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	defer engine.Close()

	if engine.CurrentStep() != 0 {
		t.Errorf("fresh engine at step %d, want 0", engine.CurrentStep())
	}
	if engine.Population() != cfg.Simulation.Population {
		t.Errorf("population = %d, want %d", engine.Population(), cfg.Simulation.Population)
	}
	if engine.Seed() != 42 {
		t.Errorf("seed = %d, want 42", engine.Seed())
	}
	if engine.Predator() != nil {
		t.Error("predator exists before its spawn countdown")
	}

	c := engine.Classifier()
	if c.SolidThreshold != cfg.Classifier.SolidThreshold || c.PlasmaThreshold != cfg.Classifier.PlasmaThreshold {
		t.Errorf("classifier seeded with %+v, want config thresholds", c)
	}
}

// TestRunAdvancesToConfiguredSteps verifies Run stops at the configured
// step count and flushes one stats window per window interval.
func TestRunAdvancesToConfiguredSteps(t *testing.T) {
	cfg := testConfig(t)
	cfg.Simulation.Population = 4
	cfg.Simulation.Steps = 12
	cfg.Telemetry.WindowSteps = 5

	var windows []telemetry.WindowStats
	engine, err := NewEngine(Options{
		Seed:   7,
		Config: cfg,
		StatsCallback: func(ws telemetry.WindowStats) {
			windows = append(windows, ws)
		},
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	defer engine.Close()

	view := engine.Run()
	if view.Step != 12 {
		t.Errorf("final view at step %d, want 12", view.Step)
	}
	if engine.CurrentStep() != 12 {
		t.Errorf("engine at step %d, want 12", engine.CurrentStep())
	}

	// Windows close at steps 5 and 10; the tail is not flushed.
	if len(windows) != 2 {
		t.Fatalf("got %d stats windows, want 2", len(windows))
	}
	if windows[0].WindowEnd != 5 || windows[1].WindowEnd != 10 {
		t.Errorf("window ends = %d and %d, want 5 and 10", windows[0].WindowEnd, windows[1].WindowEnd)
	}

	// A second Run is a no-op on a finished engine.
	again := engine.Run()
	if again.Step != 12 || len(windows) != 2 {
		t.Errorf("rerun advanced a finished engine: step %d, %d windows", again.Step, len(windows))
	}
}

// TestDeterminism verifies two engines with the same seed produce
// identical step views, and a different seed diverges.
func TestDeterminism(t *testing.T) {
	cfg := testConfig(t)
	cfg.Poke = config.PokeConfig{Enabled: true, Step: 5, Target: 2, Value: 1}
	cfg.Predator.SpawnInterval = 15

	a, err := NewEngine(Options{Seed: 99, Config: cfg})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	defer a.Close()
	b, err := NewEngine(Options{Seed: 99, Config: cfg})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	defer b.Close()

	var last StepView
	for i := 0; i < 40; i++ {
		va := a.Step()
		vb := b.Step()
		if !reflect.DeepEqual(va, vb) {
			t.Fatalf("step %d diverged between same-seed runs", va.Step)
		}
		last = va
	}

	c, err := NewEngine(Options{Seed: 100, Config: cfg})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	defer c.Close()
	var lastC StepView
	for i := 0; i < 40; i++ {
		lastC = c.Step()
	}

	if reflect.DeepEqual(last, lastC) {
		t.Error("different seeds produced identical final views")
	}
}

// TestSnapshotRoundTrip verifies a restored engine carries the full
// state: step, agents, classifier thresholds, and predator.
func TestSnapshotRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	cfg.Predator.SpawnInterval = 8

	engine, err := NewEngine(Options{Seed: 7, Config: cfg})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	defer engine.Close()

	for i := 0; i < 20; i++ {
		engine.Step()
	}

	snap := engine.Snapshot()
	if snap.Step != 20 {
		t.Fatalf("snapshot at step %d, want 20", snap.Step)
	}
	if snap.Predator == nil {
		t.Fatal("predator missing from snapshot after its spawn step")
	}

	restored, err := NewEngineFromSnapshot(snap, Options{Config: cfg})
	if err != nil {
		t.Fatalf("NewEngineFromSnapshot failed: %v", err)
	}
	defer restored.Close()

	if restored.CurrentStep() != 20 {
		t.Errorf("restored engine at step %d, want 20", restored.CurrentStep())
	}
	if restored.Seed() != snap.RNGSeed {
		t.Errorf("restored seed = %d, want snapshot seed %d", restored.Seed(), snap.RNGSeed)
	}
	if restored.Population() != len(snap.Agents) {
		t.Errorf("restored population = %d, want %d", restored.Population(), len(snap.Agents))
	}

	if !reflect.DeepEqual(snap, restored.Snapshot()) {
		t.Error("snapshot of restored engine differs from the original")
	}
}

func TestNewEngineFromSnapshotVersionMismatch(t *testing.T) {
	cfg := testConfig(t)
	snap := placeAgents([]telemetry.AgentState{{X: 0.5, Y: 0.5, State: 2, Memory: 2, Phase: 1}}, nil)
	snap.Version = 99

	if _, err := NewEngineFromSnapshot(snap, Options{Config: cfg}); err == nil {
		t.Error("expected error for unknown snapshot version")
	}
}

// TestResumedRunContinues verifies a restored engine steps onward from
// the snapshot point.
func TestResumedRunContinues(t *testing.T) {
	cfg := testConfig(t)
	cfg.Simulation.Population = 2
	cfg.Simulation.Steps = 30

	snap := placeAgents([]telemetry.AgentState{
		{X: 0.2, Y: 0.2, State: 1, Memory: 1, Phase: 1},
		{X: 0.8, Y: 0.8, State: 2, Memory: 2, Phase: 1},
	}, nil)
	snap.Step = 25

	engine, err := NewEngineFromSnapshot(snap, Options{Config: cfg})
	if err != nil {
		t.Fatalf("NewEngineFromSnapshot failed: %v", err)
	}
	defer engine.Close()

	view := engine.Run()
	if view.Step != 30 {
		t.Errorf("resumed run ended at step %d, want 30", view.Step)
	}
}

// TestEngineWritesOutput verifies the CSV and config outputs appear
// when an output directory is set.
func TestEngineWritesOutput(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t)
	cfg.Simulation.Population = 4
	cfg.Simulation.Steps = 10
	cfg.Telemetry.WindowSteps = 5

	engine, err := NewEngine(Options{Seed: 3, Config: cfg, OutputDir: dir})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	engine.Run()
	if err := engine.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	for _, name := range []string{"config.yaml", "telemetry.csv", "perf.csv", "bookmarks.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing output file %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatalf("reading telemetry.csv: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "window_end") {
		t.Error("telemetry.csv is missing its header")
	}
	// Header plus two flushed windows
	if lines := strings.Count(strings.TrimSpace(content), "\n"); lines != 2 {
		t.Errorf("telemetry.csv has %d line breaks, want 2", lines)
	}
}
