// Package sim runs the simulation: a fixed roster of agents on the unit
// square, classified into phases each step, plus an optional predator.
package sim

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/mkessel/protoplasm/components"
	"github.com/mkessel/protoplasm/config"
	"github.com/mkessel/protoplasm/systems"
	"github.com/mkessel/protoplasm/telemetry"
)

// Options configures an Engine.
type Options struct {
	// RNG seed. The engine uses it as given; callers resolve any
	// "0 means time-based" convention before constructing the engine.
	Seed int64

	// Config overrides the global config when non-nil.
	Config *config.Config

	// StatsWindow is the stats window size in steps (0 = use config).
	StatsWindow int

	// OutputDir enables CSV output when non-empty.
	OutputDir string

	// SnapshotDir enables bookmark-triggered snapshots when non-empty.
	SnapshotDir string

	// LogStats emits window stats and perf via slog.
	LogStats bool

	// StatsCallback receives every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Engine holds the complete simulation state.
type Engine struct {
	cfg     *config.Config
	rng     *rand.Rand
	rngSeed int64

	world  ecs.World
	mapper *ecs.Map2[components.Position, components.Neuron]

	// Agents in creation order. Predation removes entries but never
	// reorders the survivors.
	roster []ecs.Entity

	classifier *systems.Classifier

	// nil until the spawn countdown fires; never removed afterwards
	predator       *systems.Predator
	spawnCountdown int

	// Number of completed steps
	step int

	// Scratch buffers reused across steps
	views    []systems.AgentView
	phases   []components.Phase
	stateBuf []float64

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	snapshotDir      string
	statsCallback    func(telemetry.WindowStats)
	logStats         bool
}

// NewEngine creates an engine and spawns the initial population.
func NewEngine(opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e, err := newEngine(cfg, opts)
	if err != nil {
		return nil, err
	}

	e.spawnPopulation()
	return e, nil
}

// NewEngineFromSnapshot creates an engine restored from a saved snapshot.
// Poke scheduling and step counting continue from the snapshot's step, so
// a resumed run skips any poke whose step already passed.
func NewEngineFromSnapshot(snap *telemetry.Snapshot, opts Options) (*Engine, error) {
	if snap.Version != telemetry.SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snap.Version, telemetry.SnapshotVersion)
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if opts.Seed == 0 {
		opts.Seed = snap.RNGSeed
	}

	e, err := newEngine(cfg, opts)
	if err != nil {
		return nil, err
	}

	e.step = snap.Step
	e.collector.AlignWindow(snap.Step)
	e.classifier = &systems.Classifier{
		SolidThreshold:  snap.SolidThreshold,
		PlasmaThreshold: snap.PlasmaThreshold,
	}
	e.spawnCountdown = snap.SpawnCountdown

	e.roster = make([]ecs.Entity, 0, len(snap.Agents))
	for _, a := range snap.Agents {
		pos := components.Position{X: a.X, Y: a.Y}
		neu := components.Neuron{State: a.State, Memory: a.Memory, Phase: components.Phase(a.Phase)}
		e.roster = append(e.roster, e.mapper.NewEntity(&pos, &neu))
	}

	if snap.Predator != nil {
		e.predator = &systems.Predator{
			X:      snap.Predator.X,
			Y:      snap.Predator.Y,
			Eaten:  snap.Predator.Eaten,
			Hunger: snap.Predator.Hunger,
		}
	}

	return e, nil
}

// newEngine builds the shared engine skeleton without any agents.
func newEngine(cfg *config.Config, opts Options) (*Engine, error) {
	windowSteps := opts.StatsWindow
	if windowSteps <= 0 {
		windowSteps = cfg.Telemetry.WindowSteps
	}

	e := &Engine{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(opts.Seed)),
		rngSeed: opts.Seed,
		world:   ecs.NewWorld(),
		classifier: &systems.Classifier{
			SolidThreshold:  cfg.Classifier.SolidThreshold,
			PlasmaThreshold: cfg.Classifier.PlasmaThreshold,
		},
		spawnCountdown:   cfg.Predator.SpawnInterval,
		collector:        telemetry.NewCollector(windowSteps),
		perfCollector:    telemetry.NewPerfCollector(windowSteps),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		snapshotDir:      opts.SnapshotDir,
		statsCallback:    opts.StatsCallback,
		logStats:         opts.LogStats,
	}
	e.mapper = ecs.NewMap2[components.Position, components.Neuron](&e.world)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	e.outputManager = om

	if err := e.outputManager.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	return e, nil
}

// spawnPopulation creates the starting agents with uniform random
// positions and states.
func (e *Engine) spawnPopulation() {
	n := e.cfg.Simulation.Population
	e.roster = make([]ecs.Entity, 0, n)

	for i := 0; i < n; i++ {
		pos := components.Position{
			X: e.rng.Float64(),
			Y: e.rng.Float64(),
		}
		state := components.MinState + e.rng.Intn(components.NumStates)
		neu := components.Neuron{
			State:  state,
			Memory: state,
			Phase:  components.PhaseLiquid,
		}
		e.roster = append(e.roster, e.mapper.NewEntity(&pos, &neu))
	}
}

// Run advances the simulation to the configured step count and returns
// the final step view.
func (e *Engine) Run() StepView {
	view := e.buildStepView(0)
	for e.step < e.cfg.Simulation.Steps {
		view = e.Step()
	}
	return view
}

// CurrentStep returns the number of completed steps.
func (e *Engine) CurrentStep() int {
	return e.step
}

// Population returns the number of living agents.
func (e *Engine) Population() int {
	return len(e.roster)
}

// Seed returns the RNG seed the engine was constructed with.
func (e *Engine) Seed() int64 {
	return e.rngSeed
}

// Classifier returns the active classifier. The engine replaces it
// wholesale on mutation, so an unchanged pointer means an unchanged rule.
func (e *Engine) Classifier() *systems.Classifier {
	return e.classifier
}

// Predator returns the predator, or nil before it spawns.
func (e *Engine) Predator() *systems.Predator {
	return e.predator
}

// Snapshot captures the complete current state for saving.
func (e *Engine) Snapshot() *telemetry.Snapshot {
	return e.createSnapshot(nil)
}

// SaveSnapshot writes the current state to dir and returns the path.
func (e *Engine) SaveSnapshot(dir string) (string, error) {
	return telemetry.SaveSnapshot(e.createSnapshot(nil), dir)
}

// Close flushes and closes any open output files.
func (e *Engine) Close() error {
	return e.outputManager.Close()
}

// createSnapshot builds a snapshot from the current state.
func (e *Engine) createSnapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	snapshot := &telemetry.Snapshot{
		Version:         telemetry.SnapshotVersion,
		RNGSeed:         e.rngSeed,
		Step:            e.step,
		SolidThreshold:  e.classifier.SolidThreshold,
		PlasmaThreshold: e.classifier.PlasmaThreshold,
		SpawnCountdown:  e.spawnCountdown,
		Bookmark:        bookmark,
	}

	for _, ent := range e.roster {
		pos, neu := e.mapper.Get(ent)
		snapshot.Agents = append(snapshot.Agents, telemetry.AgentState{
			X:      pos.X,
			Y:      pos.Y,
			State:  neu.State,
			Memory: neu.Memory,
			Phase:  uint8(neu.Phase),
		})
	}

	if e.predator != nil {
		snapshot.Predator = &telemetry.PredatorState{
			X:      e.predator.X,
			Y:      e.predator.Y,
			Eaten:  e.predator.Eaten,
			Hunger: e.predator.Hunger,
		}
	}

	return snapshot
}
