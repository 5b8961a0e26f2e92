package main

import (
	"math"
	"sync"

	"github.com/mkessel/protoplasm/config"
	"github.com/mkessel/protoplasm/sim"
	"github.com/mkessel/protoplasm/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	steps       int
	seeds       []int64
	baseConfig  *config.Config
	statsWindow int

	// Best run tracking
	mu           sync.Mutex
	bestFitness  float64
	bestSnapshot *telemetry.Snapshot
	lastQuality  float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, steps int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		steps:       steps,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 50,
		bestFitness: math.Inf(1),
	}
}

// BestSnapshot returns the final state of the best run seen so far.
func (fe *FitnessEvaluator) BestSnapshot() *telemetry.Snapshot {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestSnapshot
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the results from a single simulation run.
type runResult struct {
	survivors   int                     // agents alive at the end of the run
	windowStats []telemetry.WindowStats // collected via StatsCallback each window
	snapshot    *telemetry.Snapshot
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness  float64
	quality  float64
	snapshot *telemetry.Snapshot
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness rewards surviving agents, with a quality bonus for organized
// populations.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	// Run all seeds in parallel
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runSimulation(x, s)
			quality := fe.computeQuality(result.windowStats)
			results[idx] = seedResult{
				fitness:  fe.computeFitness(result),
				quality:  quality,
				snapshot: result.snapshot,
			}
		}(i, seed)
	}
	wg.Wait()

	// Aggregate results
	var totalFitness, totalQuality float64
	bestSeedFitness := math.Inf(1)
	var bestSeedSnapshot *telemetry.Snapshot

	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		if r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeedSnapshot = r.snapshot
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	// Update best tracking
	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestSnapshot = bestSeedSnapshot
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless simulation run.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	// Create a fresh config copy and apply parameters
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	if fe.steps > 0 {
		cfg.Simulation.Steps = fe.steps
	}

	result := &runResult{}

	engine, err := sim.NewEngine(sim.Options{
		Seed:        seed,
		Config:      cfg,
		StatsWindow: fe.statsWindow,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		// Parameters are clamped into valid ranges, so this only fires
		// on a broken base config. Score it as a total loss.
		return result
	}

	engine.Run()

	result.survivors = engine.Population()
	result.snapshot = engine.Snapshot()
	engine.Close()

	return result
}

// copyConfig creates a deep copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	// Load fresh defaults and copy base values
	cfg, _ := config.Load("")

	cfg.Simulation = fe.baseConfig.Simulation
	cfg.Poke = fe.baseConfig.Poke
	cfg.Predator = fe.baseConfig.Predator
	cfg.Classifier = fe.baseConfig.Classifier
	cfg.Telemetry = fe.baseConfig.Telemetry

	return cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivors × (1.0 + 0.2 × quality))
// Survival dominates; quality adds up to 20% bonus to differentiate
// configs with similar survival.
func (fe *FitnessEvaluator) computeFitness(r *runResult) float64 {
	survivors := float64(r.survivors)
	quality := fe.computeQuality(r.windowStats)
	return -(survivors * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightCohesion  = 0.35
	qualityWeightBalance   = 0.35
	qualityWeightStability = 0.30

	qualityWarmupWindows = 2 // skip first N windows (warmup)
	qualityMinPop        = 3 // exclude windows with fewer agents
)

// computeQuality computes population quality ∈ [0, 1] from window stats.
func (fe *FitnessEvaluator) computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}

	// Collect valid windows (past warmup, population present)
	valid := windows[qualityWarmupWindows:]

	var cohesionSum, balanceSum float64
	var validCount int

	pops := make([]float64, 0, len(valid))

	for _, w := range valid {
		if w.Population < qualityMinPop {
			continue
		}

		pops = append(pops, float64(w.Population))

		// 1. Cluster cohesion: share of the population in the largest cluster
		cohesionSum += float64(w.LargestCluster) / float64(w.Population)

		// 2. Phase balance: peak when about half the agents are liquid
		balanceSum += math.Exp(-math.Pow((w.LiquidShare-0.5)/0.25, 2))

		validCount++
	}

	// No valid windows → zero quality
	if validCount == 0 {
		return 0
	}

	cohesionScore := cohesionSum / float64(validCount)
	balanceScore := balanceSum / float64(validCount)

	// 3. Population stability (CV across all valid windows)
	stabilityScore := 0.0
	if len(pops) >= 2 {
		cvPop := cv(pops)
		stabilityScore = math.Exp(-(cvPop * cvPop))
	}

	quality := qualityWeightCohesion*cohesionScore +
		qualityWeightBalance*balanceScore +
		qualityWeightStability*stabilityScore

	return clamp01(quality)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	if mean == 0 {
		return 0
	}
	var sqDiff float64
	for _, v := range values {
		d := v - mean
		sqDiff += d * d
	}
	return math.Sqrt(sqDiff/n) / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
