// Package telemetry provides windowed stats, bookmarking, and snapshots.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a step window.
type WindowStats struct {
	WindowStart int `csv:"-"`
	WindowEnd   int `csv:"window_end"`

	// Population count at window end
	Population int `csv:"population"`

	// Phase census at window end
	SolidCount  int     `csv:"solid"`
	LiquidCount int     `csv:"liquid"`
	PlasmaCount int     `csv:"plasma"`
	SolidShare  float64 `csv:"solid_share"`
	LiquidShare float64 `csv:"liquid_share"`
	PlasmaShare float64 `csv:"plasma_share"`

	// Events during window
	Pokes     int `csv:"pokes"`
	Mutations int `csv:"mutations"`
	Eaten     int `csv:"eaten"`

	// Cumulative kills across the whole run
	EatenTotal int `csv:"eaten_total"`

	// Cluster structure at window end
	ClusterCount    int     `csv:"clusters"`
	LargestCluster  int     `csv:"largest_cluster"`
	MeanClusterSize float64 `csv:"mean_cluster_size"`
	ClusterSizeP50  float64 `csv:"cluster_size_p50"`

	// Active classifier thresholds
	SolidThreshold  float64 `csv:"solid_threshold"`
	PlasmaThreshold float64 `csv:"plasma_threshold"`

	// Predator state at window end
	PredatorActive bool `csv:"predator_active"`
	PredatorHunger int  `csv:"predator_hunger"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeClusterStats calculates count, largest size, mean, and median
// from cluster sizes.
func ComputeClusterStats(sizes []float64) (count, largest int, mean, p50 float64) {
	n := len(sizes)
	if n == 0 {
		return 0, 0, 0, 0
	}

	sorted := make([]float64, n)
	copy(sorted, sizes)
	sort.Float64s(sorted)

	count = n
	largest = int(sorted[n-1])
	mean = stat.Mean(sorted, nil)
	p50 = Percentile(sorted, 0.50)

	return count, largest, mean, p50
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStart),
		slog.Int("window_end", s.WindowEnd),
		slog.Int("population", s.Population),
		slog.Int("solid", s.SolidCount),
		slog.Int("liquid", s.LiquidCount),
		slog.Int("plasma", s.PlasmaCount),
		slog.Float64("solid_share", s.SolidShare),
		slog.Float64("liquid_share", s.LiquidShare),
		slog.Float64("plasma_share", s.PlasmaShare),
		slog.Int("pokes", s.Pokes),
		slog.Int("mutations", s.Mutations),
		slog.Int("eaten", s.Eaten),
		slog.Int("eaten_total", s.EatenTotal),
		slog.Int("clusters", s.ClusterCount),
		slog.Int("largest_cluster", s.LargestCluster),
		slog.Float64("mean_cluster_size", s.MeanClusterSize),
		slog.Float64("cluster_size_p50", s.ClusterSizeP50),
		slog.Float64("solid_threshold", s.SolidThreshold),
		slog.Float64("plasma_threshold", s.PlasmaThreshold),
		slog.Bool("predator_active", s.PredatorActive),
		slog.Int("predator_hunger", s.PredatorHunger),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEnd,
		"population", s.Population,
		"solid", s.SolidCount,
		"liquid", s.LiquidCount,
		"plasma", s.PlasmaCount,
		"solid_share", s.SolidShare,
		"liquid_share", s.LiquidShare,
		"plasma_share", s.PlasmaShare,
		"pokes", s.Pokes,
		"mutations", s.Mutations,
		"eaten", s.Eaten,
		"eaten_total", s.EatenTotal,
		"clusters", s.ClusterCount,
		"largest_cluster", s.LargestCluster,
		"mean_cluster_size", s.MeanClusterSize,
		"cluster_size_p50", s.ClusterSizeP50,
		"solid_threshold", s.SolidThreshold,
		"plasma_threshold", s.PlasmaThreshold,
		"predator_active", s.PredatorActive,
		"predator_hunger", s.PredatorHunger,
	)
}
