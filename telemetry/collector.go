package telemetry

// Collector accumulates events within step windows and produces WindowStats.
type Collector struct {
	windowSteps int

	// Current window tracking
	windowStart int

	// Event counters for current window
	pokes     int
	mutations int
	eaten     int
}

// NewCollector creates a new stats collector.
// windowSteps: how many simulation steps each stats window spans
func NewCollector(windowSteps int) *Collector {
	if windowSteps < 1 {
		windowSteps = 1
	}

	return &Collector{
		windowSteps: windowSteps,
		windowStart: 0,
	}
}

// AlignWindow moves the start of the current window. A run resumed from
// a snapshot aligns to the restored step so the first window does not
// span the gap back to zero.
func (c *Collector) AlignWindow(step int) {
	c.windowStart = step
}

// RecordPoke records a forced state injection.
func (c *Collector) RecordPoke() {
	c.pokes++
}

// RecordMutation records a classifier replacement.
func (c *Collector) RecordMutation() {
	c.mutations++
}

// RecordEaten records agents removed by the predator in one step.
func (c *Collector) RecordEaten(n int) {
	c.eaten += n
}

// ShouldFlush returns true if enough steps have passed to flush the window.
func (c *Collector) ShouldFlush(currentStep int) bool {
	return currentStep-c.windowStart >= c.windowSteps
}

// Census holds the measurements sampled at window end.
type Census struct {
	Population int
	Solid      int
	Liquid     int
	Plasma     int

	ClusterSizes []float64 // one entry per cluster, value is member count

	SolidThreshold  float64
	PlasmaThreshold float64

	PredatorActive bool
	PredatorHunger int
	EatenTotal     int
}

// Flush produces a WindowStats and resets counters for the next window.
// The caller samples the Census at the current step.
func (c *Collector) Flush(currentStep int, census Census) WindowStats {
	clusterCount, largest, meanSize, p50 := ComputeClusterStats(census.ClusterSizes)

	stats := WindowStats{
		WindowStart: c.windowStart,
		WindowEnd:   currentStep,

		Population: census.Population,

		SolidCount:  census.Solid,
		LiquidCount: census.Liquid,
		PlasmaCount: census.Plasma,

		Pokes:      c.pokes,
		Mutations:  c.mutations,
		Eaten:      c.eaten,
		EatenTotal: census.EatenTotal,

		ClusterCount:    clusterCount,
		LargestCluster:  largest,
		MeanClusterSize: meanSize,
		ClusterSizeP50:  p50,

		SolidThreshold:  census.SolidThreshold,
		PlasmaThreshold: census.PlasmaThreshold,

		PredatorActive: census.PredatorActive,
		PredatorHunger: census.PredatorHunger,
	}

	if census.Population > 0 {
		n := float64(census.Population)
		stats.SolidShare = float64(census.Solid) / n
		stats.LiquidShare = float64(census.Liquid) / n
		stats.PlasmaShare = float64(census.Plasma) / n
	}

	// Reset for next window
	c.windowStart = currentStep
	c.pokes = 0
	c.mutations = 0
	c.eaten = 0

	return stats
}

// WindowSteps returns the number of steps per window.
func (c *Collector) WindowSteps() int {
	return c.windowSteps
}
