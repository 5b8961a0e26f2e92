package systems

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/mkessel/protoplasm/components"
)

// NextState applies the per-step state rule for one agent.
// neighborStates is drawn from the frozen view shared by the whole step;
// memory is the agent's last committed state.
func NextState(rng *rand.Rand, phase components.Phase, neighborStates []float64, memory int) int {
	switch phase {
	case components.PhasePlasma:
		return components.MinState + rng.Intn(components.NumStates)
	case components.PhaseLiquid:
		if len(neighborStates) == 0 {
			return memory
		}
		mean := stat.Mean(neighborStates, nil)
		jitter := rng.Intn(3) - 1
		return ClampState(int(math.RoundToEven(mean)) + jitter)
	default:
		return memory
	}
}

// ClampState limits a state to the valid range.
func ClampState(s int) int {
	if s < components.MinState {
		return components.MinState
	}
	if s > components.MaxState {
		return components.MaxState
	}
	return s
}
