// Package components defines ECS components for the simulation.
package components

// Phase classifies an agent's local neighborhood and selects its
// state-update and drift rules.
type Phase uint8

const (
	PhaseSolid  Phase = iota // Low neighbor variance: state restored from memory
	PhaseLiquid              // Mid variance: state follows the local mean
	PhasePlasma              // High variance or isolation: state randomizes
)

// String returns the phase name used in logs and telemetry.
func (p Phase) String() string {
	switch p {
	case PhaseSolid:
		return "solid"
	case PhaseLiquid:
		return "liquid"
	case PhasePlasma:
		return "plasma"
	}
	return "unknown"
}

// State domain for neurons.
const (
	MinState  = 1
	MaxState  = 3
	NumStates = MaxState - MinState + 1
)

// Position is an entity's location on the unit square.
// Coordinates stay in [0,1) and wrap on update.
type Position struct {
	X, Y float64
}

// Neuron holds an agent's discrete state, the last committed state
// ("memory"), and the phase assigned by the most recent classification.
// State and Memory are always in {1,2,3}; Memory equals State as of the
// end of the previous step.
type Neuron struct {
	State  int
	Memory int
	Phase  Phase
}
