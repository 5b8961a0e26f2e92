// Package systems implements the per-step rules of the simulation:
// neighborhood discovery, phase classification, predator behavior, and
// cluster detection. All rules operate on frozen per-step views so that
// update order within a step cannot leak into results.
package systems

import "math"

// AgentView is the frozen view of one agent for the duration of a step:
// the position and state every rule reads, captured before any write.
type AgentView struct {
	X, Y  float64
	State int
}

// Neighbor references a nearby agent by roster index with precomputed
// deltas. The same neighbor sets feed both the classification and the
// drift pass of a step.
type Neighbor struct {
	Index  int
	DX, DY float64 // Straight-line delta from the owning agent
}

// Distance returns the straight-line distance between two agents.
// Positions wrap on update but distance deliberately does not: two
// agents near opposite edges count as far apart even though a wrapped
// path between them would be short.
func Distance(a, b AgentView) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Neighborhoods returns, for each agent, every other agent strictly
// closer than radius. One full pairwise scan per step over the frozen
// views; both consumers share the result.
func Neighborhoods(agents []AgentView, radius float64) [][]Neighbor {
	sets := make([][]Neighbor, len(agents))
	radiusSq := radius * radius

	for i := range agents {
		for j := range agents {
			if i == j {
				continue
			}
			dx := agents[j].X - agents[i].X
			dy := agents[j].Y - agents[i].Y
			if dx*dx+dy*dy < radiusSq {
				sets[i] = append(sets[i], Neighbor{Index: j, DX: dx, DY: dy})
			}
		}
	}

	return sets
}

// Wrap maps a coordinate into [0,1). Unlike math.Mod it never returns a
// negative value, so large negative displacements wrap correctly.
func Wrap(x float64) float64 {
	x = math.Mod(x, 1)
	if x < 0 {
		x++
	}
	return x
}
