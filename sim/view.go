package sim

import "github.com/mkessel/protoplasm/components"

// StepView is a read-only summary of the state after a step. Agents
// appear in roster order.
type StepView struct {
	// Number of completed steps
	Step int

	Agents []AgentSnapshot

	// nil until the predator spawns
	Predator *PredatorSnapshot

	// Agents removed by the predator during this step
	Eaten int
}

// AgentSnapshot is one agent's visible state.
type AgentSnapshot struct {
	X, Y  float64
	State int
	Phase components.Phase
}

// PredatorSnapshot is the predator's visible state.
type PredatorSnapshot struct {
	X, Y   float64
	Eaten  int
	Hunger int
}

// buildStepView assembles a view of the current state.
func (e *Engine) buildStepView(eaten int) StepView {
	view := StepView{
		Step:   e.step,
		Agents: make([]AgentSnapshot, 0, len(e.roster)),
		Eaten:  eaten,
	}

	for _, ent := range e.roster {
		pos, neu := e.mapper.Get(ent)
		view.Agents = append(view.Agents, AgentSnapshot{
			X:     pos.X,
			Y:     pos.Y,
			State: neu.State,
			Phase: neu.Phase,
		})
	}

	if e.predator != nil {
		view.Predator = &PredatorSnapshot{
			X:      e.predator.X,
			Y:      e.predator.Y,
			Eaten:  e.predator.Eaten,
			Hunger: e.predator.Hunger,
		}
	}

	return view
}
