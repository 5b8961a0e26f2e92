package sim

import (
	"log/slog"

	"github.com/mkessel/protoplasm/components"
	"github.com/mkessel/protoplasm/systems"
	"github.com/mkessel/protoplasm/telemetry"
)

// Step runs a single simulation step and returns a view of the result.
//
// Order within a step: poke injection, predator spawn countdown, freeze
// of positions and states, neighborhood discovery, phase classification,
// classifier mutation, state update, drift, predator move and predation.
// All neighbor reads go through the frozen views, so update order within
// a pass never changes the outcome.
func (e *Engine) Step() StepView {
	e.perfCollector.StartStep()

	e.applyPoke()
	e.updateSpawnTimer()

	e.perfCollector.StartPhase(telemetry.PhaseNeighborhoods)
	e.freezeViews()
	neighborhoods := systems.Neighborhoods(e.views, e.cfg.Simulation.Radius)

	e.perfCollector.StartPhase(telemetry.PhaseClassify)
	e.classifyPhases(neighborhoods)
	e.mutateClassifier()

	e.perfCollector.StartPhase(telemetry.PhaseStates)
	e.updateStates(neighborhoods)

	e.perfCollector.StartPhase(telemetry.PhaseDrift)
	e.updatePositions(neighborhoods)

	e.perfCollector.StartPhase(telemetry.PhasePredator)
	eaten := e.updatePredator()

	e.step++
	view := e.buildStepView(eaten)

	e.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	e.flushTelemetry()

	e.perfCollector.EndStep()

	return view
}

// applyPoke forces one agent's state before anything reads agent state.
func (e *Engine) applyPoke() {
	if !e.cfg.Poke.Enabled || e.step != e.cfg.Poke.Step {
		return
	}

	idx := e.cfg.Poke.Target
	if idx < 0 || idx >= len(e.roster) {
		// The target can be gone by now if the predator ate enough agents
		slog.Warn("poke_target_missing",
			"step", e.step,
			"target", idx,
			"population", len(e.roster),
		)
		return
	}

	_, neu := e.mapper.Get(e.roster[idx])
	neu.State = e.cfg.Poke.Value
	neu.Phase = components.PhaseLiquid

	e.collector.RecordPoke()
	slog.Info("agent_poked",
		"step", e.step,
		"target", idx,
		"value", e.cfg.Poke.Value,
	)
}

// updateSpawnTimer counts down to the predator spawn. The countdown only
// runs while the predator is absent; once spawned it stays forever.
func (e *Engine) updateSpawnTimer() {
	if e.predator != nil {
		return
	}

	e.spawnCountdown--
	if e.spawnCountdown > 0 {
		return
	}

	e.predator = systems.NewPredator(e.rng)
	e.spawnCountdown = e.cfg.Predator.SpawnInterval

	slog.Info("predator_spawned",
		"step", e.step,
		"x", e.predator.X,
		"y", e.predator.Y,
	)
}

// freezeViews snapshots positions and states so every pass this step
// reads the same values.
func (e *Engine) freezeViews() {
	e.views = e.views[:0]
	for _, ent := range e.roster {
		pos, neu := e.mapper.Get(ent)
		e.views = append(e.views, systems.AgentView{
			X:     pos.X,
			Y:     pos.Y,
			State: neu.State,
		})
	}
}

// neighborStates fills the scratch buffer with the frozen states of one
// agent's neighbors.
func (e *Engine) neighborStates(neighbors []systems.Neighbor) []float64 {
	e.stateBuf = e.stateBuf[:0]
	for _, nb := range neighbors {
		e.stateBuf = append(e.stateBuf, float64(e.views[nb.Index].State))
	}
	return e.stateBuf
}

// classifyPhases assigns each agent a phase from its frozen neighborhood.
func (e *Engine) classifyPhases(neighborhoods [][]systems.Neighbor) {
	e.phases = e.phases[:0]
	for i, ent := range e.roster {
		phase := e.classifier.Classify(e.neighborStates(neighborhoods[i]))

		_, neu := e.mapper.Get(ent)
		neu.Phase = phase
		e.phases = append(e.phases, phase)
	}
}

// mutateClassifier replaces the classifier when any agent is plasma.
// The new thresholds apply from the next step onward.
func (e *Engine) mutateClassifier() {
	for _, p := range e.phases {
		if p != components.PhasePlasma {
			continue
		}

		e.classifier = systems.MutateClassifier(e.rng)
		e.collector.RecordMutation()
		slog.Debug("classifier_mutated",
			"step", e.step,
			"solid_threshold", e.classifier.SolidThreshold,
			"plasma_threshold", e.classifier.PlasmaThreshold,
		)
		return
	}
}

// updateStates applies the per-phase state rule and commits the result
// to memory.
func (e *Engine) updateStates(neighborhoods [][]systems.Neighbor) {
	for i, ent := range e.roster {
		_, neu := e.mapper.Get(ent)

		neu.State = systems.NextState(e.rng, e.phases[i], e.neighborStates(neighborhoods[i]), neu.Memory)
		neu.Memory = neu.State
	}
}

// updatePositions drifts agents toward same-state neighbors and away
// from others, adds noise, and wraps.
func (e *Engine) updatePositions(neighborhoods [][]systems.Neighbor) {
	drift := e.cfg.Simulation.Drift
	noise := e.cfg.Simulation.Noise

	for i, ent := range e.roster {
		var dx, dy float64
		state := e.views[i].State
		for _, nb := range neighborhoods[i] {
			if e.views[nb.Index].State == state {
				dx += nb.DX
				dy += nb.DY
			} else {
				dx -= nb.DX
				dy -= nb.DY
			}
		}

		pos, _ := e.mapper.Get(ent)
		pos.X = systems.Wrap(pos.X + drift*dx + (e.rng.Float64()-0.5)*noise)
		pos.Y = systems.Wrap(pos.Y + drift*dy + (e.rng.Float64()-0.5)*noise)
	}
}

// updatePredator moves the predator and removes any agents in reach.
// Returns the number of agents eaten.
func (e *Engine) updatePredator() int {
	if e.predator == nil {
		return 0
	}

	e.predator.Move(e.rng, e.cfg.Predator.Speed)

	// Collect victims against settled positions, then remove
	radiusSq := e.cfg.Predator.Radius * e.cfg.Predator.Radius
	var victims []int
	for i, ent := range e.roster {
		pos, _ := e.mapper.Get(ent)
		dx := pos.X - e.predator.X
		dy := pos.Y - e.predator.Y
		if dx*dx+dy*dy < radiusSq {
			victims = append(victims, i)
		}
	}
	if len(victims) == 0 {
		return 0
	}

	kept := e.roster[:0]
	vi := 0
	for i, ent := range e.roster {
		if vi < len(victims) && victims[vi] == i {
			e.world.RemoveEntity(ent)
			e.predator.Eat()
			vi++
			continue
		}
		kept = append(kept, ent)
	}
	e.roster = kept

	e.collector.RecordEaten(len(victims))
	slog.Info("agents_eaten",
		"step", e.step,
		"count", len(victims),
		"remaining", len(e.roster),
		"total", e.predator.Eaten,
	)

	return len(victims)
}
