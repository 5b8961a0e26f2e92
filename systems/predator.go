package systems

import (
	"math"
	"math/rand"
)

// Predator movement tuning. Tension is hunger measured in units of
// TensionScale steps; past full tension the predator occasionally
// abandons local search and teleports.
const (
	TensionScale   = 50.0
	TeleportChance = 0.2
)

// Predator is the hunting agent. At most one exists per run; once
// spawned it persists until the run ends.
type Predator struct {
	X, Y   float64
	Eaten  int // Agents consumed so far, never decreases
	Hunger int // Steps since the last meal (or since spawn)
}

// NewPredator spawns a predator at a uniform random position.
func NewPredator(rng *rand.Rand) *Predator {
	return &Predator{X: rng.Float64(), Y: rng.Float64()}
}

// Move advances the predator one step. Speed scales with tension so a
// starving predator sweeps larger distances each step; above full
// tension it may teleport instead of stepping. Hunger grows every step
// regardless of which move was taken.
func (p *Predator) Move(rng *rand.Rand, baseSpeed float64) {
	tension := float64(p.Hunger) / TensionScale
	speed := baseSpeed * (1 + 2*tension)
	heading := rng.Float64() * 2 * math.Pi

	if tension > 1.0 && rng.Float64() < TeleportChance {
		p.X = rng.Float64()
		p.Y = rng.Float64()
	} else {
		p.X = Wrap(p.X + speed*math.Cos(heading))
		p.Y = Wrap(p.Y + speed*math.Sin(heading))
	}

	p.Hunger++
}

// Eat records one consumed agent and resets hunger. Eating several
// agents in the same step still ends the step at zero hunger.
func (p *Predator) Eat() {
	p.Eaten++
	p.Hunger = 0
}
