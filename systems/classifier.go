package systems

import (
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/mkessel/protoplasm/components"
)

// Threshold bands for classifier replacement. Whenever any agent
// classifies as plasma, the engine swaps the classifier for a fresh one
// drawn uniformly from these bands.
const (
	SolidBandLow   = 0.1
	SolidBandHigh  = 0.4
	PlasmaBandLow  = 0.6
	PlasmaBandHigh = 0.9
)

// Classifier maps an agent's neighborhood statistics to a phase.
// Instances are never mutated in place: the engine holds exactly one
// and replaces it wholesale, so an unchanged pointer across steps means
// the rule itself is unchanged.
type Classifier struct {
	SolidThreshold  float64
	PlasmaThreshold float64
}

// Classify assigns a phase from the states of an agent's neighbors.
// Isolation forces plasma; otherwise the population variance of the
// neighbor states (biased, divide by n) picks the band.
func (c *Classifier) Classify(neighborStates []float64) components.Phase {
	if len(neighborStates) == 0 {
		return components.PhasePlasma
	}

	variance := stat.PopVariance(neighborStates, nil)
	switch {
	case variance < c.SolidThreshold:
		return components.PhaseSolid
	case variance > c.PlasmaThreshold:
		return components.PhasePlasma
	default:
		return components.PhaseLiquid
	}
}

// MutateClassifier draws a replacement classifier with thresholds from
// the band constants above.
func MutateClassifier(rng *rand.Rand) *Classifier {
	return &Classifier{
		SolidThreshold:  SolidBandLow + rng.Float64()*(SolidBandHigh-SolidBandLow),
		PlasmaThreshold: PlasmaBandLow + rng.Float64()*(PlasmaBandHigh-PlasmaBandLow),
	}
}
