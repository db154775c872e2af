package market

import (
	"math/rand"

	"PaperDesk/internal/domain/models"
)

// Band is an inclusive price band.
type Band struct {
	Min float64
	Max float64
}

// RegimeSpec is the static configuration of one regime: its price band and
// the probability of leaving it on any given tick. Successor resolution is
// in nextRegime; from mid the exit is itself a weighted draw.
type RegimeSpec struct {
	Band      Band
	LeaveProb float64
}

// Table is the regime table. Loaded once, never mutated.
var Table = map[models.Regime]RegimeSpec{
	models.RegimeLow:  {Band: Band{Min: 40, Max: 60}, LeaveProb: 0.04},
	models.RegimeMid:  {Band: Band{Min: 60, Max: 120}, LeaveProb: 0.015},
	models.RegimeHigh: {Band: Band{Min: 120, Max: 180}, LeaveProb: 0.04},
}

// Weights of the secondary draw when leaving mid: 10% low, 10% high,
// 80% stay. Low and high always fall back to mid.
const (
	midExitLowProb  = 0.10
	midExitHighProb = 0.10
)

// Floor is the absolute price floor: the tick function never returns a
// price below 0.9x the low band's minimum.
func Floor() float64 {
	return 0.9 * Table[models.RegimeLow].Band.Min
}

func nextRegime(cur models.Regime, rng *rand.Rand) models.Regime {
	switch cur {
	case models.RegimeMid:
		u := rng.Float64()
		switch {
		case u < midExitLowProb:
			return models.RegimeLow
		case u < midExitLowProb+midExitHighProb:
			return models.RegimeHigh
		default:
			return models.RegimeMid
		}
	default:
		// low and high have a single deterministic successor
		return models.RegimeMid
	}
}
