package wager

import "math"

// Step is one rung of a blast-chance ladder: the probability applies while
// the accumulated gain is strictly below UpperBound.
type Step struct {
	UpperBound  float64
	Probability float64
}

// StepTable is an ordered blast-chance ladder, evaluated top-down. Kept as
// named data rather than branching code so the risk profiles stay tunable.
type StepTable []Step

// Lookup returns the blast chance for the given accumulated gain percent.
func (t StepTable) Lookup(gainPercent float64) float64 {
	for _, s := range t {
		if gainPercent < s.UpperBound {
			return s.Probability
		}
	}
	return 0
}

// BlastDivisor converts a table chance into a per-tick blast probability.
const BlastDivisor = 20.0

// StandardBlastTable is the default escalating-crash risk profile.
var StandardBlastTable = StepTable{
	{UpperBound: 15, Probability: 0.035},
	{UpperBound: 30, Probability: 0.22},
	{UpperBound: 70, Probability: 0.43},
	{UpperBound: 90, Probability: 0.55},
	{UpperBound: math.Inf(1), Probability: 0.99},
}

// TurboBlastTable is the rare alternate profile: safe until 80%, then a
// short window before the blast chance pins at 1 per table lookup (still a
// per-tick draw through BlastDivisor, so the run length stays stochastic).
var TurboBlastTable = StepTable{
	{UpperBound: 80, Probability: 0},
	{UpperBound: 90, Probability: 0.25},
	{UpperBound: math.Inf(1), Probability: 1.0},
}
