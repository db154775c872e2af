package market

import (
	"math/rand"

	"PaperDesk/internal/domain/models"
)

// Trend selection weights inside the mid regime. Cumulative thresholds:
// up 0.45, down 0.90, sideways 1.0.
const (
	trendUpProb   = 0.45
	trendDownProb = 0.45

	// Dwell duration of a trend, in ticks, uniform in [50,150).
	trendTicksMin = 50
	trendTicksMax = 150

	// Additive directional bias applied while trending: +/- price * bias * U(0,1).
	trendBias = 0.0015
)

func drawTrend(rng *rand.Rand) models.Trend {
	u := rng.Float64()
	switch {
	case u < trendUpProb:
		return models.TrendUp
	case u < trendUpProb+trendDownProb:
		return models.TrendDown
	default:
		return models.TrendSideways
	}
}

func drawTrendTicks(rng *rand.Rand) int {
	return trendTicksMin + rng.Intn(trendTicksMax-trendTicksMin)
}
