package market

import (
	"math/rand"
	"testing"
	"time"

	"PaperDesk/internal/domain/models"
)

func newState(price float64) models.PriceState {
	return models.PriceState{Price: price, Regime: models.RegimeMid, Trend: models.TrendSideways}
}

func TestPriceFloorHolds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	st := newState(90)
	floor := Floor()
	for i := 0; i < 50_000; i++ {
		st = Next(st, models.PositionSnapshot{}, rng)
		if st.Price < floor {
			t.Fatalf("tick %d: price %.6f below floor %.6f", i, st.Price, floor)
		}
	}
}

func TestRegimeContainmentSoft(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	st := newState(90)
	inside := 0
	const n = 50_000
	for i := 0; i < n; i++ {
		st = Next(st, models.PositionSnapshot{}, rng)
		band := Table[st.Regime].Band
		if st.Price >= band.Min && st.Price <= band.Max {
			inside++
		}
	}
	// Soft clamp: transient excursions allowed, but the price must live
	// inside the active band the overwhelming majority of the time.
	if ratio := float64(inside) / n; ratio < 0.95 {
		t.Fatalf("price inside band only %.2f%% of ticks", ratio*100)
	}
}

func TestRegimeChangeForcesSidewaysTrend(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	st := newState(90)
	prev := st.Regime
	for i := 0; i < 200_000; i++ {
		st = Next(st, models.PositionSnapshot{}, rng)
		if st.Regime != prev && st.Regime != models.RegimeMid {
			// just left mid; the trend must have been reset
			if st.Trend != models.TrendSideways {
				t.Fatalf("regime change %v->%v kept trend %v", prev, st.Regime, st.Trend)
			}
		}
		if st.Regime != models.RegimeMid && st.Trend != models.TrendSideways {
			t.Fatalf("trend %v active outside mid regime", st.Trend)
		}
		prev = st.Regime
	}
}

func TestTrendDwellWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 10_000; i++ {
		if d := drawTrendTicks(rng); d < trendTicksMin || d >= trendTicksMax {
			t.Fatalf("trend dwell %d outside [%d,%d)", d, trendTicksMin, trendTicksMax)
		}
	}
}

func TestTrendWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	counts := map[models.Trend]int{}
	const n = 100_000
	for i := 0; i < n; i++ {
		counts[drawTrend(rng)]++
	}
	for trend, want := range map[models.Trend]float64{
		models.TrendUp:       0.45,
		models.TrendDown:     0.45,
		models.TrendSideways: 0.10,
	} {
		got := float64(counts[trend]) / n
		if got < want-0.01 || got > want+0.01 {
			t.Fatalf("trend %v frequency %.3f, want ~%.2f", trend, got, want)
		}
	}
}

func TestMidExitWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	counts := map[models.Regime]int{}
	const n = 100_000
	for i := 0; i < n; i++ {
		counts[nextRegime(models.RegimeMid, rng)]++
	}
	for regime, want := range map[models.Regime]float64{
		models.RegimeLow:  0.10,
		models.RegimeHigh: 0.10,
		models.RegimeMid:  0.80,
	} {
		got := float64(counts[regime]) / n
		if got < want-0.01 || got > want+0.01 {
			t.Fatalf("mid exit to %v frequency %.3f, want ~%.2f", regime, got, want)
		}
	}
	if nextRegime(models.RegimeLow, rng) != models.RegimeMid {
		t.Fatalf("low must fall back to mid")
	}
	if nextRegime(models.RegimeHigh, rng) != models.RegimeMid {
		t.Fatalf("high must fall back to mid")
	}
}

func TestWhaleDampeningPullsDown(t *testing.T) {
	// With a huge paper profit the dampening term must drag the average
	// price change negative relative to a flat position.
	const n = 20_000
	run := func(snap models.PositionSnapshot, seed int64) float64 {
		rng := rand.New(rand.NewSource(seed))
		st := newState(90)
		sum := 0.0
		for i := 0; i < n; i++ {
			before := st.Price
			st = Next(st, snap, rng)
			sum += st.Price - before
		}
		return sum / n
	}
	flat := run(models.PositionSnapshot{}, 21)
	whale := run(models.PositionSnapshot{Asset: 1_000_000, AvgCost: 1}, 21)
	if whale >= flat {
		t.Fatalf("expected dampened drift below flat drift: flat=%.6f whale=%.6f", flat, whale)
	}
}

type stubPos struct{ snap models.PositionSnapshot }

func (s stubPos) Snapshot() models.PositionSnapshot { return s.snap }

func TestEngineRunnerTicksAndStops(t *testing.T) {
	tickCh := make(chan models.PriceState, 64)
	e := NewEngine(90, stubPos{},
		WithRand(rand.New(rand.NewSource(1))),
		WithTickDelay(time.Microsecond, 10*time.Microsecond),
		WithObserver(func(st models.PriceState) {
			select {
			case tickCh <- st:
			default:
			}
		}),
	)
	e.Start()

	select {
	case st := <-tickCh:
		if st.Price <= 0 {
			t.Fatalf("non-positive price %v", st.Price)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("engine produced no ticks")
	}

	e.Stop()
	snap := e.Snapshot()
	if snap.Price < Floor() {
		t.Fatalf("snapshot below floor after stop")
	}
	// Stop must be idempotent.
	e.Stop()
}
