package market

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"PaperDesk/internal/domain/models"
)

// Volatility bands of the base draw: 90% small moves, 8% medium, 2% spikes
// with a fair-coin sign.
const (
	smallBandProb = 0.90
	midBandProb   = 0.98

	smallMovePct = 0.005
	midMovePct   = 0.02
	spikeMinPct  = 0.04
	spikeMaxPct  = 0.08

	// Dampening factor of the adaptive downward pull on paper profits.
	whaleDamp = 0.1 / 1000
)

// PositionReader hands the engine a snapshot of the account position for
// the dampening term. The engine never locks the ledger; staleness by one
// tick is fine.
type PositionReader interface {
	Snapshot() models.PositionSnapshot
}

// Observer receives each new state on the engine's tick goroutine. Keep it
// fast; hand off to channels for anything slow.
type Observer func(models.PriceState)

// Next advances the price by one tick. Pure function of state, position
// snapshot and the random source; the runner below owns the mutation.
func Next(st models.PriceState, pos models.PositionSnapshot, rng *rand.Rand) models.PriceState {
	spec := Table[st.Regime]

	// Regime transition. A change forces the trend back to sideways.
	if rng.Float64() < spec.LeaveProb {
		next := nextRegime(st.Regime, rng)
		if next != st.Regime {
			st.Regime = next
			st.Trend = models.TrendSideways
			st.TrendTicksLeft = 0
			spec = Table[st.Regime]
		}
	}

	// Trend refresh. Only mid carries a trend; elsewhere it is pinned
	// sideways without consuming a duration counter.
	if st.Regime == models.RegimeMid {
		if st.TrendTicksLeft <= 0 {
			st.Trend = drawTrend(rng)
			st.TrendTicksLeft = drawTrendTicks(rng)
		} else {
			st.TrendTicksLeft--
		}
	} else {
		st.Trend = models.TrendSideways
		st.TrendTicksLeft = 0
	}

	price := st.Price

	// Base volatility draw.
	var delta float64
	switch u := rng.Float64(); {
	case u < smallBandProb:
		delta = price * uniform(rng, -smallMovePct, smallMovePct)
	case u < midBandProb:
		delta = price * uniform(rng, -midMovePct, midMovePct)
	default:
		mag := uniform(rng, spikeMinPct, spikeMaxPct)
		if rng.Float64() < 0.5 {
			mag = -mag
		}
		delta = price * mag
	}

	// Trend bias.
	if st.Regime == models.RegimeMid {
		switch st.Trend {
		case models.TrendUp:
			delta += price * trendBias * rng.Float64()
		case models.TrendDown:
			delta -= price * trendBias * rng.Float64()
		}
	}

	// Adaptive dampening: the larger the account's paper profit, the
	// stronger the extra downward pull.
	if pos.Asset > 0 {
		if unrealized := (price - pos.AvgCost) * pos.Asset; unrealized > 0 {
			delta -= price * math.Log1p(unrealized) * whaleDamp * rng.Float64()
		}
	}

	price += delta

	// Soft pull-back toward the nearest band bound: a fraction
	// min(0.5, relative overshoot) of the overshoot, never a hard clamp.
	if band := spec.Band; price > band.Max {
		over := price - band.Max
		price -= over * math.Min(0.5, over/band.Max)
	} else if price < band.Min {
		under := band.Min - price
		price += under * math.Min(0.5, under/band.Min)
	}

	if floor := Floor(); price < floor {
		price = floor
	}

	st.Price = price
	return st
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// Engine drives the price on its own timer stream with a randomized
// inter-tick delay. It owns its PriceState exclusively; Snapshot is the
// only read path for everyone else.
type Engine struct {
	mu    sync.RWMutex
	state models.PriceState

	rng       *rand.Rand
	pos       PositionReader
	minDelay  time.Duration
	maxDelay  time.Duration
	observers []Observer

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTickDelay sets the inter-tick delay bounds, uniform in [min,max).
func WithTickDelay(min, max time.Duration) EngineOption {
	return func(e *Engine) {
		if min > 0 && max > min {
			e.minDelay, e.maxDelay = min, max
		}
	}
}

// WithRand sets the engine's random source (deterministic tests).
func WithRand(rng *rand.Rand) EngineOption {
	return func(e *Engine) { e.rng = rng }
}

// WithObserver appends a per-tick observer.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// NewEngine creates a stopped engine starting at the given price in the
// mid regime.
func NewEngine(startPrice float64, pos PositionReader, opts ...EngineOption) *Engine {
	e := &Engine{
		state: models.PriceState{
			Price:  startPrice,
			Regime: models.RegimeMid,
			Trend:  models.TrendSideways,
		},
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		pos:      pos,
		minDelay: 1000 * time.Millisecond,
		maxDelay: 1500 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() models.PriceState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Start launches the tick loop. Safe to call once.
func (e *Engine) Start() {
	e.startOnce.Do(func() {
		go e.loop()
	})
}

// Stop cancels the timer stream and waits for the loop to exit. This is
// the only cancellation primitive; there is no mid-tick preemption.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
	<-e.doneCh
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	timer := time.NewTimer(e.nextDelay())
	defer timer.Stop()
	for {
		select {
		case <-e.stopCh:
			return
		case <-timer.C:
			e.tick()
			timer.Reset(e.nextDelay())
		}
	}
}

func (e *Engine) tick() {
	var snap models.PositionSnapshot
	if e.pos != nil {
		snap = e.pos.Snapshot()
	}

	e.mu.Lock()
	e.state = Next(e.state, snap, e.rng)
	st := e.state
	e.mu.Unlock()

	for _, o := range e.observers {
		o(st)
	}
}

func (e *Engine) nextDelay() time.Duration {
	return e.minDelay + time.Duration(e.rng.Int63n(int64(e.maxDelay-e.minDelay)))
}
