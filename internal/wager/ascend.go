package wager

import (
	"math/rand"
	"sync"
	"time"

	"PaperDesk/internal/domain/models"
)

// AscendConfig tunes the ascending bet engine.
type AscendConfig struct {
	WinProb     float64       // biased coin drawn once at start
	PayoutRate  float64       // credited on win, stake included
	Duration    time.Duration // fixed animation phase
	SampleEvery time.Duration // presentation sample cadence
}

// DefaultAscendConfig returns the reference tuning.
func DefaultAscendConfig() AscendConfig {
	return AscendConfig{
		WinProb:     0.60,
		PayoutRate:  1.4,
		Duration:    5000 * time.Millisecond,
		SampleEvery: 50 * time.Millisecond,
	}
}

// AscendHooks connect the engine to the ledger and presentation. Debit
// must reject with the usual taxonomy; Credit must never fail. Sample and
// Resolved are optional.
type AscendHooks struct {
	Debit    func(stake float64) error
	Credit   func(amount float64)
	Sample   func(s models.AscendSample)
	Resolved func(o models.WagerOutcome)
}

// Ascend is the ascending-bet engine: Idle -> Running -> Resolved -> Idle.
// The win/loss outcome is decided by a single biased draw at start; the
// timed phase only produces presentation samples. One session at a time.
type Ascend struct {
	mu    sync.Mutex
	cfg   AscendConfig
	hooks AscendHooks
	rng   *rand.Rand

	accountID string
	status    models.WagerStatus
	stake     float64
	direction models.WagerDirection
	won       bool
	altitude  float64

	cancel chan struct{}
}

// NewAscend creates an idle engine.
func NewAscend(accountID string, cfg AscendConfig, hooks AscendHooks, rng *rand.Rand) *Ascend {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Ascend{accountID: accountID, cfg: cfg, hooks: hooks, rng: rng}
}

// Status returns the session status.
func (a *Ascend) Status() models.WagerStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Start places the stake and begins the timed phase. The stake is deducted
// immediately and is not refundable once the session is running.
func (a *Ascend) Start(stake float64, dir models.WagerDirection) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status != models.WagerIdle {
		return models.ErrSessionConflict
	}
	if err := a.hooks.Debit(stake); err != nil {
		return err
	}

	// The outcome is fixed here, before the animation plays.
	win := a.rng.Float64() < a.cfg.WinProb
	predetermined := dir
	if !win {
		if dir == models.DirectionUp {
			predetermined = models.DirectionDown
		} else {
			predetermined = models.DirectionUp
		}
	}

	a.status = models.WagerRunning
	a.stake = stake
	a.direction = dir
	a.won = predetermined == dir
	a.altitude = 0.5
	a.cancel = make(chan struct{})

	go a.run(a.cancel, predetermined)
	return nil
}

func (a *Ascend) run(cancel chan struct{}, predetermined models.WagerDirection) {
	target := 1.0
	if predetermined == models.DirectionDown {
		target = 0.0
	}

	started := time.Now()
	ticker := time.NewTicker(a.cfg.SampleEvery)
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case now := <-ticker.C:
			progress := float64(now.Sub(started)) / float64(a.cfg.Duration)
			if progress >= 1 {
				a.resolve(cancel)
				return
			}
			a.sample(cancel, progress, target)
		}
	}
}

// sample drifts the altitude toward the predetermined target with noise.
func (a *Ascend) sample(cancel chan struct{}, progress, target float64) {
	a.mu.Lock()
	if a.cancel != cancel || a.status != models.WagerRunning {
		a.mu.Unlock()
		return
	}
	a.altitude += (target-a.altitude)*0.08*progress + (a.rng.Float64()-0.5)*0.04
	s := models.AscendSample{AccountID: a.accountID, Progress: progress, Altitude: a.altitude}
	fn := a.hooks.Sample
	a.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}

func (a *Ascend) resolve(cancel chan struct{}) {
	a.mu.Lock()
	if a.cancel != cancel || a.status != models.WagerRunning {
		a.mu.Unlock()
		return
	}
	a.status = models.WagerResolved
	outcome := models.WagerOutcome{
		AccountID: a.accountID,
		Mode:      models.WagerAscend,
		Won:       a.won,
		Stake:     a.stake,
		At:        time.Now(),
	}
	if a.won {
		outcome.Payout = a.stake * a.cfg.PayoutRate
	}
	a.mu.Unlock()

	if outcome.Won {
		a.hooks.Credit(outcome.Payout)
	}
	if a.hooks.Resolved != nil {
		a.hooks.Resolved(outcome)
	}
}

// Reset acknowledges a resolved session, returning the engine to idle.
func (a *Ascend) Reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != models.WagerResolved {
		return models.ErrSessionConflict
	}
	a.status = models.WagerIdle
	a.stake = 0
	return nil
}

// Stop cancels the timer stream (session end). A running session's stake
// stays forfeited; no resolution fires.
func (a *Ascend) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		close(a.cancel)
		a.cancel = nil
	}
	if a.status == models.WagerRunning {
		a.status = models.WagerIdle
	}
}
