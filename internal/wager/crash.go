package wager

import (
	"math/rand"
	"sync"
	"time"

	"PaperDesk/internal/domain/models"
)

// CrashConfig tunes the escalating-crash engine.
type CrashConfig struct {
	PreRoll   time.Duration // delay before the stake goes at risk
	TickEvery time.Duration
	TurboProb float64 // chance of the turbo risk profile, rolled at delay end
	GainMax   float64 // per-tick gain increment upper bound, percent
	Standard  StepTable
	Turbo     StepTable
}

// DefaultCrashConfig returns the reference tuning.
func DefaultCrashConfig() CrashConfig {
	return CrashConfig{
		PreRoll:   3000 * time.Millisecond,
		TickEvery: 50 * time.Millisecond,
		TurboProb: 0.08,
		GainMax:   0.5,
		Standard:  StandardBlastTable,
		Turbo:     TurboBlastTable,
	}
}

// CrashHooks connect the engine to the ledger and presentation. Debit runs
// at pre-roll end, not at Start.
type CrashHooks struct {
	Debit    func(stake float64) error
	Credit   func(amount float64)
	Tick     func(u models.CrashUpdate)
	Resolved func(o models.WagerOutcome)
}

// Crash is the escalating-crash engine:
// Idle -> PendingStart -> Running -> {Blasted | Withdrawn} -> Idle.
// Gain accumulates each tick; an independent blast draw each tick uses the
// active step table over the current gain. Withdraw before the blast
// banks stake plus gain; the blast forfeits the stake. A terminal session
// must be reset before a new stake.
type Crash struct {
	mu    sync.Mutex
	cfg   CrashConfig
	hooks CrashHooks
	rng   *rand.Rand

	accountID string
	status    models.WagerStatus
	stake     float64
	gain      float64 // accumulated gain percent
	turbo     bool

	cancel chan struct{}
}

// NewCrash creates an idle engine.
func NewCrash(accountID string, cfg CrashConfig, hooks CrashHooks, rng *rand.Rand) *Crash {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Crash{accountID: accountID, cfg: cfg, hooks: hooks, rng: rng}
}

// Status returns the session status.
func (c *Crash) Status() models.WagerStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Snapshot returns status, accumulated gain and turbo flag.
func (c *Crash) Snapshot() (models.WagerStatus, float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.gain, c.turbo
}

// Start validates the stake and enters the pre-roll. The stake is not yet
// at risk during the delay; it is deducted when ticking begins.
func (c *Crash) Start(stake float64, available float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != models.WagerIdle {
		return models.ErrSessionConflict
	}
	if stake <= 0 {
		return models.ErrInvalidAmount
	}
	if stake > available {
		return models.ErrInsufficientFunds
	}

	c.status = models.WagerPendingStart
	c.stake = stake
	c.gain = 0
	c.turbo = false
	c.cancel = make(chan struct{})

	go c.run(c.cancel)
	return nil
}

func (c *Crash) run(cancel chan struct{}) {
	select {
	case <-cancel:
		return
	case <-time.After(c.cfg.PreRoll):
	}

	if !c.arm(cancel) {
		return
	}

	ticker := time.NewTicker(c.cfg.TickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			if done := c.tick(cancel); done {
				return
			}
		}
	}
}

// arm deducts the stake and rolls the turbo flag at pre-roll end.
func (c *Crash) arm(cancel chan struct{}) bool {
	c.mu.Lock()
	if c.cancel != cancel || c.status != models.WagerPendingStart {
		c.mu.Unlock()
		return false
	}
	if err := c.hooks.Debit(c.stake); err != nil {
		// Balance moved during the pre-roll; abort without risk.
		c.status = models.WagerIdle
		c.stake = 0
		c.mu.Unlock()
		return false
	}
	c.turbo = c.rng.Float64() < c.cfg.TurboProb
	c.status = models.WagerRunning
	c.mu.Unlock()
	return true
}

func (c *Crash) tick(cancel chan struct{}) bool {
	c.mu.Lock()
	if c.cancel != cancel || c.status != models.WagerRunning {
		c.mu.Unlock()
		return true
	}

	c.gain += c.rng.Float64() * c.cfg.GainMax
	table := c.cfg.Standard
	if c.turbo {
		table = c.cfg.Turbo
	}
	blasted := c.rng.Float64() < table.Lookup(c.gain)/BlastDivisor

	update := models.CrashUpdate{AccountID: c.accountID, GainPercent: c.gain, Turbo: c.turbo}
	tickFn := c.hooks.Tick

	var outcome models.WagerOutcome
	if blasted {
		c.status = models.WagerBlasted
		outcome = models.WagerOutcome{
			AccountID:   c.accountID,
			Mode:        models.WagerCrash,
			Won:         false,
			Stake:       c.stake,
			GainPercent: c.gain,
			At:          time.Now(),
		}
	}
	c.mu.Unlock()

	if tickFn != nil {
		tickFn(update)
	}
	if blasted {
		if c.hooks.Resolved != nil {
			c.hooks.Resolved(outcome)
		}
		return true
	}
	return false
}

// Withdraw banks the stake plus accumulated gain. Valid only while the
// session is running (a pre-roll session has nothing at risk to withdraw).
func (c *Crash) Withdraw() (models.WagerOutcome, error) {
	c.mu.Lock()
	if c.status != models.WagerRunning {
		c.mu.Unlock()
		return models.WagerOutcome{}, models.ErrSessionConflict
	}
	c.status = models.WagerWithdrawn
	payout := c.stake + c.stake*(c.gain/100)
	outcome := models.WagerOutcome{
		AccountID:   c.accountID,
		Mode:        models.WagerCrash,
		Won:         true,
		Stake:       c.stake,
		Payout:      payout,
		GainPercent: c.gain,
		At:          time.Now(),
	}
	if c.cancel != nil {
		close(c.cancel)
		c.cancel = nil
	}
	c.mu.Unlock()

	c.hooks.Credit(payout)
	if c.hooks.Resolved != nil {
		c.hooks.Resolved(outcome)
	}
	return outcome, nil
}

// Reset acknowledges a terminal session, returning the engine to idle.
func (c *Crash) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != models.WagerBlasted && c.status != models.WagerWithdrawn {
		return models.ErrSessionConflict
	}
	c.status = models.WagerIdle
	c.stake = 0
	c.gain = 0
	c.turbo = false
	return nil
}

// Stop cancels the timer stream (session end). A pending session never
// deducted its stake; a running session's stake stays forfeited.
func (c *Crash) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		close(c.cancel)
		c.cancel = nil
	}
	if c.status == models.WagerPendingStart || c.status == models.WagerRunning {
		c.status = models.WagerIdle
		c.stake = 0
		c.gain = 0
	}
}
