package wager

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"PaperDesk/internal/domain/models"
)

func fastCrashConfig() CrashConfig {
	cfg := DefaultCrashConfig()
	cfg.PreRoll = 5 * time.Millisecond
	cfg.TickEvery = time.Millisecond
	return cfg
}

func TestCrashRejectsBadStakes(t *testing.T) {
	c := NewCrash("acct", fastCrashConfig(), CrashHooks{}, nil)

	if err := c.Start(0, 100); !errors.Is(err, models.ErrInvalidAmount) {
		t.Fatalf("zero stake: %v, want ErrInvalidAmount", err)
	}
	if err := c.Start(-5, 100); !errors.Is(err, models.ErrInvalidAmount) {
		t.Fatalf("negative stake: %v, want ErrInvalidAmount", err)
	}
	if err := c.Start(101, 100); !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("over stake: %v, want ErrInsufficientFunds", err)
	}
	if c.Status() != models.WagerIdle {
		t.Fatalf("rejection moved status to %v", c.Status())
	}
}

func TestCrashStakeNotAtRiskDuringPreRoll(t *testing.T) {
	w := &wallet{cash: 100}
	cfg := fastCrashConfig()
	cfg.PreRoll = time.Hour // never arms

	c := NewCrash("acct", cfg, CrashHooks{Debit: w.debit, Credit: w.credit}, nil)
	if err := c.Start(100, w.balance()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if c.Status() != models.WagerPendingStart {
		t.Fatalf("status %v, want pending_start", c.Status())
	}
	if got := w.balance(); got != 100 {
		t.Fatalf("stake deducted during pre-roll: balance %v", got)
	}

	c.Stop()
	if got := w.balance(); got != 100 {
		t.Fatalf("stop of pending session cost money: balance %v", got)
	}
	if c.Status() != models.WagerIdle {
		t.Fatalf("status %v after stop", c.Status())
	}
}

func TestCrashWithdrawBanksGain(t *testing.T) {
	w := &wallet{cash: 1000}
	cfg := fastCrashConfig()
	// Zero-risk table so the run cannot blast under us.
	cfg.Standard = StepTable{{UpperBound: math.Inf(1), Probability: 0}}
	cfg.TurboProb = 0

	c := NewCrash("acct", cfg, CrashHooks{Debit: w.debit, Credit: w.credit}, rand.New(rand.NewSource(4)))
	if err := c.Start(200, w.balance()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	waitStatus(t, c.Status, models.WagerRunning)
	if got := w.balance(); got != 800 {
		t.Fatalf("stake not deducted at arm: balance %v", got)
	}

	// Let some gain accumulate.
	deadline := time.After(2 * time.Second)
	for {
		if _, gain, _ := c.Snapshot(); gain > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("gain never accumulated")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	outcome, err := c.Withdraw()
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	want := 200 + 200*(outcome.GainPercent/100)
	if math.Abs(outcome.Payout-want) > 1e-9 {
		t.Fatalf("payout %v, want %v", outcome.Payout, want)
	}
	if got := w.balance(); math.Abs(got-(800+want)) > 1e-9 {
		t.Fatalf("balance %v, want %v", got, 800+want)
	}

	// Terminal state requires an explicit reset.
	if err := c.Start(10, w.balance()); !errors.Is(err, models.ErrSessionConflict) {
		t.Fatalf("start from withdrawn: %v, want ErrSessionConflict", err)
	}
	if err := c.Reset(); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if c.Status() != models.WagerIdle {
		t.Fatalf("status %v after reset", c.Status())
	}
}

func TestCrashBlastForfeitsStake(t *testing.T) {
	w := &wallet{cash: 500}
	cfg := fastCrashConfig()
	// Certain blast on the first tick.
	cfg.Standard = StepTable{{UpperBound: math.Inf(1), Probability: BlastDivisor}}
	cfg.TurboProb = 0

	done := make(chan struct{})
	var outcome models.WagerOutcome
	c := NewCrash("acct", cfg, CrashHooks{
		Debit:  w.debit,
		Credit: w.credit,
		Resolved: func(o models.WagerOutcome) {
			outcome = o
			close(done)
		},
	}, rand.New(rand.NewSource(5)))

	if err := c.Start(100, w.balance()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	<-done

	if outcome.Won {
		t.Fatalf("blast reported as win")
	}
	if got := w.balance(); got != 400 {
		t.Fatalf("balance %v, want 400 (stake forfeited)", got)
	}
	if c.Status() != models.WagerBlasted {
		t.Fatalf("status %v, want blasted", c.Status())
	}
	if _, err := c.Withdraw(); !errors.Is(err, models.ErrSessionConflict) {
		t.Fatalf("withdraw after blast: %v, want ErrSessionConflict", err)
	}
}

func TestCrashWithdrawBeforeArmRejected(t *testing.T) {
	w := &wallet{cash: 100}
	cfg := fastCrashConfig()
	cfg.PreRoll = time.Hour

	c := NewCrash("acct", cfg, CrashHooks{Debit: w.debit, Credit: w.credit}, nil)
	if err := c.Start(50, w.balance()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer c.Stop()

	if _, err := c.Withdraw(); !errors.Is(err, models.ErrSessionConflict) {
		t.Fatalf("withdraw during pre-roll: %v, want ErrSessionConflict", err)
	}
}

func TestCrashTurboRoll(t *testing.T) {
	// With TurboProb = 1 every run arms turbo; the turbo table keeps the
	// run safe below 80% gain.
	w := &wallet{cash: 1000}
	cfg := fastCrashConfig()
	cfg.TurboProb = 1.0

	c := NewCrash("acct", cfg, CrashHooks{Debit: w.debit, Credit: w.credit}, rand.New(rand.NewSource(6)))
	if err := c.Start(100, w.balance()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitStatus(t, c.Status, models.WagerRunning)

	if _, _, turbo := c.Snapshot(); !turbo {
		t.Fatalf("turbo flag not set with TurboProb=1")
	}
	c.Stop()
}

func TestCrashTickUpdatesFlow(t *testing.T) {
	w := &wallet{cash: 1000}
	cfg := fastCrashConfig()
	cfg.Standard = StepTable{{UpperBound: math.Inf(1), Probability: 0}}
	cfg.TurboProb = 0

	var mu sync.Mutex
	var updates []models.CrashUpdate
	c := NewCrash("acct", cfg, CrashHooks{
		Debit:  w.debit,
		Credit: w.credit,
		Tick: func(u models.CrashUpdate) {
			mu.Lock()
			updates = append(updates, u)
			mu.Unlock()
		},
	}, rand.New(rand.NewSource(7)))

	if err := c.Start(100, w.balance()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(updates)
		mu.Unlock()
		if n >= 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("tick updates never flowed")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	c.Stop()

	mu.Lock()
	defer mu.Unlock()
	last := 0.0
	for _, u := range updates {
		if u.GainPercent < last {
			t.Fatalf("gain went backwards: %v after %v", u.GainPercent, last)
		}
		last = u.GainPercent
	}
}
