package wager

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"PaperDesk/internal/domain/models"
)

// wallet is a minimal ledger stand-in for engine tests.
type wallet struct {
	mu   sync.Mutex
	cash float64
}

func (w *wallet) debit(stake float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if stake <= 0 {
		return models.ErrInvalidAmount
	}
	if stake > w.cash {
		return models.ErrInsufficientFunds
	}
	w.cash -= stake
	return nil
}

func (w *wallet) credit(amount float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cash += amount
}

func (w *wallet) balance() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cash
}

func fastAscendConfig() AscendConfig {
	cfg := DefaultAscendConfig()
	cfg.Duration = 20 * time.Millisecond
	cfg.SampleEvery = time.Millisecond
	return cfg
}

func waitStatus(t *testing.T, status func() models.WagerStatus, want models.WagerStatus) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for status() != want {
		select {
		case <-deadline:
			t.Fatalf("status %v never reached, stuck at %v", want, status())
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestAscendWinPaysPayoutRate(t *testing.T) {
	w := &wallet{cash: 1000}
	cfg := fastAscendConfig()
	cfg.WinProb = 1.0 // force the win branch

	var outcome models.WagerOutcome
	done := make(chan struct{})
	a := NewAscend("acct", cfg, AscendHooks{
		Debit:  w.debit,
		Credit: w.credit,
		Resolved: func(o models.WagerOutcome) {
			outcome = o
			close(done)
		},
	}, rand.New(rand.NewSource(1)))

	if err := a.Start(100, models.DirectionUp); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if got := w.balance(); got != 900 {
		t.Fatalf("stake not deducted: balance %v", got)
	}

	<-done
	// 100 stake at rate 1.4: full payout credited, netting +40.
	if got := w.balance(); got != 1040 {
		t.Fatalf("balance %v, want 1040", got)
	}
	if !outcome.Won || outcome.Payout != 140 {
		t.Fatalf("outcome %+v, want win with payout 140", outcome)
	}

	waitStatus(t, a.Status, models.WagerResolved)
	if err := a.Reset(); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if a.Status() != models.WagerIdle {
		t.Fatalf("status %v after reset", a.Status())
	}
}

func TestAscendLossForfeitsStake(t *testing.T) {
	w := &wallet{cash: 500}
	cfg := fastAscendConfig()
	cfg.WinProb = 0.0 // force the loss branch

	done := make(chan struct{})
	a := NewAscend("acct", cfg, AscendHooks{
		Debit:    w.debit,
		Credit:   w.credit,
		Resolved: func(models.WagerOutcome) { close(done) },
	}, rand.New(rand.NewSource(2)))

	if err := a.Start(200, models.DirectionDown); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	<-done
	if got := w.balance(); got != 300 {
		t.Fatalf("balance %v, want 300 (stake forfeited)", got)
	}
}

func TestAscendRejectsOverStake(t *testing.T) {
	w := &wallet{cash: 50}
	a := NewAscend("acct", fastAscendConfig(), AscendHooks{Debit: w.debit, Credit: w.credit}, nil)

	if err := a.Start(100, models.DirectionUp); !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("error %v, want ErrInsufficientFunds", err)
	}
	if got := w.balance(); got != 50 {
		t.Fatalf("rejection touched balance: %v", got)
	}
	if a.Status() != models.WagerIdle {
		t.Fatalf("rejection moved status to %v", a.Status())
	}
}

func TestAscendSingleSession(t *testing.T) {
	w := &wallet{cash: 1000}
	a := NewAscend("acct", fastAscendConfig(), AscendHooks{Debit: w.debit, Credit: w.credit}, nil)

	if err := a.Start(10, models.DirectionUp); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := a.Start(10, models.DirectionUp); !errors.Is(err, models.ErrSessionConflict) {
		t.Fatalf("second start: %v, want ErrSessionConflict", err)
	}
	a.Stop()
}

func TestAscendEmitsSamples(t *testing.T) {
	w := &wallet{cash: 1000}
	var mu sync.Mutex
	var samples []models.AscendSample
	done := make(chan struct{})

	a := NewAscend("acct", fastAscendConfig(), AscendHooks{
		Debit:  w.debit,
		Credit: w.credit,
		Sample: func(s models.AscendSample) {
			mu.Lock()
			samples = append(samples, s)
			mu.Unlock()
		},
		Resolved: func(models.WagerOutcome) { close(done) },
	}, rand.New(rand.NewSource(3)))

	if err := a.Start(10, models.DirectionUp); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(samples) == 0 {
		t.Fatalf("no presentation samples emitted")
	}
	for _, s := range samples {
		if s.Progress < 0 || s.Progress >= 1 {
			t.Fatalf("sample progress %v out of range", s.Progress)
		}
	}
}
