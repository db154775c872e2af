package ledger

import (
	"sync"
	"time"
)

// DefaultSettleDelay is the realization lag between a sell and its P&L
// landing in cash.
const DefaultSettleDelay = 2000 * time.Millisecond

// Settler defers crediting of realized P&L. Exactly one settlement is
// scheduled per sell, and each settlement carries the P&L snapshot taken
// at trade time: interleaved sells each settle their own amount, so no
// settlement ever applies a stale aggregate. Flush applies everything
// pending synchronously (session end).
type Settler struct {
	mu       sync.Mutex
	delay    time.Duration
	apply    func(amount float64)
	pending  map[int64]*pendingSettlement
	nextID   int64
	closed   bool
	inFlight sync.WaitGroup
}

type pendingSettlement struct {
	amount float64
	timer  *time.Timer
}

// NewSettler creates a settler. apply is invoked once per settlement, on
// the timer goroutine or inside Flush, with the amount to credit.
func NewSettler(delay time.Duration, apply func(amount float64)) *Settler {
	if delay <= 0 {
		delay = DefaultSettleDelay
	}
	return &Settler{
		delay:   delay,
		apply:   apply,
		pending: make(map[int64]*pendingSettlement),
	}
}

// Schedule queues one settlement for the given realized P&L amount.
func (s *Settler) Schedule(amount float64) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		// Late sell during teardown settles immediately.
		s.apply(amount)
		return
	}
	id := s.nextID
	s.nextID++
	p := &pendingSettlement{amount: amount}
	p.timer = time.AfterFunc(s.delay, func() { s.fire(id) })
	s.pending[id] = p
	s.mu.Unlock()
}

// Pending reports the number of unsettled amounts.
func (s *Settler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Settler) fire(id int64) {
	s.mu.Lock()
	p, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
		s.inFlight.Add(1)
	}
	s.mu.Unlock()
	if ok {
		s.apply(p.amount)
		s.inFlight.Done()
	}
}

// Flush stops all timers, applies every pending settlement synchronously
// and waits for settlements already firing. When Flush returns, nothing is
// left to land: the caller's next write is authoritative. Further Schedule
// calls settle immediately.
func (s *Settler) Flush() {
	s.mu.Lock()
	s.closed = true
	due := make([]float64, 0, len(s.pending))
	for id, p := range s.pending {
		p.timer.Stop()
		due = append(due, p.amount)
		delete(s.pending, id)
	}
	s.mu.Unlock()

	for _, amount := range due {
		s.apply(amount)
	}

	// A timer that beat us to its entry is applying on its own goroutine;
	// it claimed the entry (and the wait counter) under the lock, so the
	// wait here is race-free.
	s.inFlight.Wait()
}
