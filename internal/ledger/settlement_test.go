package ledger

import (
	"sync"
	"testing"
	"time"
)

type creditSink struct {
	mu      sync.Mutex
	credits []float64
}

func (c *creditSink) apply(amount float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credits = append(c.credits, amount)
}

func (c *creditSink) total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	sum := 0.0
	for _, v := range c.credits {
		sum += v
	}
	return sum
}

func TestSettlementFiresAfterDelay(t *testing.T) {
	sink := &creditSink{}
	s := NewSettler(20*time.Millisecond, sink.apply)
	s.Schedule(42)

	if sink.total() != 0 {
		t.Fatalf("settled before delay elapsed")
	}

	deadline := time.After(2 * time.Second)
	for sink.total() == 0 {
		select {
		case <-deadline:
			t.Fatalf("settlement never fired")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	if got := sink.total(); got != 42 {
		t.Fatalf("settled %v, want 42", got)
	}
	if s.Pending() != 0 {
		t.Fatalf("pending %d after settlement", s.Pending())
	}
}

func TestInterleavedSellsSettleOwnAmounts(t *testing.T) {
	sink := &creditSink{}
	s := NewSettler(10*time.Millisecond, sink.apply)
	s.Schedule(10)
	s.Schedule(-4)
	s.Schedule(7)

	deadline := time.After(2 * time.Second)
	for sink.total() != 13 {
		select {
		case <-deadline:
			t.Fatalf("settlements incomplete: got %v, want 13", sink.total())
		default:
			time.Sleep(time.Millisecond)
		}
	}
	sink.mu.Lock()
	n := len(sink.credits)
	sink.mu.Unlock()
	if n != 3 {
		t.Fatalf("expected 3 settlements, got %d", n)
	}
}

func TestFlushWaitsForFiringSettlements(t *testing.T) {
	// Race Flush against the timer repeatedly. Whichever side claims the
	// entry, the amount must be fully applied by the time Flush returns.
	for i := 0; i < 200; i++ {
		sink := &creditSink{}
		s := NewSettler(time.Millisecond, sink.apply)
		s.Schedule(3)
		time.Sleep(time.Millisecond)
		s.Flush()
		if got := sink.total(); got != 3 {
			t.Fatalf("iteration %d: flush returned with %v settled, want 3", i, got)
		}
	}
}

func TestScheduleAfterFlushSettlesInline(t *testing.T) {
	sink := &creditSink{}
	s := NewSettler(time.Hour, sink.apply)
	s.Flush()

	s.Schedule(9)
	if got := sink.total(); got != 9 {
		t.Fatalf("late schedule settled %v, want 9 immediately", got)
	}
}

func TestFlushSettlesSynchronously(t *testing.T) {
	sink := &creditSink{}
	s := NewSettler(time.Hour, sink.apply)
	s.Schedule(5)
	s.Schedule(6)

	s.Flush()
	if got := sink.total(); got != 11 {
		t.Fatalf("flush settled %v, want 11", got)
	}
	if s.Pending() != 0 {
		t.Fatalf("pending %d after flush", s.Pending())
	}
}
