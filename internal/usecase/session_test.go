package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"PaperDesk/internal/domain/models"
	internalrepo "PaperDesk/internal/repository"
	"PaperDesk/internal/wager"
	"PaperDesk/pkg/cache"
	"PaperDesk/pkg/logger"
)

// captureArchive collects stored ticks in memory.
type captureArchive struct {
	mu    sync.Mutex
	ticks []*models.TickPoint
}

func (a *captureArchive) Init(context.Context) error { return nil }

func (a *captureArchive) StoreTicks(_ context.Context, ticks []*models.TickPoint) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ticks = append(a.ticks, ticks...)
	return nil
}

func (a *captureArchive) StoreTrade(context.Context, string, *models.TradeResult) error { return nil }

func (a *captureArchive) History(context.Context, string, time.Time, time.Time, int) ([]*models.TickPoint, error) {
	return nil, nil
}

func (a *captureArchive) Health(context.Context) error { return nil }
func (a *captureArchive) Close() error                 { return nil }

func (a *captureArchive) stored() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.ticks)
}

func testDeps(t *testing.T) SessionDeps {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return SessionDeps{
		Store: internalrepo.NewCacheAccountStore(cache.NewMemoryCache()),
		Log:   log,
	}
}

func testConfig() SessionConfig {
	cfg := DefaultSessionConfig()
	cfg.TickMin = 5 * time.Millisecond
	cfg.TickMax = 10 * time.Millisecond
	cfg.SettleDelay = 20 * time.Millisecond

	cfg.Ascend = wager.DefaultAscendConfig()
	cfg.Ascend.Duration = 30 * time.Millisecond
	cfg.Ascend.SampleEvery = time.Millisecond

	cfg.Crash = wager.DefaultCrashConfig()
	cfg.Crash.PreRoll = time.Hour // keep pending unless a test arms it
	return cfg
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatalf("%s never happened", what)
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestDeskOpenUnknownAccount(t *testing.T) {
	d := NewDesk(testConfig(), testDeps(t))
	if _, err := d.Open(context.Background(), "ghost"); !errors.Is(err, models.ErrAccountNotFound) {
		t.Fatalf("open unknown: %v, want ErrAccountNotFound", err)
	}
}

func TestBuySellAndDeferredSettlement(t *testing.T) {
	ctx := context.Background()
	d := NewDesk(testConfig(), testDeps(t))
	defer d.CloseAll(ctx)

	s, err := d.Create(ctx, "alice", 10000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	buy, err := s.Buy(ctx, 1000)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if buy.AssetDelta <= 0 || buy.Price <= 0 {
		t.Fatalf("buy result %+v", buy)
	}
	pos := s.Position()
	if pos.Cash != 9000 {
		t.Fatalf("cash after buy %v, want 9000", pos.Cash)
	}
	if pos.AvgCost <= 0 {
		t.Fatalf("avg cost after buy %v", pos.AvgCost)
	}

	sell, err := s.Sell(ctx, 500)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	pos = s.Position()
	// Proceeds land in cash immediately; the P&L stays parked.
	if pos.Cash != 9500 {
		t.Fatalf("cash after sell %v, want 9500", pos.Cash)
	}
	if math.Abs(pos.UnsettledPL-sell.RealizedPL) > 1e-9 {
		t.Fatalf("unsettled %v, want %v", pos.UnsettledPL, sell.RealizedPL)
	}

	waitFor(t, "settlement", func() bool {
		return math.Abs(s.Position().UnsettledPL) < 1e-9
	})
	pos = s.Position()
	if math.Abs(pos.Cash-(9500+sell.RealizedPL)) > 1e-9 {
		t.Fatalf("cash after settlement %v, want %v", pos.Cash, 9500+sell.RealizedPL)
	}
}

func TestTradeRejectionsLeavePositionIntact(t *testing.T) {
	ctx := context.Background()
	d := NewDesk(testConfig(), testDeps(t))
	defer d.CloseAll(ctx)

	s, err := d.Create(ctx, "bob", 100)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.Buy(ctx, 200); !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("over-cash buy: %v", err)
	}
	if _, err := s.Sell(ctx, 10); !errors.Is(err, models.ErrInsufficientAsset) {
		t.Fatalf("sell with no holdings: %v", err)
	}
	if _, err := s.Buy(ctx, -1); !errors.Is(err, models.ErrInvalidAmount) {
		t.Fatalf("negative buy: %v", err)
	}

	pos := s.Position()
	if pos.Cash != 100 || pos.Asset != 0 {
		t.Fatalf("rejections moved the position: %+v", pos)
	}
}

func TestWagerMutualExclusion(t *testing.T) {
	ctx := context.Background()
	d := NewDesk(testConfig(), testDeps(t))
	defer d.CloseAll(ctx)

	s, err := d.Create(ctx, "carol", 1000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.StartCrash(100); err != nil {
		t.Fatalf("start crash: %v", err)
	}
	if err := s.StartAscend(100, models.DirectionUp); !errors.Is(err, models.ErrSessionConflict) {
		t.Fatalf("ascend during crash: %v, want ErrSessionConflict", err)
	}
	if err := s.StartCrash(100); !errors.Is(err, models.ErrSessionConflict) {
		t.Fatalf("second crash: %v, want ErrSessionConflict", err)
	}
}

func TestAscendThroughSessionPaysIntoCash(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Ascend.WinProb = 1.0

	d := NewDesk(cfg, testDeps(t))
	defer d.CloseAll(ctx)

	s, err := d.Create(ctx, "dave", 1000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.StartAscend(100, models.DirectionUp); err != nil {
		t.Fatalf("start ascend: %v", err)
	}
	if got := s.Position().Cash; got != 900 {
		t.Fatalf("stake not deducted: cash %v", got)
	}

	// 100 stake at rate 1.4 credits 140 back, netting +40.
	waitFor(t, "ascend win credit", func() bool {
		return s.Position().Cash == 1040
	})
	if s.Dashboard().AscendStatus != "resolved" {
		t.Fatalf("status after resolution %v", s.Dashboard().AscendStatus)
	}

	if err := s.ResetWager(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if s.Dashboard().AscendStatus != "idle" {
		t.Fatalf("status after reset %v", s.Dashboard().AscendStatus)
	}
}

func TestDashboardView(t *testing.T) {
	ctx := context.Background()
	d := NewDesk(testConfig(), testDeps(t))
	defer d.CloseAll(ctx)

	s, err := d.Create(ctx, "erin", 500)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	v := s.Dashboard()
	if v.AccountID != "erin" || v.Price <= 0 {
		t.Fatalf("dashboard %+v", v)
	}
	if v.AscendStatus != "idle" || v.CrashStatus != "idle" {
		t.Fatalf("fresh session not idle: %+v", v)
	}
	if v.Regime == "" || v.Trend == "" {
		t.Fatalf("regime or trend missing: %+v", v)
	}
}

func TestCloseFlushesSettlementsAndPersists(t *testing.T) {
	ctx := context.Background()
	deps := testDeps(t)
	d := NewDesk(testConfig(), deps)

	s, err := d.Create(ctx, "frank", 10000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Buy(ctx, 1000); err != nil {
		t.Fatalf("buy: %v", err)
	}
	sell, err := s.Sell(ctx, 400)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}

	// Close before the settle delay elapses; the flush must apply it.
	if err := d.Close(ctx, "frank"); err != nil {
		t.Fatalf("close: %v", err)
	}

	rec, err := deps.Store.Load(ctx, "frank")
	if err != nil {
		t.Fatalf("load after close: %v", err)
	}
	want := 9400 + sell.RealizedPL
	if math.Abs(rec.Cash-want) > 1e-9 {
		t.Fatalf("persisted cash %v, want %v", rec.Cash, want)
	}

	if err := d.Close(ctx, "frank"); !errors.Is(err, models.ErrAccountNotFound) {
		t.Fatalf("double close: %v, want ErrAccountNotFound", err)
	}
}

func TestCloseDrainsBufferedTicks(t *testing.T) {
	ctx := context.Background()
	archive := &captureArchive{}
	deps := testDeps(t)
	deps.Archive = archive

	cfg := testConfig()
	cfg.ArchiveBatch = 100_000 // never auto-flush; Close must drain

	d := NewDesk(cfg, deps)
	s, err := d.Create(ctx, "hank", 1000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Wait for a few ticks to land in the buffer.
	waitFor(t, "buffered ticks", func() bool {
		return s.engine.Snapshot().Price != cfg.StartPrice
	})
	time.Sleep(20 * time.Millisecond)

	if got := archive.stored(); got != 0 {
		t.Fatalf("archive flushed %d ticks before close", got)
	}
	if err := d.Close(ctx, "hank"); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := archive.stored(); got == 0 {
		t.Fatalf("close dropped the buffered ticks")
	}
}

func TestReopenResumesFromRecord(t *testing.T) {
	ctx := context.Background()
	deps := testDeps(t)
	d := NewDesk(testConfig(), deps)
	defer d.CloseAll(ctx)

	s, err := d.Create(ctx, "grace", 2500)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Buy(ctx, 500); err != nil {
		t.Fatalf("buy: %v", err)
	}
	pos := s.Position()
	if err := d.Close(ctx, "grace"); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := d.Open(ctx, "grace")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	pos2 := s2.Position()
	if pos2.Cash != pos.Cash || math.Abs(pos2.Asset-pos.Asset) > 1e-9 {
		t.Fatalf("reopened position %+v, want %+v", pos2, pos)
	}
}
