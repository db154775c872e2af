package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PaperDesk/internal/domain/models"
	drepo "PaperDesk/internal/domain/repository"
	"PaperDesk/internal/ledger"
	"PaperDesk/internal/market"
	"PaperDesk/internal/wager"
	"PaperDesk/pkg/logger"
)

// SessionConfig carries the per-session tuning. Zero values fall back to
// the reference tuning of each engine.
type SessionConfig struct {
	StartPrice   float64
	TickMin      time.Duration
	TickMax      time.Duration
	SettleDelay  time.Duration
	ArchiveBatch int
	Ascend       wager.AscendConfig
	Crash        wager.CrashConfig
}

// DefaultSessionConfig returns the reference tuning.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		StartPrice:   90,
		TickMin:      1000 * time.Millisecond,
		TickMax:      1500 * time.Millisecond,
		SettleDelay:  ledger.DefaultSettleDelay,
		ArchiveBatch: 20,
		Ascend:       wager.DefaultAscendConfig(),
		Crash:        wager.DefaultCrashConfig(),
	}
}

// SessionDeps are the session's collaborators. Store and Log are required;
// the rest are optional and nil disables them.
type SessionDeps struct {
	Store     drepo.AccountStore
	Archive   drepo.TickArchive
	Publisher drepo.EventPublisher
	Hub       drepo.Broadcaster
	Metrics   drepo.Metrics
	Log       *logger.Logger
}

// Session binds one account's position to its price engine, wager engines
// and settler. The position is guarded by its own mutex; the price engine
// only ever sees copies through Snapshot, so a tick never blocks a trade.
type Session struct {
	accountID string
	cfg       SessionConfig
	deps      SessionDeps

	mu  sync.Mutex
	pos models.Position

	engine  *market.Engine
	ascend  *wager.Ascend
	crash   *wager.Crash
	settler *ledger.Settler

	tickBuf       []*models.TickPoint
	lastPriceSave time.Time
}

// NewSession builds a session from a loaded account record. The engines are
// created stopped; call Start to begin ticking.
func NewSession(accountID string, rec *models.AccountRecord, cfg SessionConfig, deps SessionDeps) *Session {
	s := &Session{
		accountID: accountID,
		cfg:       cfg,
		deps:      deps,
		pos: models.Position{
			Cash:    rec.Cash,
			Asset:   rec.Asset,
			AvgCost: rec.AvgCost,
		},
	}

	startPrice := rec.LastPrice
	if startPrice <= 0 {
		startPrice = cfg.StartPrice
	}

	s.settler = ledger.NewSettler(cfg.SettleDelay, s.settle)
	s.engine = market.NewEngine(startPrice, s,
		market.WithTickDelay(cfg.TickMin, cfg.TickMax),
		market.WithObserver(s.onTick),
	)
	s.ascend = wager.NewAscend(accountID, cfg.Ascend, wager.AscendHooks{
		Debit:    s.debitCash,
		Credit:   s.creditCash,
		Sample:   s.onAscendSample,
		Resolved: s.onWagerResolved,
	}, nil)
	s.crash = wager.NewCrash(accountID, cfg.Crash, wager.CrashHooks{
		Debit:    s.debitCash,
		Credit:   s.creditCash,
		Tick:     s.onCrashTick,
		Resolved: s.onWagerResolved,
	}, nil)

	return s
}

// Start launches the price engine.
func (s *Session) Start() {
	s.engine.Start()
}

// Snapshot hands the price engine the position fields it may read.
func (s *Session) Snapshot() models.PositionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos.Snapshot()
}

// Position returns a copy of the full position.
func (s *Session) Position() models.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// Buy converts cash into asset at the current engine price.
func (s *Session) Buy(ctx context.Context, usdAmount float64) (models.TradeResult, error) {
	return s.trade(ctx, models.SideBuy, usdAmount)
}

// Sell converts asset back into cash at the current engine price. The
// realized P&L is scheduled for deferred settlement, not credited inline.
func (s *Session) Sell(ctx context.Context, usdAmount float64) (models.TradeResult, error) {
	return s.trade(ctx, models.SideSell, usdAmount)
}

func (s *Session) trade(ctx context.Context, side models.TradeSide, usdAmount float64) (models.TradeResult, error) {
	start := time.Now()
	price := s.engine.Snapshot().Price

	s.mu.Lock()
	next, res, err := ledger.Apply(s.pos, side, usdAmount, price)
	if err != nil {
		s.mu.Unlock()
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordError("trade")
		}
		return models.TradeResult{}, err
	}
	s.pos = next
	rec := s.record(price)
	s.mu.Unlock()

	if side == models.SideSell {
		s.settler.Schedule(res.RealizedPL)
	}

	s.persist(ctx, rec)
	s.publish(ctx, models.TradeEvent{Type: "trade", AccountID: s.accountID, Trade: res})
	if s.deps.Archive != nil {
		if err := s.deps.Archive.StoreTrade(ctx, s.accountID, &res); err != nil {
			s.deps.Log.Warn("trade archive failed", logger.Error(err))
		}
	}
	if s.deps.Hub != nil {
		s.deps.Hub.Broadcast("trade", models.TradeEvent{Type: "trade", AccountID: s.accountID, Trade: res})
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordTrade(string(side))
		s.deps.Metrics.RecordLatency("trade", time.Since(start).Seconds())
	}

	return res, nil
}

// settle credits one sell's realized P&L into cash. Runs on the settler's
// timer goroutine or inside Flush.
func (s *Session) settle(amount float64) {
	s.mu.Lock()
	s.pos.Cash += amount
	s.pos.UnsettledPL -= amount
	rec := s.record(s.engine.Snapshot().Price)
	s.mu.Unlock()

	ctx := context.Background()
	ev := models.SettlementEvent{Type: "settlement", AccountID: s.accountID, Amount: amount, At: time.Now()}
	s.persist(ctx, rec)
	s.publish(ctx, ev)
	if s.deps.Hub != nil {
		s.deps.Hub.Broadcast("settlement", ev)
	}
}

// StartAscend opens an ascending-bet session. One wager at a time across
// both engines.
func (s *Session) StartAscend(stake float64, dir models.WagerDirection) error {
	if s.crash.Status() != models.WagerIdle {
		return models.ErrSessionConflict
	}
	if dir != models.DirectionUp && dir != models.DirectionDown {
		return models.ErrInvalidAmount
	}
	return s.ascend.Start(stake, dir)
}

// StartCrash opens an escalating-crash session. One wager at a time across
// both engines.
func (s *Session) StartCrash(stake float64) error {
	if s.ascend.Status() != models.WagerIdle {
		return models.ErrSessionConflict
	}
	s.mu.Lock()
	available := s.pos.Cash
	s.mu.Unlock()
	return s.crash.Start(stake, available)
}

// WithdrawCrash banks a running crash session.
func (s *Session) WithdrawCrash() (models.WagerOutcome, error) {
	return s.crash.Withdraw()
}

// ResetWager acknowledges whichever wager session sits in a terminal state.
func (s *Session) ResetWager() error {
	if err := s.ascend.Reset(); err == nil {
		return nil
	}
	return s.crash.Reset()
}

// debitCash removes a stake from cash, all-or-nothing.
func (s *Session) debitCash(stake float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stake <= 0 {
		return models.ErrInvalidAmount
	}
	if stake > s.pos.Cash {
		return models.ErrInsufficientFunds
	}
	s.pos.Cash -= stake
	return nil
}

// creditCash adds a payout to cash.
func (s *Session) creditCash(amount float64) {
	s.mu.Lock()
	s.pos.Cash += amount
	s.mu.Unlock()
}

func (s *Session) onAscendSample(sample models.AscendSample) {
	if s.deps.Hub != nil {
		s.deps.Hub.Broadcast("ascend", sample)
	}
}

func (s *Session) onCrashTick(u models.CrashUpdate) {
	if s.deps.Hub != nil {
		s.deps.Hub.Broadcast("crash", u)
	}
}

func (s *Session) onWagerResolved(o models.WagerOutcome) {
	ctx := context.Background()

	s.mu.Lock()
	rec := s.record(s.engine.Snapshot().Price)
	s.mu.Unlock()
	s.persist(ctx, rec)

	s.publish(ctx, models.WagerEvent{Type: "wager", AccountID: s.accountID, Outcome: o})
	if s.deps.Hub != nil {
		s.deps.Hub.Broadcast("wager", o)
	}
	if s.deps.Metrics != nil {
		result := "loss"
		if o.Won {
			result = "win"
		}
		s.deps.Metrics.RecordWager(string(o.Mode), result)
	}
	s.deps.Log.Info("wager resolved",
		logger.String("account", s.accountID),
		logger.String("mode", string(o.Mode)),
		logger.Bool("won", o.Won),
	)
}

// onTick runs on the price engine's goroutine for every new state. It fans
// the tick out to presentation and metrics, buffers it for the archive, and
// persists the last price at most once a second.
func (s *Session) onTick(st models.PriceState) {
	now := time.Now()
	update := models.TickUpdate{
		AccountID: s.accountID,
		Price:     st.Price,
		Regime:    st.Regime.String(),
		Trend:     st.Trend.String(),
		At:        now,
	}

	if s.deps.Hub != nil {
		s.deps.Hub.Broadcast("tick", update)
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordTick(update.Regime, st.Price)
	}

	if s.deps.Archive != nil {
		s.tickBuf = append(s.tickBuf, &models.TickPoint{
			AccountID: s.accountID,
			Price:     st.Price,
			Regime:    update.Regime,
			Trend:     update.Trend,
			At:        now,
		})
		if len(s.tickBuf) >= s.cfg.ArchiveBatch {
			batch := s.tickBuf
			s.tickBuf = nil
			go s.flushTicks(batch)
		}
	}

	if now.Sub(s.lastPriceSave) >= time.Second {
		s.lastPriceSave = now
		if err := s.deps.Store.SaveLastPrice(context.Background(), s.accountID, st.Price); err != nil {
			s.deps.Log.Warn("last price save failed", logger.Error(err))
		}
	}
}

func (s *Session) flushTicks(batch []*models.TickPoint) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.deps.Archive.StoreTicks(ctx, batch); err != nil {
		s.deps.Log.Warn("tick archive flush failed", logger.Error(err), logger.Int("ticks", len(batch)))
	}
}

// Dashboard is the full read view of a session.
type Dashboard struct {
	AccountID          string          `json:"account_id"`
	Position           models.Position `json:"position"`
	Price              float64         `json:"price"`
	Regime             string          `json:"regime"`
	Trend              string          `json:"trend"`
	PendingSettlements int             `json:"pending_settlements"`
	AscendStatus       string          `json:"ascend_status"`
	CrashStatus        string          `json:"crash_status"`
	CrashGainPercent   float64         `json:"crash_gain_percent"`
	CrashTurbo         bool            `json:"crash_turbo"`
}

// Dashboard assembles the current view of the session.
func (s *Session) Dashboard() Dashboard {
	st := s.engine.Snapshot()
	crashStatus, gain, turbo := s.crash.Snapshot()

	s.mu.Lock()
	pos := s.pos
	s.mu.Unlock()

	return Dashboard{
		AccountID:          s.accountID,
		Position:           pos,
		Price:              st.Price,
		Regime:             st.Regime.String(),
		Trend:              st.Trend.String(),
		PendingSettlements: s.settler.Pending(),
		AscendStatus:       s.ascend.Status().String(),
		CrashStatus:        crashStatus.String(),
		CrashGainPercent:   gain,
		CrashTurbo:         turbo,
	}
}

// Close stops the engines, drains the tick buffer, settles everything
// pending and writes the final record.
func (s *Session) Close(ctx context.Context) error {
	s.engine.Stop()
	s.ascend.Stop()
	s.crash.Stop()

	// The tick goroutine has exited; the buffer is ours now.
	if s.deps.Archive != nil && len(s.tickBuf) > 0 {
		batch := s.tickBuf
		s.tickBuf = nil
		s.flushTicks(batch)
	}

	s.settler.Flush()

	s.mu.Lock()
	rec := s.record(s.engine.Snapshot().Price)
	s.mu.Unlock()

	if err := s.deps.Store.Save(ctx, s.accountID, rec); err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	return nil
}

// record builds the persisted shape of the position. Caller holds s.mu.
func (s *Session) record(price float64) *models.AccountRecord {
	return &models.AccountRecord{
		Cash:      s.pos.Cash,
		Asset:     s.pos.Asset,
		AvgCost:   s.pos.AvgCost,
		LastPrice: price,
		UpdatedAt: time.Now(),
	}
}

func (s *Session) persist(ctx context.Context, rec *models.AccountRecord) {
	if err := s.deps.Store.Save(ctx, s.accountID, rec); err != nil {
		s.deps.Log.Warn("account save failed", logger.String("account", s.accountID), logger.Error(err))
	}
}

func (s *Session) publish(ctx context.Context, event interface{}) {
	if s.deps.Publisher == nil {
		return
	}
	if err := s.deps.Publisher.Publish(ctx, s.accountID, event); err != nil {
		s.deps.Log.Warn("event publish failed", logger.Error(err))
	}
}
