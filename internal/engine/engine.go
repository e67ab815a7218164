package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
	"github.com/alejandrodnm/polyquant/internal/ports"
	"github.com/alejandrodnm/polyquant/internal/strategy"
)

// Config agrupa la configuración del ciclo de trading completo.
type Config struct {
	Interval time.Duration
	Cascade  CascadeConfig
	Risk     RiskConfig
	Exits    ExitConfig
	Adaptive AdaptiveConfig
}

// CycleResult summarizes one scan/trade cycle.
type CycleResult struct {
	Markets   int
	Scan      ScanReport
	Opened    int
	Closed    int
	Rejected  map[RejectReason]int
	Emergency bool
	Elapsed   time.Duration
}

// Engine orchestrates the trading cycle: fetch snapshots, tick open
// positions, cascade scan, risk gate, open accepted trades. All account
// mutation happens under one mutex in a single goroutine-safe phase; the
// network fetches run outside it.
type Engine struct {
	mu sync.Mutex

	cfg     Config
	acct    *domain.TradingAccount
	cascade *CascadeEngine
	gate    *RiskGate
	book    *PositionManager
	tracker *Tracker

	markets ports.MarketFeed
	sports  ports.SportsFeed
	alerts  ports.AlertSink
	store   ports.TradeStorage

	lastYes map[string]float64 // previous cycle's YES price per market
	cycles  int
	lastRun CycleResult
}

// New wires the engine from its collaborators. sports, alerts and store are
// optional. Adaptive strategy states are seeded up front so multipliers and
// outcome windows exist before the first close.
func New(cfg Config, reg *strategy.Registry, acct *domain.TradingAccount, markets ports.MarketFeed, sports ports.SportsFeed, alerts ports.AlertSink, store ports.TradeStorage) *Engine {
	tracker := NewTracker(cfg.Adaptive)
	for _, s := range reg.All() {
		acct.State(s.Name(), s.Tier())
	}
	return &Engine{
		cfg:     cfg,
		acct:    acct,
		cascade: NewCascadeEngine(cfg.Cascade, reg),
		gate:    NewRiskGate(cfg.Risk),
		book:    NewPositionManager(cfg.Exits, tracker, alerts, store),
		tracker: tracker,
		markets: markets,
		sports:  sports,
		alerts:  alerts,
		store:   store,
		lastYes: make(map[string]float64),
	}
}

// Run executes cycles at the configured interval until the context is
// cancelled. The first cycle runs immediately.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("trading engine started", "interval", e.cfg.Interval)

	if _, err := e.RunOnce(ctx); err != nil {
		slog.Error("cycle failed", "error", err)
	}

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("trading engine stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := e.RunOnce(ctx); err != nil {
				slog.Error("cycle failed", "error", err)
			}
		}
	}
}

// RunOnce executes a single full cycle. Safe for concurrent callers; the
// mutation phase is serialized.
func (e *Engine) RunOnce(ctx context.Context) (CycleResult, error) {
	start := time.Now()

	snaps, err := e.markets.FetchSnapshots(ctx)
	if err != nil {
		return CycleResult{}, fmt.Errorf("engine.RunOnce: fetching snapshots: %w", err)
	}

	events := map[string]domain.SportsEvent{}
	if e.sports != nil {
		events, err = e.sports.FetchEvents(ctx, snaps)
		if err != nil {
			slog.Warn("sports feed unavailable, market-only cycle", "error", err)
			events = map[string]domain.SportsEvent{}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// A cancelled cycle must not half-mutate the account.
	if err := ctx.Err(); err != nil {
		return CycleResult{}, err
	}

	now := time.Now()
	e.rollover(ctx, now)

	snaps = e.fillPrevPrices(snaps)
	prices := make(map[string]float64, len(snaps))
	for _, s := range snaps {
		prices[s.MarketID] = s.YesPrice
	}

	res := CycleResult{
		Markets:  len(snaps),
		Rejected: make(map[RejectReason]int),
	}
	res.Closed = e.book.TickAll(ctx, e.acct, prices, now)

	res.Scan = e.cascade.Scan(snaps, events, e.acct, now)
	for _, sig := range res.Scan.Signals {
		liq := 0.0
		for _, s := range snaps {
			if s.MarketID == sig.MarketID {
				liq = s.Liquidity
				break
			}
		}
		dec := e.gate.Evaluate(sig, liq, e.acct)
		if !dec.Accepted {
			res.Rejected[dec.Reason]++
			continue
		}
		if _, err := e.book.Open(ctx, e.acct, sig, dec.Size, now); err != nil {
			slog.Error("opening position", "strategy", sig.StrategyID, "error", err)
			continue
		}
		res.Opened++
	}

	if len(res.Scan.Signals) == 0 {
		if e.tracker.CheckEmergency(e.acct, now) && e.alerts != nil {
			if err := e.alerts.NotifyEmergency(ctx, true, e.cfg.Adaptive.EmergencyDecay); err != nil {
				slog.Warn("delivering emergency alert", "error", err)
			}
		}
	}
	res.Emergency = e.tracker.EmergencyMode()

	e.book.FlushPending(ctx)

	res.Elapsed = time.Since(start)
	e.cycles++
	e.lastRun = res

	slog.Info("cycle done",
		"markets", res.Markets,
		"signals", len(res.Scan.Signals),
		"opened", res.Opened,
		"closed", res.Closed,
		"open_positions", e.acct.OpenCount(),
		"balance", fmt.Sprintf("%.2f", e.acct.Equity.Balance),
		"elapsed", res.Elapsed.Round(time.Millisecond),
	)
	return res, nil
}

// rollover books the finished day into storage and resets daily counters
// when the cycle crosses a UTC day boundary.
func (e *Engine) rollover(ctx context.Context, now time.Time) {
	day := e.acct.Equity.DayStart
	pnl := e.acct.Equity.DailyPnL
	if !e.acct.Equity.Rollover(now) {
		return
	}

	wins, losses := e.book.DayCounts()
	e.book.ResetDay()
	if e.store != nil {
		summary := domain.DailySummary{
			Date:          day,
			Trades:        wins + losses,
			Wins:          wins,
			Losses:        losses,
			NetPnL:        pnl,
			EndBalance:    e.acct.Equity.Balance,
			HighWaterMark: e.acct.Equity.HighWaterMark,
			OpenPositions: e.acct.OpenCount(),
		}
		if err := e.store.SaveDaily(ctx, summary); err != nil {
			slog.Warn("persisting daily summary", "error", err)
		}
	}
	slog.Info("daily rollover", "day", day.Format("2006-01-02"), "net_pnl", fmt.Sprintf("%+.2f", pnl))
}

// fillPrevPrices injects last cycle's YES price into snapshots whose feed
// did not carry one, so move-based strategies see a delta across cycles.
func (e *Engine) fillPrevPrices(snaps []domain.MarketSnapshot) []domain.MarketSnapshot {
	for i := range snaps {
		if snaps[i].PrevYes == 0 {
			snaps[i].PrevYes = e.lastYes[snaps[i].MarketID]
		}
		e.lastYes[snaps[i].MarketID] = snaps[i].YesPrice
	}
	return snaps
}

// ManualClose closes one open position at the last seen market price.
func (e *Engine) ManualClose(ctx context.Context, positionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos, ok := e.acct.Positions[positionID]
	if !ok {
		return fmt.Errorf("engine.ManualClose: no open position %s", positionID)
	}
	price, ok := e.lastYes[pos.MarketID]
	if !ok || price <= 0 {
		price = pos.EntryPrice
	}
	e.book.Close(ctx, e.acct, pos, price, domain.CloseManual, time.Now())
	return nil
}

// Account expone la cuenta para inspección en tests y comandos.
func (e *Engine) Account() *domain.TradingAccount {
	return e.acct
}
