package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polyquant/internal/domain"
	"github.com/alejandrodnm/polyquant/internal/ports"
)

// ExitConfig controls position lifecycle: protective exits, pyramiding, and
// the paper fill model.
type ExitConfig struct {
	StopLossPct        float64 // e.g. 0.15
	TakeProfitPct      float64 // e.g. 0.50
	TrailingActivation float64 // unrealized gain that arms the trailing stop
	TrailPct           float64 // retrace from high-water mark that fires it
	PyramidTriggerPct  float64 // gain per pyramid level
	PyramidFraction    float64 // add size as fraction of the initial stake
	MaxPyramids        int
	MaxHold            time.Duration // 0 disables expiry
	FeeRate            float64       // taker fee charged on close notional
}

// PositionManager owns the open-position lifecycle: paper fills with modeled
// slippage, the per-tick exit state machine, pyramiding, and realizing PnL
// into the account. Trade events fan out to the alert sink and storage; a
// failed persist is queued and retried on later calls instead of blocking
// trading.
type PositionManager struct {
	cfg     ExitConfig
	tracker *Tracker
	alerts  ports.AlertSink
	store   ports.TradeStorage
	pending []domain.TradeEvent

	dayWins   int
	dayLosses int
}

// NewPositionManager crea el gestor de posiciones. alerts y store pueden ser
// nil en tests.
func NewPositionManager(cfg ExitConfig, tracker *Tracker, alerts ports.AlertSink, store ports.TradeStorage) *PositionManager {
	return &PositionManager{cfg: cfg, tracker: tracker, alerts: alerts, store: store}
}

// slippage models fill degradation: a flat cost plus a size-dependent impact.
func slippage(size float64) float64 {
	return 0.001 + size/1000.0*0.004
}

// Open books a new position from an accepted, sized signal. The fill price
// moves against the taker by the modeled slippage.
func (m *PositionManager) Open(ctx context.Context, acct *domain.TradingAccount, sig domain.Signal, size float64, now time.Time) (*domain.Position, error) {
	if size <= 0 {
		return nil, fmt.Errorf("engine.Open: non-positive size %.2f", size)
	}

	slip := slippage(size)
	entry := sig.EntryPrice
	if sig.Side == domain.SideSell {
		entry *= 1 - slip
	} else {
		entry *= 1 + slip
	}
	stop, take := m.exitAnchors(sig.Side, entry)

	pos := &domain.Position{
		ID:              uuid.NewString(),
		MarketID:        sig.MarketID,
		Question:        sig.Question,
		StrategyID:      sig.StrategyID,
		Side:            sig.Side,
		EntryPrice:      entry,
		Size:            size,
		BaseSize:        size,
		OpenedAt:        now,
		StopLossPrice:   stop,
		TakeProfitPrice: take,
		HighWaterPrice:  entry,
		Status:          domain.PositionOpen,
	}
	acct.Positions[pos.ID] = pos

	slog.Info("position opened",
		"strategy", pos.StrategyID,
		"market", pos.MarketID,
		"side", string(pos.Side),
		"entry", fmt.Sprintf("%.4f", entry),
		"size", fmt.Sprintf("%.2f", size),
	)
	m.emit(ctx, domain.TradeEvent{
		PositionID: pos.ID,
		StrategyID: pos.StrategyID,
		MarketID:   pos.MarketID,
		Question:   pos.Question,
		Action:     domain.ActionOpen,
		Side:       pos.Side,
		Price:      entry,
		Size:       size,
		Balance:    acct.Equity.Balance,
		At:         now,
	})
	return pos, nil
}

// Tick advances one position against the current market price. Exit checks
// run in a fixed order: stop loss, trailing arm/update, trailing stop, take
// profit, pyramid, expiry. Returns true when the position closed this tick.
// Ticking a CLOSED position is a no-op.
func (m *PositionManager) Tick(ctx context.Context, acct *domain.TradingAccount, pos *domain.Position, price float64, now time.Time) bool {
	if pos.Status == domain.PositionClosed || price <= 0 {
		return false
	}

	profit := pos.ProfitPct(price)

	stopHit := pos.Side == domain.SideSell && price >= pos.StopLossPrice ||
		pos.Side == domain.SideBuy && price <= pos.StopLossPrice
	if stopHit {
		m.Close(ctx, acct, pos, price, domain.CloseStopLoss, now)
		return true
	}

	if !pos.TrailingActive && profit >= m.cfg.TrailingActivation {
		pos.TrailingActive = true
		pos.HighWaterPrice = price
		slog.Debug("trailing armed", "position", pos.ID, "price", price)
	}
	if pos.TrailingActive {
		if pos.Improved(price) {
			pos.HighWaterPrice = price
		} else if pos.TrailBreached(price, m.cfg.TrailPct) {
			m.Close(ctx, acct, pos, price, domain.CloseTrailStop, now)
			return true
		}
	}

	takeHit := pos.Side == domain.SideSell && price <= pos.TakeProfitPrice ||
		pos.Side == domain.SideBuy && price >= pos.TakeProfitPrice
	if takeHit {
		m.Close(ctx, acct, pos, price, domain.CloseTakeProfit, now)
		return true
	}

	m.maybePyramid(ctx, acct, pos, price, profit, now)

	if m.cfg.MaxHold > 0 && now.Sub(pos.OpenedAt) >= m.cfg.MaxHold {
		m.Close(ctx, acct, pos, price, domain.CloseExpiry, now)
		return true
	}
	return false
}

// exitAnchors derives the stop and take prices for a given entry.
func (m *PositionManager) exitAnchors(side domain.Side, entry float64) (stop, take float64) {
	if side == domain.SideSell {
		return entry * (1 + m.cfg.StopLossPct), entry * (1 - m.cfg.TakeProfitPct)
	}
	return entry * (1 - m.cfg.StopLossPct), entry * (1 + m.cfg.TakeProfitPct)
}

// maybePyramid adds to a winner once per trigger level, blending the entry to
// the size-weighted average. Adds stop after MaxPyramids.
func (m *PositionManager) maybePyramid(ctx context.Context, acct *domain.TradingAccount, pos *domain.Position, price, profit float64, now time.Time) {
	if m.cfg.MaxPyramids <= 0 || pos.PyramidsAdded >= m.cfg.MaxPyramids {
		return
	}
	nextLevel := m.cfg.PyramidTriggerPct * float64(pos.PyramidsAdded+1)
	if profit < nextLevel {
		return
	}

	addSize := pos.BaseSize * m.cfg.PyramidFraction
	if addSize <= 0 || addSize > acct.Equity.Balance {
		return
	}

	slip := slippage(addSize)
	fill := price * (1 + slip)
	if pos.Side == domain.SideSell {
		fill = price * (1 - slip)
	}
	pos.BlendEntry(fill, addSize)
	pos.PyramidsAdded++
	// Re-anchor the exits to the blended entry so the price triggers keep
	// matching the position's profit percentage.
	pos.StopLossPrice, pos.TakeProfitPrice = m.exitAnchors(pos.Side, pos.EntryPrice)

	slog.Info("pyramid add",
		"position", pos.ID,
		"level", pos.PyramidsAdded,
		"fill", fmt.Sprintf("%.4f", fill),
		"add_size", fmt.Sprintf("%.2f", addSize),
		"avg_entry", fmt.Sprintf("%.4f", pos.EntryPrice),
	)
	m.emit(ctx, domain.TradeEvent{
		PositionID: pos.ID,
		StrategyID: pos.StrategyID,
		MarketID:   pos.MarketID,
		Question:   pos.Question,
		Action:     domain.ActionPyramid,
		Side:       pos.Side,
		Price:      fill,
		Size:       addSize,
		Balance:    acct.Equity.Balance,
		At:         now,
	})
}

// Close realizes the position at the given price. Idempotent: closing an
// already CLOSED position does nothing.
func (m *PositionManager) Close(ctx context.Context, acct *domain.TradingAccount, pos *domain.Position, price float64, reason domain.CloseReason, now time.Time) {
	if pos.Status == domain.PositionClosed {
		return
	}

	pnl := pos.Size*pos.ProfitPct(price) - pos.Size*m.cfg.FeeRate

	pos.Status = domain.PositionClosed
	closedAt := now
	pos.ClosedAt = &closedAt
	pos.ClosedReason = reason
	pos.ExitPrice = price
	pos.RealizedPnL = pnl

	acct.Equity.ApplyClose(pnl)
	delete(acct.Positions, pos.ID)
	acct.LastTradeClosedAt = now

	win := pnl > 0
	if win {
		m.dayWins++
	} else {
		m.dayLosses++
	}
	if m.tracker != nil {
		m.tracker.RecordOutcome(acct, pos.StrategyID, win)
	}

	slog.Info("position closed",
		"strategy", pos.StrategyID,
		"market", pos.MarketID,
		"reason", string(reason),
		"pnl", fmt.Sprintf("%+.2f", pnl),
		"balance", fmt.Sprintf("%.2f", acct.Equity.Balance),
	)
	m.emit(ctx, domain.TradeEvent{
		PositionID: pos.ID,
		StrategyID: pos.StrategyID,
		MarketID:   pos.MarketID,
		Question:   pos.Question,
		Action:     domain.ActionClose,
		Side:       pos.Side,
		Price:      price,
		Size:       pos.Size,
		PnL:        pnl,
		Reason:     reason,
		Balance:    acct.Equity.Balance,
		At:         now,
	})

	if m.store != nil {
		if err := m.store.UpdateStrategyStats(ctx, pos.StrategyID, win, pnl); err != nil {
			slog.Warn("updating strategy stats", "error", err)
		}
	}
}

// TickAll runs the exit state machine over every open position that has a
// fresh price. Positions without a snapshot this cycle are left alone.
func (m *PositionManager) TickAll(ctx context.Context, acct *domain.TradingAccount, prices map[string]float64, now time.Time) int {
	closed := 0
	// Collect first: Close mutates acct.Positions.
	open := make([]*domain.Position, 0, len(acct.Positions))
	for _, pos := range acct.Positions {
		open = append(open, pos)
	}
	for _, pos := range open {
		price, ok := prices[pos.MarketID]
		if !ok {
			continue
		}
		if m.Tick(ctx, acct, pos, price, now) {
			closed++
		}
	}
	return closed
}

// emit fans a trade event out to the alert sink and storage. Failures are
// logged, and failed persists are queued for FlushPending.
func (m *PositionManager) emit(ctx context.Context, ev domain.TradeEvent) {
	if m.alerts != nil {
		if err := m.alerts.NotifyTrade(ctx, ev); err != nil {
			slog.Warn("delivering trade alert", "error", err)
		}
	}
	if m.store == nil {
		return
	}
	if err := m.store.SaveTradeEvent(ctx, ev); err != nil {
		slog.Warn("persisting trade event, queued for retry", "error", err)
		m.pending = append(m.pending, ev)
	}
}

// DayCounts returns wins and losses closed since the last ResetDay.
func (m *PositionManager) DayCounts() (wins, losses int) {
	return m.dayWins, m.dayLosses
}

// ResetDay clears the daily close counters at rollover.
func (m *PositionManager) ResetDay() {
	m.dayWins, m.dayLosses = 0, 0
}

// FlushPending retries trade events whose persistence failed earlier.
func (m *PositionManager) FlushPending(ctx context.Context) {
	if m.store == nil || len(m.pending) == 0 {
		return
	}
	remaining := m.pending[:0]
	for _, ev := range m.pending {
		if err := m.store.SaveTradeEvent(ctx, ev); err != nil {
			remaining = append(remaining, ev)
		}
	}
	m.pending = remaining
	if len(m.pending) > 0 {
		slog.Warn("trade events still unpersisted", "count", len(m.pending))
	}
}
