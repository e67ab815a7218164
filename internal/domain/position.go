package domain

import "time"

// PositionStatus is the lifecycle state of a Position.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// CloseReason explains why a position left the book.
type CloseReason string

const (
	CloseStopLoss   CloseReason = "STOP_LOSS"
	CloseTakeProfit CloseReason = "TAKE_PROFIT"
	CloseTrailStop  CloseReason = "TRAIL_STOP"
	CloseManual     CloseReason = "MANUAL"
	CloseExpiry     CloseReason = "EXPIRY"
)

// Position is a simulated holding in one market. Created by the position
// manager, mutated only through its tick/close paths, immutable once CLOSED.
type Position struct {
	ID              string
	MarketID        string
	Question        string
	StrategyID      string
	Side            Side
	EntryPrice      float64 // size-weighted average across pyramid adds
	Size            float64 // total notional in USDC
	BaseSize        float64 // initial stake, pyramid adds are sized off this
	OpenedAt        time.Time
	StopLossPrice   float64
	TakeProfitPrice float64
	TrailingActive  bool
	HighWaterPrice  float64
	PyramidsAdded   int
	Status          PositionStatus
	ClosedAt        *time.Time
	ClosedReason    CloseReason
	ExitPrice       float64
	RealizedPnL     float64
}

// ProfitPct returns the side-aware return at the given price, as a fraction
// (0.10 = +10%).
func (p *Position) ProfitPct(price float64) float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	if p.Side == SideSell {
		return (p.EntryPrice - price) / p.EntryPrice
	}
	return (price - p.EntryPrice) / p.EntryPrice
}

// Improved reports whether price is more favorable than the current high-water
// mark for the held side.
func (p *Position) Improved(price float64) bool {
	if p.Side == SideSell {
		return price < p.HighWaterPrice
	}
	return price > p.HighWaterPrice
}

// TrailBreached reports whether price has retraced past the trailing stop
// distance from the high-water mark.
func (p *Position) TrailBreached(price, trailPct float64) bool {
	if p.HighWaterPrice <= 0 {
		return false
	}
	if p.Side == SideSell {
		return price >= p.HighWaterPrice*(1+trailPct)
	}
	return price <= p.HighWaterPrice*(1-trailPct)
}

// BlendEntry folds a pyramid add into the position, moving the entry price to
// the size-weighted average.
func (p *Position) BlendEntry(addPrice, addSize float64) {
	total := p.Size + addSize
	if total <= 0 {
		return
	}
	p.EntryPrice = (p.EntryPrice*p.Size + addPrice*addSize) / total
	p.Size = total
}

// TradeAction is the kind of position event emitted to collaborators.
type TradeAction string

const (
	ActionOpen    TradeAction = "OPEN"
	ActionPyramid TradeAction = "PYRAMID"
	ActionClose   TradeAction = "CLOSE"
)

// TradeEvent is emitted on open/pyramid/close for the alert sink and
// persistence collaborators.
type TradeEvent struct {
	PositionID string
	StrategyID string
	MarketID   string
	Question   string
	Action     TradeAction
	Side       Side
	Price      float64
	Size       float64
	PnL        float64     // 0 except on close
	Reason     CloseReason // "" except on close
	Balance    float64     // account balance after the event
	At         time.Time
}
