package domain

import "time"

// Equity is the authoritative accounting state of one account.
// Mutated only on position close or daily rollover.
type Equity struct {
	Balance           float64
	HighWaterMark     float64
	DailyPnL          float64
	ConsecutiveLosses int
	DayStart          time.Time
}

// ApplyClose books a realized PnL into the equity.
func (e *Equity) ApplyClose(pnl float64) {
	e.Balance += pnl
	if e.Balance > e.HighWaterMark {
		e.HighWaterMark = e.Balance
	}
	e.DailyPnL += pnl
	if pnl > 0 {
		e.ConsecutiveLosses = 0
	} else {
		e.ConsecutiveLosses++
	}
}

// Rollover resets the daily counters when now has crossed into a new UTC day.
// Returns true if a rollover happened.
func (e *Equity) Rollover(now time.Time) bool {
	if sameDay(e.DayStart, now) {
		return false
	}
	e.DailyPnL = 0
	e.DayStart = now.UTC().Truncate(24 * time.Hour)
	return true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// StrategyState is the adaptive state of one registered strategy.
// Mutated only by the adaptive threshold tracker.
type StrategyState struct {
	StrategyID   string
	Tier         PriorityTier
	Multiplier   float64
	Window       []bool // rolling win/loss outcomes, newest last
	LastSignalAt time.Time
}

// Record appends an outcome, dropping the oldest beyond lookback.
func (s *StrategyState) Record(win bool, lookback int) {
	s.Window = append(s.Window, win)
	if lookback > 0 && len(s.Window) > lookback {
		s.Window = s.Window[len(s.Window)-lookback:]
	}
}

// WinRate returns wins/len over the rolling window, 0 when empty.
func (s *StrategyState) WinRate() float64 {
	if len(s.Window) == 0 {
		return 0
	}
	wins := 0
	for _, w := range s.Window {
		if w {
			wins++
		}
	}
	return float64(wins) / float64(len(s.Window))
}

// TradingAccount is the shared mutable context passed explicitly into the
// engine, risk gate, and position manager. One per account, no globals.
type TradingAccount struct {
	Equity            Equity
	Positions         map[string]*Position // open positions by id
	Strategies        map[string]*StrategyState
	LastTradeClosedAt time.Time
}

// NewTradingAccount creates an account with the given starting balance.
func NewTradingAccount(balance float64, now time.Time) *TradingAccount {
	return &TradingAccount{
		Equity: Equity{
			Balance:       balance,
			HighWaterMark: balance,
			DayStart:      now.UTC().Truncate(24 * time.Hour),
		},
		Positions:         make(map[string]*Position),
		Strategies:        make(map[string]*StrategyState),
		LastTradeClosedAt: now,
	}
}

// State returns the adaptive state for a strategy, creating it at the default
// multiplier on first sight.
func (a *TradingAccount) State(strategyID string, tier PriorityTier) *StrategyState {
	if st, ok := a.Strategies[strategyID]; ok {
		return st
	}
	st := &StrategyState{StrategyID: strategyID, Tier: tier, Multiplier: 1.0}
	a.Strategies[strategyID] = st
	return st
}

// OpenCount returns the number of open positions.
func (a *TradingAccount) OpenCount() int {
	return len(a.Positions)
}

// OpenNotional returns the total USDC committed across open positions.
func (a *TradingAccount) OpenNotional() float64 {
	total := 0.0
	for _, p := range a.Positions {
		total += p.Size
	}
	return total
}

// OpenOnMarket counts open positions in the given market.
func (a *TradingAccount) OpenOnMarket(marketID string) int {
	n := 0
	for _, p := range a.Positions {
		if p.MarketID == marketID {
			n++
		}
	}
	return n
}
