package domain

import "time"

// StrategyStats is the lifetime performance record of one strategy, as
// persisted by the storage collaborator.
type StrategyStats struct {
	StrategyID string
	Trades     int
	Wins       int
	TotalPnL   float64
}

// WinRate returns wins/trades, 0 when no trades were recorded.
func (s StrategyStats) WinRate() float64 {
	if s.Trades == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Trades)
}

// DailySummary is the end-of-day snapshot persisted for reporting.
type DailySummary struct {
	Date          time.Time
	Trades        int
	Wins          int
	Losses        int
	NetPnL        float64
	EndBalance    float64
	HighWaterMark float64
	OpenPositions int
}
