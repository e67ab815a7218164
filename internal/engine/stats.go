package engine

import (
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

// StatsSnapshot is a point-in-time copy of account and cycle health, safe to
// render or ship after the mutex is released.
type StatsSnapshot struct {
	At                time.Time
	Cycles            int
	Balance           float64
	HighWaterMark     float64
	DailyPnL          float64
	ConsecutiveLosses int
	OpenPositions     int
	OpenNotional      float64
	Emergency         bool
	TierSignals       map[string]int
	InvalidDropped    int
	Rejected          map[string]int
	Multipliers       map[string]float64
	Positions         []domain.Position
}

// Stats copies the current engine state under the mutex.
func (e *Engine) Stats() StatsSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := StatsSnapshot{
		At:                time.Now(),
		Cycles:            e.cycles,
		Balance:           e.acct.Equity.Balance,
		HighWaterMark:     e.acct.Equity.HighWaterMark,
		DailyPnL:          e.acct.Equity.DailyPnL,
		ConsecutiveLosses: e.acct.Equity.ConsecutiveLosses,
		OpenPositions:     e.acct.OpenCount(),
		OpenNotional:      e.acct.OpenNotional(),
		Emergency:         e.tracker.EmergencyMode(),
		InvalidDropped:    e.lastRun.Scan.InvalidDropped,
		TierSignals:       make(map[string]int, len(e.lastRun.Scan.TierSignals)),
		Rejected:          make(map[string]int, len(e.lastRun.Rejected)),
		Multipliers:       make(map[string]float64, len(e.acct.Strategies)),
	}
	for k, v := range e.lastRun.Scan.TierSignals {
		s.TierSignals[k] = v
	}
	for k, v := range e.lastRun.Rejected {
		s.Rejected[string(k)] = v
	}
	for id, st := range e.acct.Strategies {
		s.Multipliers[id] = st.Multiplier
	}
	for _, p := range e.acct.Positions {
		s.Positions = append(s.Positions, *p)
	}
	return s
}
