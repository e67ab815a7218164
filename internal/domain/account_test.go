package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEquity_ApplyClose(t *testing.T) {
	e := Equity{Balance: 1000, HighWaterMark: 1000}

	e.ApplyClose(50)
	assert.InDelta(t, 1050.0, e.Balance, 1e-9)
	assert.InDelta(t, 1050.0, e.HighWaterMark, 1e-9)
	assert.InDelta(t, 50.0, e.DailyPnL, 1e-9)
	assert.Zero(t, e.ConsecutiveLosses)

	e.ApplyClose(-80)
	e.ApplyClose(-20)
	assert.InDelta(t, 950.0, e.Balance, 1e-9)
	assert.InDelta(t, 1050.0, e.HighWaterMark, 1e-9, "high-water mark only rises")
	assert.InDelta(t, -50.0, e.DailyPnL, 1e-9)
	assert.Equal(t, 2, e.ConsecutiveLosses)

	e.ApplyClose(1)
	assert.Zero(t, e.ConsecutiveLosses, "a win resets the streak")
}

func TestEquity_Rollover(t *testing.T) {
	day1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	e := Equity{Balance: 1000, DayStart: day1, DailyPnL: -40}

	assert.False(t, e.Rollover(day1.Add(5*time.Hour)), "same UTC day")
	assert.InDelta(t, -40.0, e.DailyPnL, 1e-9)

	require.True(t, e.Rollover(day1.Add(24*time.Hour)))
	assert.Zero(t, e.DailyPnL)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), e.DayStart)
}

func TestStrategyState_Window(t *testing.T) {
	s := &StrategyState{StrategyID: "s1", Multiplier: 1.0}

	assert.Zero(t, s.WinRate())

	for i := 0; i < 6; i++ {
		s.Record(i < 4, 5)
	}
	assert.Len(t, s.Window, 5, "window drops the oldest outcome")
	// Oldest win dropped: 3 wins over 5.
	assert.InDelta(t, 0.6, s.WinRate(), 1e-9)
}

func TestTradingAccount_State(t *testing.T) {
	a := NewTradingAccount(1000, time.Now())

	st := a.State("s1", TierHigh)
	require.NotNil(t, st)
	assert.InDelta(t, 1.0, st.Multiplier, 1e-9)
	assert.Equal(t, TierHigh, st.Tier)

	st.Multiplier = 0.8
	assert.Same(t, st, a.State("s1", TierHigh), "state is created once")
}

func TestTradingAccount_OpenAggregates(t *testing.T) {
	a := NewTradingAccount(1000, time.Now())
	a.Positions["p1"] = &Position{ID: "p1", MarketID: "m1", Size: 100, Status: PositionOpen}
	a.Positions["p2"] = &Position{ID: "p2", MarketID: "m2", Size: 40, Status: PositionOpen}

	assert.Equal(t, 2, a.OpenCount())
	assert.InDelta(t, 140.0, a.OpenNotional(), 1e-9)
	assert.Equal(t, 1, a.OpenOnMarket("m1"))
	assert.Zero(t, a.OpenOnMarket("m3"))
}
