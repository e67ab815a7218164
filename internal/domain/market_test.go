package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMarketSnapshot_Valid(t *testing.T) {
	snap := MarketSnapshot{YesPrice: 0.5, NoPrice: 0.5}
	assert.True(t, snap.Valid())

	for _, bad := range []MarketSnapshot{
		{YesPrice: 0, NoPrice: 0.5},
		{YesPrice: 1, NoPrice: 0.5},
		{YesPrice: 0.5, NoPrice: 0},
	} {
		assert.False(t, bad.Valid(), "%+v", bad)
	}
}

func TestMarketSnapshot_Stale(t *testing.T) {
	now := time.Now()
	snap := MarketSnapshot{Timestamp: now.Add(-2 * time.Minute)}

	assert.True(t, snap.Stale(now, time.Minute))
	assert.False(t, snap.Stale(now, 5*time.Minute))
	assert.False(t, snap.Stale(now, 0), "zero max age disables the check")
}

func TestMarketSnapshot_MovePct(t *testing.T) {
	snap := MarketSnapshot{YesPrice: 0.55, PrevYes: 0.50}
	assert.InDelta(t, 10.0, snap.MovePct(), 1e-9)

	snap.PrevYes = 0
	assert.Zero(t, snap.MovePct())
}

func TestMarketSnapshot_SpreadPct(t *testing.T) {
	snap := MarketSnapshot{BestBid: 0.48, BestAsk: 0.52}
	assert.InDelta(t, 8.0, snap.SpreadPct(), 1e-9)

	assert.Zero(t, MarketSnapshot{BestBid: 0.5, BestAsk: 0.5}.SpreadPct())
	assert.Zero(t, MarketSnapshot{BestAsk: 0.5}.SpreadPct())
}

func TestSportsEvent_Minute(t *testing.T) {
	tests := []struct {
		clock string
		want  int
	}{
		{"73'", 73},
		{"45+2'", 45},
		{" 12' ", 12},
		{"Q4 2:31", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SportsEvent{Clock: tt.clock}.Minute(), "clock %q", tt.clock)
	}
}

func TestTruncateQuestion(t *testing.T) {
	assert.Equal(t, "short?", TruncateQuestion("short?", "id", 40))

	long := "Will this extremely long market question get cut down to size?"
	got := TruncateQuestion(long, "id", 20)
	assert.Len(t, got, 20)
	assert.Equal(t, "...", got[17:])

	assert.Equal(t, "mkt-1", TruncateQuestion("", "mkt-1", 40))
}
