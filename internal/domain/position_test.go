package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPosition_ProfitPct(t *testing.T) {
	long := &Position{Side: SideBuy, EntryPrice: 0.50}
	assert.InDelta(t, 0.20, long.ProfitPct(0.60), 1e-9)
	assert.InDelta(t, -0.10, long.ProfitPct(0.45), 1e-9)

	short := &Position{Side: SideSell, EntryPrice: 0.50}
	assert.InDelta(t, 0.20, short.ProfitPct(0.40), 1e-9)
	assert.InDelta(t, -0.10, short.ProfitPct(0.55), 1e-9)

	assert.Zero(t, (&Position{Side: SideBuy}).ProfitPct(0.5))
}

func TestPosition_TrailBreached(t *testing.T) {
	long := &Position{Side: SideBuy, HighWaterPrice: 0.80}
	assert.False(t, long.TrailBreached(0.70, 0.15), "0.70 is above the 0.68 floor")
	assert.True(t, long.TrailBreached(0.68, 0.15))

	short := &Position{Side: SideSell, HighWaterPrice: 0.40}
	assert.False(t, short.TrailBreached(0.45, 0.15))
	assert.True(t, short.TrailBreached(0.46, 0.15))

	unset := &Position{Side: SideBuy}
	assert.False(t, unset.TrailBreached(0.1, 0.15))
}

func TestPosition_Improved(t *testing.T) {
	long := &Position{Side: SideBuy, HighWaterPrice: 0.60}
	assert.True(t, long.Improved(0.61))
	assert.False(t, long.Improved(0.60))

	short := &Position{Side: SideSell, HighWaterPrice: 0.60}
	assert.True(t, short.Improved(0.59))
	assert.False(t, short.Improved(0.60))
}

func TestPosition_BlendEntry(t *testing.T) {
	p := &Position{Side: SideBuy, EntryPrice: 0.50, Size: 100}
	p.BlendEntry(0.60, 50)

	assert.InDelta(t, 150.0, p.Size, 1e-9)
	// (0.50*100 + 0.60*50) / 150
	assert.InDelta(t, 0.5333333333, p.EntryPrice, 1e-9)
}
