package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKellyFraction(t *testing.T) {
	tests := []struct {
		name    string
		winProb float64
		odds    float64
		want    float64
	}{
		{"coin flip at even odds has no edge", 0.5, 2.0, 0},
		{"60% at even odds", 0.6, 2.0, 0.2},
		{"no edge returns zero", 0.4, 2.0, 0},
		{"degenerate odds", 0.9, 1.0, 0},
		{"degenerate probability", 0, 2.0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, KellyFraction(tt.winProb, tt.odds), 1e-9)
		})
	}
}

func TestKellyFromPrice(t *testing.T) {
	// Buying at 0.50 pays 2x, so a 62% true probability gives
	// f* = (1*0.62 - 0.38) / 1 = 0.24.
	assert.InDelta(t, 0.24, KellyFromPrice(0.50, 0.62), 1e-9)

	assert.Zero(t, KellyFromPrice(0, 0.6))
	assert.Zero(t, KellyFromPrice(1, 0.6))
	assert.Zero(t, KellyFromPrice(0.5, 0.5), "fair price has no edge")
}

func TestImpliedTrueProb(t *testing.T) {
	// Neutral confidence leaves the price alone, subject to the floor.
	assert.InDelta(t, 0.60, ImpliedTrueProb(0.60, 0.5), 1e-9)

	// Full confidence shifts by the 30% cap.
	assert.InDelta(t, 0.80, ImpliedTrueProb(0.65, 1.0), 1e-9)

	// Clamped to the tradeable band.
	assert.InDelta(t, 0.51, ImpliedTrueProb(0.10, 0.5), 1e-9)
	assert.InDelta(t, 0.95, ImpliedTrueProb(0.90, 1.0), 1e-9)
}

func TestEdge(t *testing.T) {
	assert.InDelta(t, 0.24, Edge(0.50, 0.62), 1e-9)
	assert.Zero(t, Edge(0, 0.6))
	assert.Zero(t, Edge(0.5, 1.0))
}
