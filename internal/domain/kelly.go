package domain

import "math"

// KellyFraction computes the Kelly bet fraction for a binary outcome.
//
// Formula: f* = (b·p − q) / b
//   - b: net decimal odds (payout per unit staked, minus the stake)
//   - p: probability of winning
//   - q: 1 − p
//
// Returns 0 when there is no positive edge or the inputs are degenerate.
func KellyFraction(winProb, odds float64) float64 {
	if winProb <= 0 || winProb >= 1 || odds <= 1 {
		return 0
	}
	b := odds - 1
	f := (b*winProb - (1 - winProb)) / b
	if f <= 0 || math.IsNaN(f) {
		return 0
	}
	return f
}

// KellyFromPrice computes the Kelly fraction from a market price and an
// estimated true probability. Buying YES at price p pays 1/p per unit,
// so odds = 1/p.
func KellyFromPrice(price, trueProb float64) float64 {
	if price <= 0 || price >= 1 {
		return 0
	}
	return KellyFraction(trueProb, 1/price)
}

// ImpliedTrueProb estimates the true probability behind a signal from its
// market price and the strategy's confidence: high confidence shifts the
// estimate away from the market price, capped at a 30% adjustment and clamped
// to a tradeable band.
func ImpliedTrueProb(price, confidence float64) float64 {
	const adjustment = 0.3
	p := price + (confidence-0.5)*adjustment
	return math.Min(0.95, math.Max(0.51, p))
}

// Edge returns the expected value per unit staked at the given price and true
// probability: edge = p_true/price − 1. Zero for degenerate inputs.
func Edge(price, trueProb float64) float64 {
	if price <= 0 || price >= 1 || trueProb <= 0 || trueProb >= 1 {
		return 0
	}
	return trueProb/price - 1
}
