package domain

import (
	"fmt"
	"math"
	"time"
)

// PriorityTier orders strategies in the cascade. Lower value scans first.
type PriorityTier int

const (
	TierCritical PriorityTier = iota
	TierHigh
	TierMedium
	TierLow
)

// Tiers lists all tiers in cascade order.
var Tiers = []PriorityTier{TierCritical, TierHigh, TierMedium, TierLow}

func (t PriorityTier) String() string {
	switch t {
	case TierCritical:
		return "CRITICAL"
	case TierHigh:
		return "HIGH"
	case TierMedium:
		return "MEDIUM"
	case TierLow:
		return "LOW"
	}
	return fmt.Sprintf("TIER(%d)", int(t))
}

// Side is the direction of a trade on the YES token.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Signal is a candidate trade produced by a strategy evaluator.
// It lives for exactly one scan cycle.
type Signal struct {
	StrategyID string
	Tier       PriorityTier
	MarketID   string
	Question   string
	Sport      string
	Side       Side
	EntryPrice float64
	EdgeScore  float64 // mispricing score, compared against the effective threshold
	Confidence float64 // 0..1
	SizeHint   float64 // strategy's suggested notional, 0 = let the risk gate decide
	Rationale  string
	CreatedAt  time.Time
}

// Validate rejects malformed signals before they reach the risk gate.
func (s Signal) Validate() error {
	if s.StrategyID == "" || s.MarketID == "" {
		return fmt.Errorf("signal: missing strategy or market id")
	}
	if s.Side != SideBuy && s.Side != SideSell {
		return fmt.Errorf("signal %s/%s: bad side %q", s.StrategyID, s.MarketID, s.Side)
	}
	if math.IsNaN(s.EntryPrice) || s.EntryPrice <= 0 || s.EntryPrice >= 1 {
		return fmt.Errorf("signal %s/%s: entry price %v out of range", s.StrategyID, s.MarketID, s.EntryPrice)
	}
	if math.IsNaN(s.EdgeScore) || s.EdgeScore < 0 {
		return fmt.Errorf("signal %s/%s: bad edge score %v", s.StrategyID, s.MarketID, s.EdgeScore)
	}
	if math.IsNaN(s.Confidence) || s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("signal %s/%s: confidence %v out of [0,1]", s.StrategyID, s.MarketID, s.Confidence)
	}
	if math.IsNaN(s.SizeHint) || s.SizeHint < 0 {
		return fmt.Errorf("signal %s/%s: negative size hint", s.StrategyID, s.MarketID)
	}
	return nil
}
