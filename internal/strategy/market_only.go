package strategy

import (
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

const marketOnlyName = "market_only"

// MarketOnly trades on market structure alone, without live sports data:
// extreme favorites carry fat-tail risk, cheap underdogs carry asymmetric
// upside. It is the strategy that keeps the book active when feeds are quiet.
type MarketOnly struct {
	favoriteAbove float64
	underdogBelow float64
	dustFloor     float64 // below this the market is effectively resolved
}

// NewMarketOnly crea la estrategia con sus parámetros por defecto.
func NewMarketOnly() *MarketOnly {
	return &MarketOnly{favoriteAbove: 0.75, underdogBelow: 0.25, dustFloor: 0.03}
}

func (s *MarketOnly) Name() string              { return marketOnlyName }
func (s *MarketOnly) Tier() domain.PriorityTier { return domain.TierMedium }
func (s *MarketOnly) BaseThreshold() float64    { return 2.0 }

// Evaluate implementa Strategy. Funciona sin datos deportivos.
func (s *MarketOnly) Evaluate(snap domain.MarketSnapshot, _ *domain.SportsEvent, threshold float64) (domain.Signal, bool) {
	p := snap.YesPrice
	if p == 0.5 {
		// 0.5 exact is the placeholder of an unpriced market
		return domain.Signal{}, false
	}

	if p >= s.favoriteAbove {
		edge := (p - s.favoriteAbove) * 100
		if edge < threshold {
			return domain.Signal{}, false
		}
		return domain.Signal{
			StrategyID: s.Name(),
			Tier:       s.Tier(),
			MarketID:   snap.MarketID,
			Question:   snap.Question,
			Sport:      snap.Sport,
			Side:       domain.SideSell,
			EntryPrice: p,
			EdgeScore:  edge,
			Confidence: 0.55 + (p-s.favoriteAbove)*0.5,
			SizeHint:   0.3,
			Rationale:  fmt.Sprintf("selling favorite at %.0f%%", p*100),
			CreatedAt:  time.Now(),
		}, true
	}

	if p <= s.underdogBelow && p > s.dustFloor {
		q := strings.ToLower(snap.Question)
		if !strings.Contains(q, "win") && !strings.Contains(q, "beat") && snap.Sport == "" {
			return domain.Signal{}, false
		}
		edge := (s.underdogBelow - p) * 100
		if edge < threshold {
			return domain.Signal{}, false
		}
		return domain.Signal{
			StrategyID: s.Name(),
			Tier:       s.Tier(),
			MarketID:   snap.MarketID,
			Question:   snap.Question,
			Sport:      snap.Sport,
			Side:       domain.SideBuy,
			EntryPrice: p,
			EdgeScore:  edge,
			Confidence: 0.55,
			SizeHint:   0.25,
			Rationale:  fmt.Sprintf("buying underdog at %.1f%% for asymmetric upside", p*100),
			CreatedAt:  time.Now(),
		}, true
	}

	return domain.Signal{}, false
}

const favoriteTrapName = "favorite_trap"

// FavoriteTrap sells favorites priced above 90% late in a game. Upsets happen
// more often than a complacent book prices them.
type FavoriteTrap struct {
	minPrice      float64
	minCompletion float64
}

// NewFavoriteTrap crea la estrategia con sus parámetros por defecto.
func NewFavoriteTrap() *FavoriteTrap {
	return &FavoriteTrap{minPrice: 0.90, minCompletion: 75}
}

func (s *FavoriteTrap) Name() string              { return favoriteTrapName }
func (s *FavoriteTrap) Tier() domain.PriorityTier { return domain.TierLow }
func (s *FavoriteTrap) BaseThreshold() float64    { return 5.0 }

// Evaluate implementa Strategy. Edge is the premium over a fair 85%.
func (s *FavoriteTrap) Evaluate(snap domain.MarketSnapshot, ev *domain.SportsEvent, threshold float64) (domain.Signal, bool) {
	if ev == nil || ev.Final {
		return domain.Signal{}, false
	}
	if snap.YesPrice < s.minPrice || ev.Score.CompletionPct < s.minCompletion {
		return domain.Signal{}, false
	}

	edge := (snap.YesPrice - 0.85) * 100
	if edge < threshold {
		return domain.Signal{}, false
	}

	confidence := 0.5 + (snap.YesPrice-0.85)*2
	if confidence > 0.75 {
		confidence = 0.75
	}

	return domain.Signal{
		StrategyID: s.Name(),
		Tier:       s.Tier(),
		MarketID:   snap.MarketID,
		Question:   snap.Question,
		Sport:      snap.Sport,
		Side:       domain.SideSell,
		EntryPrice: snap.YesPrice,
		EdgeScore:  edge,
		Confidence: confidence,
		SizeHint:   0.3,
		Rationale:  fmt.Sprintf("selling %.0f%% favorite at %.0f%% completion", snap.YesPrice*100, ev.Score.CompletionPct),
		CreatedAt:  time.Now(),
	}, true
}

const volatilityScalpName = "volatility_scalp"

// VolatilityScalp buys the bid during chaotic moments when the spread blows
// out, targeting the ask. Pure microstructure, short holds.
type VolatilityScalp struct{}

// NewVolatilityScalp crea la estrategia.
func NewVolatilityScalp() *VolatilityScalp {
	return &VolatilityScalp{}
}

func (s *VolatilityScalp) Name() string              { return volatilityScalpName }
func (s *VolatilityScalp) Tier() domain.PriorityTier { return domain.TierLow }
func (s *VolatilityScalp) BaseThreshold() float64    { return 3.0 }

// Evaluate implementa Strategy. Edge is the spread width in percent.
func (s *VolatilityScalp) Evaluate(snap domain.MarketSnapshot, _ *domain.SportsEvent, threshold float64) (domain.Signal, bool) {
	spread := snap.SpreadPct()
	if spread < threshold {
		return domain.Signal{}, false
	}
	if snap.BestBid <= 0 || snap.BestBid >= 1 {
		return domain.Signal{}, false
	}

	return domain.Signal{
		StrategyID: s.Name(),
		Tier:       s.Tier(),
		MarketID:   snap.MarketID,
		Question:   snap.Question,
		Sport:      snap.Sport,
		Side:       domain.SideBuy,
		EntryPrice: snap.BestBid,
		EdgeScore:  spread,
		Confidence: 0.6,
		SizeHint:   0.3,
		Rationale:  fmt.Sprintf("scalping %.1f%% spread", spread),
		CreatedAt:  time.Now(),
	}, true
}
