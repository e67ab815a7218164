package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

const overreactionFadeName = "overreaction_fade"

// OverreactionFade fades sharp price moves that follow an in-game incident.
// Recency bias pushes the crowd past fair value; the move partially reverts
// within minutes.
type OverreactionFade struct {
	fadeFraction float64 // expected share of the move that reverts
}

// NewOverreactionFade crea la estrategia con sus parámetros por defecto.
func NewOverreactionFade() *OverreactionFade {
	return &OverreactionFade{fadeFraction: 0.5}
}

func (s *OverreactionFade) Name() string              { return overreactionFadeName }
func (s *OverreactionFade) Tier() domain.PriorityTier { return domain.TierHigh }
func (s *OverreactionFade) BaseThreshold() float64    { return 5.0 }

// Evaluate implementa Strategy. Requires a live event: without one, a big
// move is news, not overreaction.
func (s *OverreactionFade) Evaluate(snap domain.MarketSnapshot, ev *domain.SportsEvent, threshold float64) (domain.Signal, bool) {
	if ev == nil || ev.LastEvent == domain.EventNone || ev.Final {
		return domain.Signal{}, false
	}

	move := snap.MovePct()
	edge := math.Abs(move)
	if edge < threshold {
		return domain.Signal{}, false
	}

	side := domain.SideSell // price spiked up, sell the spike
	if move < 0 {
		side = domain.SideBuy // price crashed, buy the dip
	}

	confidence := math.Min(0.8, edge/10)

	return domain.Signal{
		StrategyID: s.Name(),
		Tier:       s.Tier(),
		MarketID:   snap.MarketID,
		Question:   snap.Question,
		Sport:      snap.Sport,
		Side:       side,
		EntryPrice: snap.YesPrice,
		EdgeScore:  edge,
		Confidence: confidence,
		SizeHint:   0.5,
		Rationale:  fmt.Sprintf("fading %.1f%% move after %s", edge, ev.LastEvent),
		CreatedAt:  time.Now(),
	}, true
}

const lagGapName = "lag_gap"

// LagGap exploits the window right after a decisive incident, before the
// market has repriced: a goal with no corresponding price move means the
// book is lagging the game.
type LagGap struct {
	expectedMovePct float64 // move a goal/wicket should produce
}

// NewLagGap crea la estrategia con sus parámetros por defecto.
func NewLagGap() *LagGap {
	return &LagGap{expectedMovePct: 8.0}
}

func (s *LagGap) Name() string              { return lagGapName }
func (s *LagGap) Tier() domain.PriorityTier { return domain.TierHigh }
func (s *LagGap) BaseThreshold() float64    { return 4.0 }

// Evaluate implementa Strategy. Edge is the unpriced share of the expected
// move; the side follows the incident (scoring favors the leading side).
func (s *LagGap) Evaluate(snap domain.MarketSnapshot, ev *domain.SportsEvent, threshold float64) (domain.Signal, bool) {
	if ev == nil || ev.Final {
		return domain.Signal{}, false
	}
	if ev.LastEvent != domain.EventGoal && ev.LastEvent != domain.EventWicket {
		return domain.Signal{}, false
	}

	observed := math.Abs(snap.MovePct())
	edge := s.expectedMovePct - observed
	if edge < threshold {
		return domain.Signal{}, false
	}

	// A wicket hurts the batting side's market; a goal helps the scorer's.
	side := domain.SideBuy
	if ev.LastEvent == domain.EventWicket {
		side = domain.SideSell
	}

	return domain.Signal{
		StrategyID: s.Name(),
		Tier:       s.Tier(),
		MarketID:   snap.MarketID,
		Question:   snap.Question,
		Sport:      snap.Sport,
		Side:       side,
		EntryPrice: snap.YesPrice,
		EdgeScore:  edge,
		Confidence: 0.7,
		SizeHint:   0.4,
		Rationale:  fmt.Sprintf("book lagging %s: %.1f%% move unpriced", ev.LastEvent, edge),
		CreatedAt:  time.Now(),
	}, true
}
