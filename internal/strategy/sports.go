package strategy

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

const drawDecayName = "draw_decay"

// DrawDecay trades the natural decay of draw probability in football: a draw
// still priced above 30% past minute 70 of a tied game is overpriced, and a
// draw crushed below 10% by a late goal retains hedge value.
type DrawDecay struct {
	startMinute int
	sellAbove   float64
	rescueBelow float64
}

// NewDrawDecay crea la estrategia con sus parámetros por defecto.
func NewDrawDecay() *DrawDecay {
	return &DrawDecay{startMinute: 70, sellAbove: 0.30, rescueBelow: 0.10}
}

func (s *DrawDecay) Name() string              { return drawDecayName }
func (s *DrawDecay) Tier() domain.PriorityTier { return domain.TierMedium }
func (s *DrawDecay) BaseThreshold() float64    { return 3.0 }

// Evaluate implementa Strategy. Solo aplica a mercados de empate en fútbol.
func (s *DrawDecay) Evaluate(snap domain.MarketSnapshot, ev *domain.SportsEvent, threshold float64) (domain.Signal, bool) {
	if ev == nil || ev.Final || snap.Sport != "football" {
		return domain.Signal{}, false
	}
	q := strings.ToLower(snap.Question)
	if !strings.Contains(q, "draw") && !strings.Contains(q, "tie") {
		return domain.Signal{}, false
	}

	minute := ev.Minute()

	// Tied late game with the draw still rich: sell the decay.
	if minute >= s.startMinute && ev.Score.Diff() == 0 && snap.YesPrice > s.sellAbove {
		edge := (snap.YesPrice-s.sellAbove)*100 + float64(minute-s.startMinute)*0.5
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
			EntryPrice: snap.YesPrice,
			EdgeScore:  edge,
			Confidence: 0.65,
			SizeHint:   0.5,
			Rationale:  fmt.Sprintf("draw decay: minute %d still %d-%d", minute, ev.Score.Home, ev.Score.Away),
			CreatedAt:  time.Now(),
		}, true
	}

	// Late goal crushed the draw: the crash usually overshoots.
	if ev.LastEvent == domain.EventGoal && minute >= 75 && snap.YesPrice < s.rescueBelow {
		edge := (s.rescueBelow - snap.YesPrice) * 200
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
			EntryPrice: snap.YesPrice,
			EdgeScore:  edge,
			Confidence: 0.55,
			SizeHint:   0.3,
			Rationale:  "buying crashed draw after late goal",
			CreatedAt:  time.Now(),
		}, true
	}

	return domain.Signal{}, false
}

const runReversionName = "run_reversion"

// RunReversion fades NBA scoring runs: after a 10+ point run the market
// prices the momentum as if it were permanent, and scoring regresses.
type RunReversion struct {
	minRunPoints int
}

// NewRunReversion crea la estrategia con sus parámetros por defecto.
func NewRunReversion() *RunReversion {
	return &RunReversion{minRunPoints: 10}
}

func (s *RunReversion) Name() string              { return runReversionName }
func (s *RunReversion) Tier() domain.PriorityTier { return domain.TierMedium }
func (s *RunReversion) BaseThreshold() float64    { return 10.0 }

// Evaluate implementa Strategy. Edge is the run size in points.
func (s *RunReversion) Evaluate(snap domain.MarketSnapshot, ev *domain.SportsEvent, threshold float64) (domain.Signal, bool) {
	if ev == nil || ev.Final || snap.Sport != "nba" {
		return domain.Signal{}, false
	}
	if ev.LastEvent != domain.EventRun || ev.Score.RunPoints < s.minRunPoints {
		return domain.Signal{}, false
	}

	edge := float64(ev.Score.RunPoints)
	if edge < threshold {
		return domain.Signal{}, false
	}

	// A run inflates the running team's price; fade whichever way the
	// market just moved.
	side := domain.SideSell
	if snap.MovePct() < 0 {
		side = domain.SideBuy
	}

	confidence := math.Min(0.75, 0.5+float64(ev.Score.RunPoints-s.minRunPoints)*0.05)

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
		Rationale:  fmt.Sprintf("fading %d-pt run", ev.Score.RunPoints),
		CreatedAt:  time.Now(),
	}, true
}

const wicketShockName = "wicket_shock"

// WicketShock buys the panic dip after an early wicket in cricket. Only the
// first overs qualify, and a collapsing side (4+ wickets) is never bought.
type WicketShock struct {
	maxOvers   float64
	maxWickets int
}

// NewWicketShock crea la estrategia con sus parámetros por defecto.
func NewWicketShock() *WicketShock {
	return &WicketShock{maxOvers: 10, maxWickets: 3}
}

func (s *WicketShock) Name() string              { return wicketShockName }
func (s *WicketShock) Tier() domain.PriorityTier { return domain.TierHigh }
func (s *WicketShock) BaseThreshold() float64    { return 15.0 }

// Evaluate implementa Strategy. Edge is the dip size in percent.
func (s *WicketShock) Evaluate(snap domain.MarketSnapshot, ev *domain.SportsEvent, threshold float64) (domain.Signal, bool) {
	if ev == nil || ev.Final || snap.Sport != "cricket" {
		return domain.Signal{}, false
	}
	if ev.LastEvent != domain.EventWicket {
		return domain.Signal{}, false
	}
	if ev.Score.Overs > s.maxOvers || ev.Score.Wickets > s.maxWickets {
		return domain.Signal{}, false
	}

	dip := -snap.MovePct()
	if dip < threshold {
		return domain.Signal{}, false
	}

	confidence := math.Min(0.8, math.Max(0.5, 0.6+(dip-15)*0.02))

	return domain.Signal{
		StrategyID: s.Name(),
		Tier:       s.Tier(),
		MarketID:   snap.MarketID,
		Question:   snap.Question,
		Sport:      snap.Sport,
		Side:       domain.SideBuy,
		EntryPrice: snap.YesPrice,
		EdgeScore:  dip,
		Confidence: confidence,
		SizeHint:   0.4,
		Rationale:  fmt.Sprintf("buying %.1f%% dip after wicket (over %.1f)", dip, ev.Score.Overs),
		CreatedAt:  time.Now(),
	}, true
}
