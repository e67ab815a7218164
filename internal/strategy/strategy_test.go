package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

func liveSnap(sport string, yes, prev float64) domain.MarketSnapshot {
	return domain.MarketSnapshot{
		MarketID:  "mkt-1",
		Question:  "Will the home side win?",
		Sport:     sport,
		YesPrice:  yes,
		NoPrice:   1 - yes,
		PrevYes:   prev,
		Liquidity: 10_000,
		Timestamp: time.Now(),
	}
}

func TestRegistry_Order(t *testing.T) {
	reg := Default()

	all := reg.All()
	require.Len(t, all, 8)
	for i, s := range all {
		assert.Equal(t, i, reg.Index(s.Name()))
	}
	assert.Equal(t, -1, reg.Index("unknown"))

	high := reg.Tier(domain.TierHigh)
	names := make([]string, 0, len(high))
	for _, s := range high {
		names = append(names, s.Name())
	}
	assert.Contains(t, names, "overreaction_fade")
	assert.Contains(t, names, "wicket_shock")
	assert.Contains(t, names, "lag_gap")
}

func TestOverreactionFade(t *testing.T) {
	s := NewOverreactionFade()
	ev := &domain.SportsEvent{Sport: "football", LastEvent: domain.EventGoal}

	// +8% spike after a goal: fade it with a SELL.
	sig, ok := s.Evaluate(liveSnap("football", 0.54, 0.50), ev, 5.0)
	require.True(t, ok)
	assert.Equal(t, domain.SideSell, sig.Side)
	assert.InDelta(t, 8.0, sig.EdgeScore, 1e-9)
	assert.NoError(t, sig.Validate())

	// -8% crash: buy the dip.
	sig, ok = s.Evaluate(liveSnap("football", 0.46, 0.50), ev, 5.0)
	require.True(t, ok)
	assert.Equal(t, domain.SideBuy, sig.Side)

	// Below the threshold nothing fires.
	_, ok = s.Evaluate(liveSnap("football", 0.51, 0.50), ev, 5.0)
	assert.False(t, ok)

	// No live incident means no overreaction to fade.
	_, ok = s.Evaluate(liveSnap("football", 0.54, 0.50), nil, 5.0)
	assert.False(t, ok)
	_, ok = s.Evaluate(liveSnap("football", 0.54, 0.50), &domain.SportsEvent{Final: true, LastEvent: domain.EventGoal}, 5.0)
	assert.False(t, ok)
}

func TestLagGap(t *testing.T) {
	s := NewLagGap()

	// Goal with zero observed move: the full 8% is unpriced.
	goal := &domain.SportsEvent{Sport: "football", LastEvent: domain.EventGoal}
	sig, ok := s.Evaluate(liveSnap("football", 0.50, 0.50), goal, 4.0)
	require.True(t, ok)
	assert.Equal(t, domain.SideBuy, sig.Side)
	assert.InDelta(t, 8.0, sig.EdgeScore, 1e-9)

	// Wicket flips the side.
	wicket := &domain.SportsEvent{Sport: "cricket", LastEvent: domain.EventWicket}
	sig, ok = s.Evaluate(liveSnap("cricket", 0.50, 0.50), wicket, 4.0)
	require.True(t, ok)
	assert.Equal(t, domain.SideSell, sig.Side)

	// Market already moved most of the way: not enough gap left.
	sig, ok = s.Evaluate(liveSnap("football", 0.53, 0.50), goal, 4.0)
	assert.False(t, ok)

	// Scoring runs do not qualify.
	run := &domain.SportsEvent{Sport: "nba", LastEvent: domain.EventRun}
	_, ok = s.Evaluate(liveSnap("nba", 0.50, 0.50), run, 4.0)
	assert.False(t, ok)
}

func TestDrawDecay(t *testing.T) {
	s := NewDrawDecay()
	snap := liveSnap("football", 0.35, 0.35)
	snap.Question = "Will the match end in a draw?"

	tied := &domain.SportsEvent{
		Sport: "football",
		Clock: "80'",
		Score: domain.ScoreState{Home: 1, Away: 1},
	}
	sig, ok := s.Evaluate(snap, tied, 3.0)
	require.True(t, ok)
	assert.Equal(t, domain.SideSell, sig.Side)
	// (0.35-0.30)*100 + 10*0.5
	assert.InDelta(t, 10.0, sig.EdgeScore, 1e-9)

	// A lead kills the decay trade.
	leading := &domain.SportsEvent{
		Sport: "football",
		Clock: "80'",
		Score: domain.ScoreState{Home: 2, Away: 1},
	}
	_, ok = s.Evaluate(snap, leading, 3.0)
	assert.False(t, ok)

	// Crashed draw after a late goal: rescue buy.
	crashed := liveSnap("football", 0.06, 0.20)
	crashed.Question = "Will the match end in a draw?"
	lateGoal := &domain.SportsEvent{
		Sport:     "football",
		Clock:     "85'",
		LastEvent: domain.EventGoal,
		Score:     domain.ScoreState{Home: 2, Away: 1},
	}
	sig, ok = s.Evaluate(crashed, lateGoal, 3.0)
	require.True(t, ok)
	assert.Equal(t, domain.SideBuy, sig.Side)
	assert.InDelta(t, 8.0, sig.EdgeScore, 1e-9)

	// Non-draw markets are ignored.
	notDraw := liveSnap("football", 0.35, 0.35)
	_, ok = s.Evaluate(notDraw, tied, 3.0)
	assert.False(t, ok)
}

func TestRunReversion(t *testing.T) {
	s := NewRunReversion()

	run := &domain.SportsEvent{
		Sport:     "nba",
		LastEvent: domain.EventRun,
		Score:     domain.ScoreState{RunPoints: 12},
	}
	sig, ok := s.Evaluate(liveSnap("nba", 0.60, 0.55), run, 10.0)
	require.True(t, ok)
	assert.Equal(t, domain.SideSell, sig.Side, "price ran up, fade it")
	assert.InDelta(t, 12.0, sig.EdgeScore, 1e-9)
	assert.InDelta(t, 0.60, sig.Confidence, 1e-9)

	sig, ok = s.Evaluate(liveSnap("nba", 0.50, 0.55), run, 10.0)
	require.True(t, ok)
	assert.Equal(t, domain.SideBuy, sig.Side, "price ran down, fade it")

	small := &domain.SportsEvent{
		Sport:     "nba",
		LastEvent: domain.EventRun,
		Score:     domain.ScoreState{RunPoints: 8},
	}
	_, ok = s.Evaluate(liveSnap("nba", 0.60, 0.55), small, 10.0)
	assert.False(t, ok)

	_, ok = s.Evaluate(liveSnap("football", 0.60, 0.55), run, 10.0)
	assert.False(t, ok, "wrong sport")
}

func TestWicketShock(t *testing.T) {
	s := NewWicketShock()

	early := &domain.SportsEvent{
		Sport:     "cricket",
		LastEvent: domain.EventWicket,
		Score:     domain.ScoreState{Overs: 4.2, Wickets: 2},
	}
	// 20% dip after an early wicket.
	sig, ok := s.Evaluate(liveSnap("cricket", 0.40, 0.50), early, 15.0)
	require.True(t, ok)
	assert.Equal(t, domain.SideBuy, sig.Side)
	assert.InDelta(t, 20.0, sig.EdgeScore, 1e-9)
	assert.GreaterOrEqual(t, sig.Confidence, 0.5)
	assert.LessOrEqual(t, sig.Confidence, 0.8)

	// A collapsing side is never bought.
	collapse := &domain.SportsEvent{
		Sport:     "cricket",
		LastEvent: domain.EventWicket,
		Score:     domain.ScoreState{Overs: 4.2, Wickets: 5},
	}
	_, ok = s.Evaluate(liveSnap("cricket", 0.40, 0.50), collapse, 15.0)
	assert.False(t, ok)

	// Late wickets are priced efficiently.
	late := &domain.SportsEvent{
		Sport:     "cricket",
		LastEvent: domain.EventWicket,
		Score:     domain.ScoreState{Overs: 15, Wickets: 2},
	}
	_, ok = s.Evaluate(liveSnap("cricket", 0.40, 0.50), late, 15.0)
	assert.False(t, ok)
}

func TestMarketOnly(t *testing.T) {
	s := NewMarketOnly()

	// Extreme favorite gets sold with no sports data at all.
	sig, ok := s.Evaluate(liveSnap("", 0.80, 0), nil, 2.0)
	require.True(t, ok)
	assert.Equal(t, domain.SideSell, sig.Side)
	assert.InDelta(t, 5.0, sig.EdgeScore, 1e-9)

	// Cheap underdog in a win market gets bought.
	sig, ok = s.Evaluate(liveSnap("football", 0.10, 0), nil, 2.0)
	require.True(t, ok)
	assert.Equal(t, domain.SideBuy, sig.Side)
	assert.InDelta(t, 15.0, sig.EdgeScore, 1e-9)

	// Dust-priced markets are effectively resolved.
	_, ok = s.Evaluate(liveSnap("football", 0.02, 0), nil, 2.0)
	assert.False(t, ok)

	// The unpriced placeholder is skipped.
	_, ok = s.Evaluate(liveSnap("football", 0.50, 0), nil, 2.0)
	assert.False(t, ok)

	// Mid-range prices carry no structural edge.
	_, ok = s.Evaluate(liveSnap("football", 0.60, 0), nil, 2.0)
	assert.False(t, ok)
}

func TestFavoriteTrap(t *testing.T) {
	s := NewFavoriteTrap()
	ev := &domain.SportsEvent{Sport: "nba", Score: domain.ScoreState{CompletionPct: 80}}

	sig, ok := s.Evaluate(liveSnap("nba", 0.92, 0), ev, 5.0)
	require.True(t, ok)
	assert.Equal(t, domain.SideSell, sig.Side)
	assert.InDelta(t, 7.0, sig.EdgeScore, 1e-9)
	assert.LessOrEqual(t, sig.Confidence, 0.75)

	// Too early in the game.
	earlyGame := &domain.SportsEvent{Sport: "nba", Score: domain.ScoreState{CompletionPct: 50}}
	_, ok = s.Evaluate(liveSnap("nba", 0.92, 0), earlyGame, 5.0)
	assert.False(t, ok)

	_, ok = s.Evaluate(liveSnap("nba", 0.88, 0), ev, 5.0)
	assert.False(t, ok, "not extreme enough")
}

func TestVolatilityScalp(t *testing.T) {
	s := NewVolatilityScalp()

	snap := liveSnap("football", 0.50, 0)
	snap.BestBid = 0.47
	snap.BestAsk = 0.53
	sig, ok := s.Evaluate(snap, nil, 3.0)
	require.True(t, ok)
	assert.Equal(t, domain.SideBuy, sig.Side)
	assert.InDelta(t, 0.47, sig.EntryPrice, 1e-9, "scalps enter at the bid")
	assert.InDelta(t, 12.0, sig.EdgeScore, 1e-9)

	tight := liveSnap("football", 0.50, 0)
	tight.BestBid = 0.495
	tight.BestAsk = 0.505
	_, ok = s.Evaluate(tight, nil, 3.0)
	assert.False(t, ok)
}
