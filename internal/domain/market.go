package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// MarketSnapshot is one observation of a binary market. Immutable once produced.
type MarketSnapshot struct {
	MarketID  string
	Question  string
	Sport     string // "football", "nba", "cricket", "tennis", "" if unknown
	YesPrice  float64
	NoPrice   float64
	PrevYes   float64 // YES price from the previous cycle, 0 if unseen
	BestBid   float64
	BestAsk   float64
	Liquidity float64 // USDC resting near the top of the book
	Timestamp time.Time
}

// Valid reports whether the snapshot carries usable prices.
func (m MarketSnapshot) Valid() bool {
	if math.IsNaN(m.YesPrice) || math.IsNaN(m.NoPrice) {
		return false
	}
	return m.YesPrice > 0 && m.YesPrice < 1 && m.NoPrice > 0 && m.NoPrice < 1
}

// Stale reports whether the snapshot is older than maxAge at the given instant.
func (m MarketSnapshot) Stale(now time.Time, maxAge time.Duration) bool {
	return maxAge > 0 && now.Sub(m.Timestamp) > maxAge
}

// SpreadPct returns the bid/ask spread as a percentage of the mid price.
// Returns 0 when the book sides are unknown.
func (m MarketSnapshot) SpreadPct() float64 {
	if m.BestBid <= 0 || m.BestAsk <= 0 || m.BestAsk <= m.BestBid {
		return 0
	}
	mid := (m.BestBid + m.BestAsk) / 2
	return (m.BestAsk - m.BestBid) / mid * 100
}

// MovePct returns the YES price change since the previous cycle, in percent.
// Returns 0 when there is no previous observation.
func (m MarketSnapshot) MovePct() float64 {
	if m.PrevYes <= 0 {
		return 0
	}
	return (m.YesPrice - m.PrevYes) / m.PrevYes * 100
}

// EventKind classifies the most recent in-game incident.
type EventKind string

const (
	EventGoal   EventKind = "goal"
	EventWicket EventKind = "wicket"
	EventRun    EventKind = "run" // scoring run (NBA)
	EventNone   EventKind = ""
)

// ScoreState is the live score context attached to a SportsEvent.
type ScoreState struct {
	Home          int
	Away          int
	CompletionPct float64 // 0..100, share of the game already played
	Overs         float64 // cricket only
	Wickets       int     // cricket only
	RunPoints     int     // size of the most recent scoring run (NBA)
}

// Diff returns the absolute score difference.
func (s ScoreState) Diff() int {
	d := s.Home - s.Away
	if d < 0 {
		return -d
	}
	return d
}

// SportsEvent is one observation of live game state. Immutable.
type SportsEvent struct {
	EventID   string
	Sport     string
	Score     ScoreState
	Clock     string // e.g. "73'", "Q4 2:31", "14.3 ov"
	LastEvent EventKind
	Final     bool
	Timestamp time.Time
}

// Minute parses the leading minute out of a football-style clock string.
// "73'" → 73, "45+2'" → 45. Returns 0 when the clock is unparseable.
func (e SportsEvent) Minute() int {
	c := strings.TrimSpace(e.Clock)
	c = strings.ReplaceAll(c, "'", "")
	if i := strings.IndexAny(c, "+ "); i >= 0 {
		c = c[:i]
	}
	n, err := strconv.Atoi(c)
	if err != nil {
		return 0
	}
	return n
}

// TruncateQuestion shortens a market question for log and table output.
// Falls back to the market ID when the question is empty.
func TruncateQuestion(question, marketID string, maxLen int) string {
	q := question
	if q == "" {
		if len(marketID) > 20 {
			q = marketID[:20] + "..."
		} else {
			q = marketID
		}
	}
	if len(q) > maxLen {
		q = q[:maxLen-3] + "..."
	}
	return q
}
