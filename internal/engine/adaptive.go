package engine

import (
	"log/slog"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

// AdaptiveConfig controls how threshold multipliers react to realized
// performance. A multiplier below 1.0 loosens a strategy (more trades),
// above 1.0 tightens it.
type AdaptiveConfig struct {
	LookbackTrades int     // rolling outcome window size
	MinSamples     int     // no adaptation below this many outcomes
	UpperBand      float64 // win rate at or above → loosen
	LowerBand      float64 // win rate at or below → tighten
	LoosenFactor   float64 // <1, applied on good performance
	TightenFactor  float64 // >1, applied on poor performance
	MinMult        float64
	MaxMult        float64
	EmergencyAfter time.Duration // dry spell before global loosening
	EmergencyDecay float64       // one-shot multiplier applied account-wide
}

// Tracker adapts per-strategy thresholds from a bounded rolling window of
// trade outcomes, and runs the account-wide emergency loosening.
type Tracker struct {
	cfg           AdaptiveConfig
	emergency     bool
	lastEmergency time.Time
}

// NewTracker crea el tracker con la configuración dada.
func NewTracker(cfg AdaptiveConfig) *Tracker {
	return &Tracker{cfg: cfg}
}

// RecordOutcome appends a win/loss to the strategy's rolling window and
// recomputes its multiplier. States are seeded at startup, so an unknown
// strategy id is ignored.
func (t *Tracker) RecordOutcome(acct *domain.TradingAccount, strategyID string, win bool) {
	st, ok := acct.Strategies[strategyID]
	if !ok {
		return
	}
	st.Record(win, t.cfg.LookbackTrades)

	if t.emergency {
		t.emergency = false
		slog.Info("emergency mode cleared: trade closed")
	}

	if len(st.Window) < t.cfg.MinSamples {
		return
	}

	rate := st.WinRate()
	old := st.Multiplier
	switch {
	case rate >= t.cfg.UpperBand:
		st.Multiplier = clampMult(st.Multiplier*t.cfg.LoosenFactor, t.cfg.MinMult, t.cfg.MaxMult)
	case rate <= t.cfg.LowerBand:
		st.Multiplier = clampMult(st.Multiplier*t.cfg.TightenFactor, t.cfg.MinMult, t.cfg.MaxMult)
	default:
		return
	}

	if st.Multiplier != old {
		slog.Debug("adaptive threshold adjusted",
			"strategy", strategyID,
			"win_rate", rate,
			"multiplier", st.Multiplier,
		)
	}
}

// CheckEmergency applies a one-shot global loosening when no trade has closed
// for the configured dry spell. The timer basis resets so a continuing dry
// spell does not compound every cycle. Returns true when the loosening fired.
func (t *Tracker) CheckEmergency(acct *domain.TradingAccount, now time.Time) bool {
	if t.cfg.EmergencyAfter <= 0 {
		return false
	}
	basis := acct.LastTradeClosedAt
	if t.lastEmergency.After(basis) {
		basis = t.lastEmergency
	}
	if now.Sub(basis) < t.cfg.EmergencyAfter {
		return false
	}

	for _, st := range acct.Strategies {
		st.Multiplier = clampMult(st.Multiplier*t.cfg.EmergencyDecay, t.cfg.MinMult, t.cfg.MaxMult)
	}
	t.emergency = true
	t.lastEmergency = now
	slog.Warn("emergency mode: loosening all thresholds",
		"dry_spell", now.Sub(acct.LastTradeClosedAt).Round(time.Minute),
		"decay", t.cfg.EmergencyDecay,
	)
	return true
}

// EmergencyMode reports whether the account is in an emergency dry spell.
func (t *Tracker) EmergencyMode() bool {
	return t.emergency
}

func clampMult(m, lo, hi float64) float64 {
	if m < lo {
		return lo
	}
	if m > hi {
		return hi
	}
	return m
}
