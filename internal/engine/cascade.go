package engine

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
	"github.com/alejandrodnm/polyquant/internal/strategy"
)

// CascadeConfig controls the tiered scan.
type CascadeConfig struct {
	ThresholdDecay float64       // per-retry threshold multiplier, e.g. 0.8
	MaxRetries     int           // extra passes per tier after the first
	MinMult        float64       // floor for the effective multiplier
	SnapshotMaxAge time.Duration // snapshots older than this are skipped
}

// ScanReport is the outcome of one full cascade pass.
type ScanReport struct {
	Signals        []domain.Signal
	TierSignals    map[string]int
	TierRetries    map[string]int
	Skipped        int // stale or malformed snapshots
	InvalidDropped int // signals rejected by validation
}

// CascadeEngine scans every market against every registered strategy in
// priority order. Each tier retries with decayed thresholds until it yields
// at least one signal or retries run out; later tiers always run regardless
// of what earlier tiers produced.
type CascadeEngine struct {
	cfg CascadeConfig
	reg *strategy.Registry
}

// NewCascadeEngine crea el motor de escaneo en cascada.
func NewCascadeEngine(cfg CascadeConfig, reg *strategy.Registry) *CascadeEngine {
	return &CascadeEngine{cfg: cfg, reg: reg}
}

type rankedSignal struct {
	sig      domain.Signal
	regIndex int
}

// Scan runs the full cascade over the given snapshots. It reads strategy
// multipliers from the account and stamps LastSignalAt on the states that
// produced a signal; balance, positions and multipliers are never touched.
// Callers serialize Scan with the rest of the cycle.
func (e *CascadeEngine) Scan(snaps []domain.MarketSnapshot, events map[string]domain.SportsEvent, acct *domain.TradingAccount, now time.Time) ScanReport {
	report := ScanReport{
		TierSignals: make(map[string]int),
		TierRetries: make(map[string]int),
	}

	usable := make([]domain.MarketSnapshot, 0, len(snaps))
	for _, s := range snaps {
		if !s.Valid() || s.Stale(now, e.cfg.SnapshotMaxAge) {
			report.Skipped++
			continue
		}
		usable = append(usable, s)
	}

	var ranked []rankedSignal
	for _, tier := range domain.Tiers {
		strats := e.reg.Tier(tier)
		if len(strats) == 0 {
			continue
		}

		var found []rankedSignal
		for retry := 0; retry <= e.cfg.MaxRetries; retry++ {
			decay := math.Pow(e.cfg.ThresholdDecay, float64(retry))
			found = e.scanTier(strats, usable, events, acct, decay, now, &report)
			if len(found) > 0 {
				report.TierRetries[tier.String()] = retry
				break
			}
		}
		report.TierSignals[tier.String()] = len(found)
		ranked = append(ranked, found...)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].sig.Tier != ranked[j].sig.Tier {
			return ranked[i].sig.Tier < ranked[j].sig.Tier
		}
		if ranked[i].sig.EdgeScore != ranked[j].sig.EdgeScore {
			return ranked[i].sig.EdgeScore > ranked[j].sig.EdgeScore
		}
		return ranked[i].regIndex < ranked[j].regIndex
	})

	report.Signals = make([]domain.Signal, len(ranked))
	for i, r := range ranked {
		report.Signals[i] = r.sig
	}
	return report
}

func (e *CascadeEngine) scanTier(strats []strategy.Strategy, snaps []domain.MarketSnapshot, events map[string]domain.SportsEvent, acct *domain.TradingAccount, decay float64, now time.Time, report *ScanReport) []rankedSignal {
	var found []rankedSignal
	for _, strat := range strats {
		st := acct.State(strat.Name(), strat.Tier())
		mult := st.Multiplier * decay
		if mult < e.cfg.MinMult {
			mult = e.cfg.MinMult
		}
		eff := strat.BaseThreshold() * mult

		for _, snap := range snaps {
			var evPtr *domain.SportsEvent
			if ev, ok := events[snap.MarketID]; ok {
				evPtr = &ev
			}
			sig, ok := strat.Evaluate(snap, evPtr, eff)
			if !ok {
				continue
			}
			sig.CreatedAt = now
			if err := sig.Validate(); err != nil {
				report.InvalidDropped++
				slog.Warn("dropping invalid signal",
					"strategy", strat.Name(),
					"market", snap.MarketID,
					"error", err,
				)
				continue
			}
			st.LastSignalAt = now
			found = append(found, rankedSignal{sig: sig, regIndex: e.reg.Index(strat.Name())})
		}
	}
	return found
}
