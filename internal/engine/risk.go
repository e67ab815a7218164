package engine

import (
	"log/slog"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

// SizingMode selects how the gate converts an accepted signal into a stake.
type SizingMode string

const (
	SizeFixed   SizingMode = "fixed"
	SizePercent SizingMode = "percent"
	SizeKelly   SizingMode = "kelly"
)

// RejectReason classifies why the gate refused a signal.
type RejectReason string

const (
	RejectNone             RejectReason = ""
	RejectDailyLoss        RejectReason = "daily_loss_limit"
	RejectLossStreak       RejectReason = "consecutive_losses"
	RejectMaxOpen          RejectReason = "max_open_positions"
	RejectThinLiquidity    RejectReason = "insufficient_liquidity"
	RejectDuplicateMarket  RejectReason = "already_in_market"
	RejectNegligibleSizing RejectReason = "size_too_small"
)

// RiskConfig bounds what the account is allowed to stake.
type RiskConfig struct {
	Mode            SizingMode
	FixedSize       float64 // dollars per trade in fixed mode
	PositionSizePct float64 // fraction of balance in percent mode, kelly ceiling
	KellyFraction   float64 // fractional Kelly, e.g. 0.25
	MaxPositionSize float64 // hard dollar cap per position
	MaxOpenPos      int
	DailyLossLimit  float64 // positive dollars
	LossStreakPause int
	LiquidityFloor  float64 // market liquidity must cover size by this multiple
	MinStake        float64 // sizes below this are not worth the fees
}

// Decision is the gate's verdict on one signal. When accepted, Size carries
// the final clamped stake.
type Decision struct {
	Accepted bool
	Reason   RejectReason
	Size     float64
}

// RiskGate applies account-level guardrails between the cascade and the
// position manager. Checks run in a fixed order so rejection reasons are
// deterministic.
type RiskGate struct {
	cfg RiskConfig
}

// NewRiskGate crea la puerta de riesgo.
func NewRiskGate(cfg RiskConfig) *RiskGate {
	return &RiskGate{cfg: cfg}
}

// Evaluate sizes the signal and checks it against every limit. It never
// mutates the account.
func (g *RiskGate) Evaluate(sig domain.Signal, liquidity float64, acct *domain.TradingAccount) Decision {
	if acct.Equity.DailyPnL <= -g.cfg.DailyLossLimit {
		return g.reject(sig, RejectDailyLoss)
	}
	if acct.Equity.ConsecutiveLosses >= g.cfg.LossStreakPause {
		return g.reject(sig, RejectLossStreak)
	}
	if acct.OpenCount() >= g.cfg.MaxOpenPos {
		return g.reject(sig, RejectMaxOpen)
	}
	if acct.OpenOnMarket(sig.MarketID) > 0 {
		return g.reject(sig, RejectDuplicateMarket)
	}

	size := g.size(sig, acct)
	if size < g.cfg.MinStake {
		return g.reject(sig, RejectNegligibleSizing)
	}
	if liquidity < size*g.cfg.LiquidityFloor {
		return g.reject(sig, RejectThinLiquidity)
	}

	return Decision{Accepted: true, Size: size}
}

func (g *RiskGate) size(sig domain.Signal, acct *domain.TradingAccount) float64 {
	balance := acct.Equity.Balance

	var size float64
	switch g.cfg.Mode {
	case SizeFixed:
		size = g.cfg.FixedSize
	case SizeKelly:
		trueProb := domain.ImpliedTrueProb(sig.EntryPrice, sig.Confidence)
		f := domain.KellyFromPrice(sig.EntryPrice, trueProb) * g.cfg.KellyFraction
		if f > g.cfg.PositionSizePct {
			f = g.cfg.PositionSizePct
		}
		size = balance * f
	default: // percent
		size = balance * g.cfg.PositionSizePct
	}

	// Size hints in (0,1] scale the stake down; larger hints act as a
	// dollar cap suggested by the strategy.
	if sig.SizeHint > 0 && sig.SizeHint <= 1 {
		size *= sig.SizeHint
	} else if sig.SizeHint > 1 && sig.SizeHint < size {
		size = sig.SizeHint
	}

	if size > g.cfg.MaxPositionSize {
		size = g.cfg.MaxPositionSize
	}
	if size > balance {
		size = balance
	}
	if size < 0 {
		size = 0
	}
	return size
}

func (g *RiskGate) reject(sig domain.Signal, reason RejectReason) Decision {
	slog.Debug("signal rejected",
		"strategy", sig.StrategyID,
		"market", sig.MarketID,
		"reason", string(reason),
	)
	return Decision{Reason: reason}
}
