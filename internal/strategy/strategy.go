package strategy

import (
	"github.com/alejandrodnm/polyquant/internal/domain"
)

// Strategy define el contrato para evaluar un mercado y emitir una señal.
// Cada estrategia encapsula una heurística de trading diferente.
type Strategy interface {
	// Name devuelve el identificador único de la estrategia.
	Name() string

	// Tier devuelve la prioridad de la estrategia dentro del cascade.
	Tier() domain.PriorityTier

	// BaseThreshold is the edge score a signal must clear before any
	// adaptive or cascade multiplier is applied.
	BaseThreshold() float64

	// Evaluate inspects one market snapshot (plus live game state when the
	// feed has one for it) against the effective threshold. It is a pure
	// read: no account state is touched. Returns ok=false when the market
	// offers nothing above threshold or required data is missing.
	Evaluate(snap domain.MarketSnapshot, ev *domain.SportsEvent, threshold float64) (domain.Signal, bool)
}

// Registry is the static, ordered collection of strategies built at
// initialization. Registration order is the tie-break order inside a tier.
type Registry struct {
	ordered []Strategy
}

// NewRegistry crea un registry vacío.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register añade una estrategia al registry preservando el orden de registro.
func (r *Registry) Register(s Strategy) {
	r.ordered = append(r.ordered, s)
}

// Tier returns the strategies of one tier in registration order.
func (r *Registry) Tier(t domain.PriorityTier) []Strategy {
	var out []Strategy
	for _, s := range r.ordered {
		if s.Tier() == t {
			out = append(out, s)
		}
	}
	return out
}

// All returns every registered strategy in registration order.
func (r *Registry) All() []Strategy {
	return r.ordered
}

// Index returns the registration index of a strategy name, or -1.
func (r *Registry) Index(name string) int {
	for i, s := range r.ordered {
		if s.Name() == name {
			return i
		}
	}
	return -1
}

// Default builds the standard registry with every built-in strategy in its
// canonical order.
func Default() *Registry {
	r := NewRegistry()
	r.Register(NewOverreactionFade())
	r.Register(NewWicketShock())
	r.Register(NewLagGap())
	r.Register(NewDrawDecay())
	r.Register(NewRunReversion())
	r.Register(NewMarketOnly())
	r.Register(NewFavoriteTrap())
	r.Register(NewVolatilityScalp())
	return r
}
