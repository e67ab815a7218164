package ports

import (
	"context"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

// TradeStorage persists trade events and aggregate performance.
// The in-memory account stays authoritative: a failed write is retried on a
// later cycle and never blocks the decision path.
type TradeStorage interface {
	ApplySchema(ctx context.Context) error

	SaveTradeEvent(ctx context.Context, ev domain.TradeEvent) error
	UpdateStrategyStats(ctx context.Context, strategyID string, win bool, pnl float64) error
	GetStrategyStats(ctx context.Context) ([]domain.StrategyStats, error)

	SaveDaily(ctx context.Context, d domain.DailySummary) error
	GetDailies(ctx context.Context) ([]domain.DailySummary, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
