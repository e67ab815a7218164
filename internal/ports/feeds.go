package ports

import (
	"context"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

// MarketFeed supplies per-cycle snapshots of tracked prediction markets.
type MarketFeed interface {
	// FetchSnapshots returns the current snapshot for every tracked market.
	// A market missing from the result simply skips the strategies that
	// need it this cycle.
	FetchSnapshots(ctx context.Context) ([]domain.MarketSnapshot, error)
}

// SportsFeed supplies live game state for markets that have one.
type SportsFeed interface {
	// FetchEvents returns live game state keyed by the market it maps to.
	// Markets without a matching game are absent from the result.
	FetchEvents(ctx context.Context, markets []domain.MarketSnapshot) (map[string]domain.SportsEvent, error)
}
