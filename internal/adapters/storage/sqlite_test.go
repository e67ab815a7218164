package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/polyquant/internal/adapters/storage"
	"github.com/alejandrodnm/polyquant/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEvent(action domain.TradeAction, pnl float64) domain.TradeEvent {
	return domain.TradeEvent{
		PositionID: "pos-1",
		StrategyID: "overreaction_fade",
		MarketID:   "0xabc",
		Question:   "Will X beat Y?",
		Action:     action,
		Side:       domain.SideBuy,
		Price:      0.52,
		Size:       100,
		PnL:        pnl,
		Balance:    1000 + pnl,
		At:         time.Now().UTC().Truncate(time.Second),
	}
}

func TestSQLiteStorage_SaveTradeEvent(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.SaveTradeEvent(ctx, makeEvent(domain.ActionOpen, 0)))

	ev := makeEvent(domain.ActionClose, 12.5)
	ev.Reason = domain.CloseTakeProfit
	require.NoError(t, db.SaveTradeEvent(ctx, ev))
}

func TestSQLiteStorage_StrategyStatsAccumulate(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.UpdateStrategyStats(ctx, "wicket_shock", true, 20))
	require.NoError(t, db.UpdateStrategyStats(ctx, "wicket_shock", false, -8))
	require.NoError(t, db.UpdateStrategyStats(ctx, "market_only", true, 3))

	stats, err := db.GetStrategyStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	// Ordenadas por PnL desc
	assert.Equal(t, "wicket_shock", stats[0].StrategyID)
	assert.Equal(t, 2, stats[0].Trades)
	assert.Equal(t, 1, stats[0].Wins)
	assert.InDelta(t, 12.0, stats[0].TotalPnL, 0.001)
	assert.InDelta(t, 0.5, stats[0].WinRate(), 0.001)
}

func TestSQLiteStorage_DailyUpsert(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.SaveDaily(ctx, domain.DailySummary{
		Date:       day,
		Trades:     3,
		Wins:       2,
		Losses:     1,
		NetPnL:     15,
		EndBalance: 1015,
	}))

	// Un segundo rollover del mismo día sobreescribe, no duplica.
	require.NoError(t, db.SaveDaily(ctx, domain.DailySummary{
		Date:       day,
		Trades:     4,
		Wins:       2,
		Losses:     2,
		NetPnL:     9,
		EndBalance: 1009,
	}))

	dailies, err := db.GetDailies(ctx)
	require.NoError(t, err)
	require.Len(t, dailies, 1)
	assert.Equal(t, 4, dailies[0].Trades)
	assert.InDelta(t, 9.0, dailies[0].NetPnL, 0.001)
	assert.Equal(t, day, dailies[0].Date)
}

func TestSQLiteStorage_EmptyReads(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	stats, err := db.GetStrategyStats(ctx)
	require.NoError(t, err)
	assert.Empty(t, stats)

	dailies, err := db.GetDailies(ctx)
	require.NoError(t, err)
	assert.Empty(t, dailies)
}
