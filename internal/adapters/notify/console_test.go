package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/polyquant/internal/adapters/notify"
	"github.com/alejandrodnm/polyquant/internal/domain"
	"github.com/alejandrodnm/polyquant/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTradeEvent(action domain.TradeAction) domain.TradeEvent {
	return domain.TradeEvent{
		PositionID: "pos-1",
		StrategyID: "wicket_shock",
		MarketID:   "0xabc",
		Question:   "Will India beat Australia?",
		Action:     action,
		Side:       domain.SideBuy,
		Price:      0.42,
		Size:       100,
		Balance:    1000,
		At:         time.Now(),
	}
}

func TestConsole_NotifyTrade(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	require.NoError(t, c.NotifyTrade(context.Background(), makeTradeEvent(domain.ActionOpen)))

	ev := makeTradeEvent(domain.ActionClose)
	ev.PnL = 12.5
	ev.Reason = domain.CloseTakeProfit
	require.NoError(t, c.NotifyTrade(context.Background(), ev))

	out := buf.String()
	assert.Contains(t, out, "OPEN")
	assert.Contains(t, out, "Will India beat Australia?")
	assert.Contains(t, out, "wicket_shock")
	assert.Contains(t, out, "CLOSE")
	assert.Contains(t, out, "TAKE_PROFIT")
	assert.Contains(t, out, "+12.50")
}

func TestConsole_NotifyEmergency(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	require.NoError(t, c.NotifyEmergency(context.Background(), true, 0.9))
	assert.Contains(t, buf.String(), "EMERGENCY")

	buf.Reset()
	require.NoError(t, c.NotifyEmergency(context.Background(), false, 0.9))
	assert.Empty(t, buf.String())
}

func TestConsole_PrintStats(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	c.PrintStats(engine.StatsSnapshot{
		At:            time.Now(),
		Cycles:        7,
		Balance:       1042.50,
		HighWaterMark: 1060,
		DailyPnL:      -8.2,
		OpenPositions: 1,
		OpenNotional:  100,
		Multipliers:   map[string]float64{"lag_gap": 0.9},
		Positions: []domain.Position{{
			MarketID:   "0xabc",
			Question:   "Will the Lakers win?",
			StrategyID: "run_reversion",
			Side:       domain.SideSell,
			EntryPrice: 0.61,
			Size:       100,
			OpenedAt:   time.Now(),
			Status:     domain.PositionOpen,
		}},
	})

	out := buf.String()
	assert.Contains(t, out, "1042.50")
	assert.Contains(t, out, "Will the Lakers win?")
	assert.Contains(t, out, "run_reversion")
	assert.Contains(t, out, "lag_gap=0.90")
}

func TestConsole_PrintDailyReport(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	c.PrintDailyReport(nil, 1000)
	assert.Contains(t, buf.String(), "No hay días completos")

	buf.Reset()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	dailies := []domain.DailySummary{
		{Date: day, Trades: 4, Wins: 3, Losses: 1, NetPnL: 22, EndBalance: 1022, HighWaterMark: 1025},
		{Date: day.AddDate(0, 0, 1), Trades: 2, Wins: 1, Losses: 1, NetPnL: -5, EndBalance: 1017, HighWaterMark: 1025},
		{Date: day.AddDate(0, 0, 2), Trades: 3, Wins: 2, Losses: 1, NetPnL: 11, EndBalance: 1028, HighWaterMark: 1028},
	}
	c.PrintDailyReport(dailies, 1000)

	out := buf.String()
	assert.Contains(t, out, "PAPER TRADING REPORT")
	assert.Contains(t, out, "POSITIVE")
	assert.Contains(t, out, "Total trades:      9")
}

func TestConsole_PrintStrategyStats(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	c.PrintStrategyStats([]domain.StrategyStats{
		{StrategyID: "overreaction_fade", Trades: 10, Wins: 6, TotalPnL: 31.2},
	})

	out := buf.String()
	assert.Contains(t, out, "overreaction_fade")
	assert.Contains(t, out, "60%")
}
