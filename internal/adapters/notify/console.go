package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/polyquant/internal/domain"
	"github.com/alejandrodnm/polyquant/internal/engine"
)

// Console implementa ports.AlertSink escribiendo en stdout.
type Console struct {
	out     io.Writer
	verbose bool
}

// NewConsole crea el sink de consola.
func NewConsole(verbose bool) *Console {
	return &Console{out: os.Stdout, verbose: verbose}
}

// NewConsoleWriter crea un sink para tests.
func NewConsoleWriter(w io.Writer, verbose bool) *Console {
	return &Console{out: w, verbose: verbose}
}

// NotifyTrade imprime una línea compacta por evento de trading.
func (c *Console) NotifyTrade(_ context.Context, ev domain.TradeEvent) error {
	now := ev.At.Format("15:04:05")
	name := compactName(domain.TruncateQuestion(ev.Question, ev.MarketID, 40), 40)

	switch ev.Action {
	case domain.ActionOpen:
		fmt.Fprintf(c.out, "[%s] OPEN  %s %-40s %s @%.4f $%.2f  [%s]\n",
			now, sideIcon(ev.Side), name, ev.Side, ev.Price, ev.Size, ev.StrategyID)
	case domain.ActionPyramid:
		fmt.Fprintf(c.out, "[%s] PYR   + %-40s @%.4f +$%.2f  [%s]\n",
			now, name, ev.Price, ev.Size, ev.StrategyID)
	case domain.ActionClose:
		fmt.Fprintf(c.out, "[%s] CLOSE %s %-40s @%.4f pnl %+.2f (%s)  bal $%.2f\n",
			now, pnlIcon(ev.PnL), name, ev.Price, ev.PnL, ev.Reason, ev.Balance)
	}
	return nil
}

// NotifyEmergency imprime el aviso de sequía de señales.
func (c *Console) NotifyEmergency(_ context.Context, active bool, decay float64) error {
	if active {
		fmt.Fprintf(c.out, "[%s] !! EMERGENCY: sin trades cerrados, thresholds x%.2f\n",
			time.Now().Format("15:04:05"), decay)
	}
	return nil
}

// PrintStats imprime el estado del motor: equity y posiciones abiertas.
func (c *Console) PrintStats(s engine.StatsSnapshot) {
	now := s.At.Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] cycle %d — bal $%.2f (hwm $%.2f) | day %+.2f | streak %d | open %d ($%.2f)",
		now, s.Cycles, s.Balance, s.HighWaterMark, s.DailyPnL,
		s.ConsecutiveLosses, s.OpenPositions, s.OpenNotional)
	if s.Emergency {
		fmt.Fprint(c.out, " | EMERGENCY")
	}
	fmt.Fprintln(c.out)

	if len(s.Positions) > 0 {
		table := tablewriter.NewWriter(c.out)
		table.Header("Market", "Strategy", "Side", "Entry", "Size", "Pyr", "Trail", "Opened")
		for _, p := range s.Positions {
			trail := "-"
			if p.TrailingActive {
				trail = fmt.Sprintf("%.4f", p.HighWaterPrice)
			}
			table.Append(
				domain.TruncateQuestion(p.Question, p.MarketID, 34),
				p.StrategyID,
				string(p.Side),
				fmt.Sprintf("%.4f", p.EntryPrice),
				fmt.Sprintf("$%.2f", p.Size),
				fmt.Sprintf("%d", p.PyramidsAdded),
				trail,
				p.OpenedAt.Format("15:04"),
			)
		}
		table.Render()
	}

	if !c.verbose {
		return
	}
	if len(s.Multipliers) > 0 {
		var sb strings.Builder
		sb.WriteString("  multipliers:")
		for id, m := range s.Multipliers {
			fmt.Fprintf(&sb, " %s=%.2f", id, m)
		}
		fmt.Fprintln(c.out, sb.String())
	}
	if len(s.Rejected) > 0 {
		var sb strings.Builder
		sb.WriteString("  rejected:")
		for reason, n := range s.Rejected {
			fmt.Fprintf(&sb, " %s=%d", reason, n)
		}
		fmt.Fprintln(c.out, sb.String())
	}
}

// PrintStrategyStats imprime el rendimiento acumulado por estrategia.
func (c *Console) PrintStrategyStats(stats []domain.StrategyStats) {
	if len(stats) == 0 {
		fmt.Fprintln(c.out, "\n  No hay trades cerrados todavía.")
		return
	}

	fmt.Fprintf(c.out, "\n=== STRATEGY PERFORMANCE ===\n")
	table := tablewriter.NewWriter(c.out)
	table.Header("Strategy", "Trades", "Wins", "Win%", "PnL")
	for _, st := range stats {
		table.Append(
			st.StrategyID,
			fmt.Sprintf("%d", st.Trades),
			fmt.Sprintf("%d", st.Wins),
			fmt.Sprintf("%.0f%%", st.WinRate()*100),
			fmt.Sprintf("$%+.2f", st.TotalPnL),
		)
	}
	table.Render()
}

// PrintDailyReport imprime el histórico diario con veredicto.
func (c *Console) PrintDailyReport(dailies []domain.DailySummary, startBalance float64) {
	if len(dailies) == 0 {
		fmt.Fprintln(c.out, "\n  No hay días completos todavía. Deja el bot corriendo.")
		return
	}

	fmt.Fprintf(c.out, "\n========================================================\n")
	fmt.Fprintf(c.out, "  PAPER TRADING REPORT\n")
	fmt.Fprintf(c.out, "  %s to %s (%d days)\n",
		dailies[0].Date.Format("2006-01-02"),
		dailies[len(dailies)-1].Date.Format("2006-01-02"),
		len(dailies))
	fmt.Fprintf(c.out, "========================================================\n\n")

	table := tablewriter.NewWriter(c.out)
	table.Header("Date", "Trades", "W", "L", "NetPnL", "Balance", "HWM", "Open")
	var totalPnL float64
	totalTrades, totalWins := 0, 0
	for _, d := range dailies {
		totalPnL += d.NetPnL
		totalTrades += d.Trades
		totalWins += d.Wins
		table.Append(
			d.Date.Format("01-02"),
			fmt.Sprintf("%d", d.Trades),
			fmt.Sprintf("%d", d.Wins),
			fmt.Sprintf("%d", d.Losses),
			fmt.Sprintf("$%+.2f", d.NetPnL),
			fmt.Sprintf("$%.2f", d.EndBalance),
			fmt.Sprintf("$%.2f", d.HighWaterMark),
			fmt.Sprintf("%d", d.OpenPositions),
		)
	}
	table.Render()

	last := dailies[len(dailies)-1]
	dailyAvg := totalPnL / float64(len(dailies))

	fmt.Fprintf(c.out, "\n  --- AGGREGATE ---\n")
	fmt.Fprintf(c.out, "  Total trades:      %d\n", totalTrades)
	if totalTrades > 0 {
		fmt.Fprintf(c.out, "  Win rate:          %.1f%%\n", float64(totalWins)/float64(totalTrades)*100)
	}
	fmt.Fprintf(c.out, "  Net PnL:           $%+.2f\n", totalPnL)
	fmt.Fprintf(c.out, "  Daily avg:         $%+.2f/day\n", dailyAvg)
	if startBalance > 0 {
		fmt.Fprintf(c.out, "  Return:            %+.1f%%\n", (last.EndBalance-startBalance)/startBalance*100)
	}

	fmt.Fprintf(c.out, "\n  --- VERDICT ---\n")
	switch {
	case len(dailies) < 3:
		fmt.Fprintf(c.out, "  Need at least 3 days of data. Currently %d days.\n", len(dailies))
	case totalPnL > 0 && dailyAvg > 0:
		fmt.Fprintf(c.out, "  POSITIVE: paper trading is net profitable.\n")
	default:
		fmt.Fprintf(c.out, "  NEGATIVE: not profitable yet. Review strategy mix.\n")
	}
	fmt.Fprintln(c.out)
}

// --- helpers ---

func sideIcon(side domain.Side) string {
	if side == domain.SideSell {
		return "v"
	}
	return "^"
}

func pnlIcon(pnl float64) string {
	if pnl > 0 {
		return "+"
	}
	return "-"
}

func compactName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
