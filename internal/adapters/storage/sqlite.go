package storage

// sqlite.go — persistencia de trading sin ruido.
//
// Estrategia:
//   - `trade_events`: una fila por OPEN/PYRAMID/CLOSE. Es el journal completo
//     del paper trader; la cuenta en memoria sigue siendo la autoridad.
//   - `strategy_stats`: UNA fila por estrategia (UPSERT incremental).
//   - `dailies`: una fila por día UTC, escrita en el rollover.
//   - Prune automático al arrancar: trade_events > 90d.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Journal de operaciones del paper trader
CREATE TABLE IF NOT EXISTS trade_events (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    position_id TEXT    NOT NULL,
    strategy_id TEXT    NOT NULL,
    market_id   TEXT    NOT NULL,
    question    TEXT,
    action      TEXT    NOT NULL,
    side        TEXT    NOT NULL,
    price       REAL    NOT NULL,
    size        REAL    NOT NULL,
    pnl         REAL    NOT NULL DEFAULT 0,
    reason      TEXT,
    balance     REAL    NOT NULL,
    at          DATETIME NOT NULL
);

-- Una fila por estrategia, acumulada con UPSERT
CREATE TABLE IF NOT EXISTS strategy_stats (
    strategy_id TEXT PRIMARY KEY,
    trades      INTEGER NOT NULL DEFAULT 0,
    wins        INTEGER NOT NULL DEFAULT 0,
    total_pnl   REAL    NOT NULL DEFAULT 0
);

-- Resumen por día UTC, escrito en el rollover
CREATE TABLE IF NOT EXISTS dailies (
    day            TEXT PRIMARY KEY,
    trades         INTEGER NOT NULL DEFAULT 0,
    wins           INTEGER NOT NULL DEFAULT 0,
    losses         INTEGER NOT NULL DEFAULT 0,
    net_pnl        REAL    NOT NULL DEFAULT 0,
    end_balance    REAL    NOT NULL DEFAULT 0,
    high_water     REAL    NOT NULL DEFAULT 0,
    open_positions INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_events_at       ON trade_events(at DESC);
CREATE INDEX IF NOT EXISTS idx_events_strategy ON trade_events(strategy_id);
CREATE INDEX IF NOT EXISTS idx_events_position ON trade_events(position_id);
`

// journal de eventos: 90 días es más que suficiente para el análisis post-hoc
const retentionEvents = 90 * 24 * time.Hour

// SQLiteStorage implementa ports.TradeStorage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia eventos antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	s := &SQLiteStorage{db: db}
	if err := s.ApplySchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	s.pruneOld(context.Background())
	return s, nil
}

// ApplySchema crea las tablas si no existen.
func (s *SQLiteStorage) ApplySchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("storage.ApplySchema: %w", err)
	}
	return nil
}

// SaveTradeEvent añade una fila al journal.
func (s *SQLiteStorage) SaveTradeEvent(ctx context.Context, ev domain.TradeEvent) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO trade_events
			(position_id, strategy_id, market_id, question, action, side,
			 price, size, pnl, reason, balance, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ev.PositionID,
		ev.StrategyID,
		ev.MarketID,
		ev.Question,
		string(ev.Action),
		string(ev.Side),
		ev.Price,
		ev.Size,
		ev.PnL,
		string(ev.Reason),
		ev.Balance,
		ev.At.UTC(),
	); err != nil {
		return fmt.Errorf("storage.SaveTradeEvent: %s/%s: %w", ev.Action, ev.MarketID, err)
	}
	return nil
}

// UpdateStrategyStats acumula un cierre en la fila de la estrategia.
func (s *SQLiteStorage) UpdateStrategyStats(ctx context.Context, strategyID string, win bool, pnl float64) error {
	winInc := 0
	if win {
		winInc = 1
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO strategy_stats (strategy_id, trades, wins, total_pnl)
		VALUES (?, 1, ?, ?)
		ON CONFLICT(strategy_id) DO UPDATE SET
			trades    = trades + 1,
			wins      = wins + excluded.wins,
			total_pnl = total_pnl + excluded.total_pnl
	`, strategyID, winInc, pnl); err != nil {
		return fmt.Errorf("storage.UpdateStrategyStats: %s: %w", strategyID, err)
	}
	return nil
}

// GetStrategyStats devuelve el rendimiento acumulado, mejores primero.
func (s *SQLiteStorage) GetStrategyStats(ctx context.Context) ([]domain.StrategyStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT strategy_id, trades, wins, total_pnl
		FROM strategy_stats
		ORDER BY total_pnl DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetStrategyStats: query: %w", err)
	}
	defer rows.Close()

	var stats []domain.StrategyStats
	for rows.Next() {
		var st domain.StrategyStats
		if err := rows.Scan(&st.StrategyID, &st.Trades, &st.Wins, &st.TotalPnL); err != nil {
			return nil, fmt.Errorf("storage.GetStrategyStats: scan row: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// SaveDaily hace upsert del resumen del día. El rollover puede repetirse tras
// un reinicio, así que la fila del día se sobreescribe sin duplicar.
func (s *SQLiteStorage) SaveDaily(ctx context.Context, d domain.DailySummary) error {
	day := d.Date.UTC().Format("2006-01-02")
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO dailies
			(day, trades, wins, losses, net_pnl, end_balance, high_water, open_positions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			trades         = excluded.trades,
			wins           = excluded.wins,
			losses         = excluded.losses,
			net_pnl        = excluded.net_pnl,
			end_balance    = excluded.end_balance,
			high_water     = excluded.high_water,
			open_positions = excluded.open_positions
	`, day, d.Trades, d.Wins, d.Losses, d.NetPnL, d.EndBalance, d.HighWaterMark, d.OpenPositions); err != nil {
		return fmt.Errorf("storage.SaveDaily: %s: %w", day, err)
	}
	return nil
}

// GetDailies devuelve todos los resúmenes diarios en orden cronológico.
func (s *SQLiteStorage) GetDailies(ctx context.Context) ([]domain.DailySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT day, trades, wins, losses, net_pnl, end_balance, high_water, open_positions
		FROM dailies
		ORDER BY day ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetDailies: query: %w", err)
	}
	defer rows.Close()

	var out []domain.DailySummary
	for rows.Next() {
		var d domain.DailySummary
		var day string
		if err := rows.Scan(&day, &d.Trades, &d.Wins, &d.Losses, &d.NetPnL, &d.EndBalance, &d.HighWaterMark, &d.OpenPositions); err != nil {
			return nil, fmt.Errorf("storage.GetDailies: scan row: %w", err)
		}
		d.Date, _ = time.Parse("2006-01-02", day)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld elimina eventos antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionEvents)
	s.db.ExecContext(ctx, `DELETE FROM trade_events WHERE at < ?`, cutoff)
}
