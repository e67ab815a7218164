package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/polyquant/config"
	"github.com/alejandrodnm/polyquant/internal/adapters/espn"
	"github.com/alejandrodnm/polyquant/internal/adapters/notify"
	"github.com/alejandrodnm/polyquant/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyquant/internal/adapters/storage"
	"github.com/alejandrodnm/polyquant/internal/domain"
	"github.com/alejandrodnm/polyquant/internal/engine"
	"github.com/alejandrodnm/polyquant/internal/ports"
	"github.com/alejandrodnm/polyquant/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one trading cycle and exit")
	report := flag.Bool("report", false, "print the daily report and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	statsEvery := flag.Duration("stats", 5*time.Minute, "interval between stats tables (0 disables)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("polyquant starting",
		"config", *configPath,
		"interval", cfg.EngineConfig().Interval,
		"sizing", cfg.Risk.SizingMode,
		"balance", cfg.Trading.StartBalance,
		"once", *once,
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	console := notify.NewConsole(*verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *report {
		runReport(ctx, store, console, cfg.Trading.StartBalance)
		return
	}

	var sinks []ports.AlertSink
	sinks = append(sinks, console)
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MinPnL)
		if err != nil {
			slog.Error("failed to init telegram", "err", err)
			os.Exit(1)
		}
		sinks = append(sinks, tg)
	}

	client := polymarket.NewClient(cfg.API.GammaBase, cfg.API.CLOBBase)
	markets := polymarket.NewFeed(client, cfg.Trading.MaxMarkets, cfg.Trading.SportsOnly)
	sports := espn.NewFeed(cfg.API.ESPNBase)

	acct := domain.NewTradingAccount(cfg.Trading.StartBalance, time.Now())
	eng := engine.New(cfg.EngineConfig(), strategy.Default(), acct, markets, sports, notify.NewFanout(sinks...), store)

	if *once {
		if _, err := eng.RunOnce(ctx); err != nil {
			slog.Error("cycle failed", "err", err)
			os.Exit(1)
		}
		console.PrintStats(eng.Stats())
		return
	}

	if *statsEvery > 0 {
		go printStatsLoop(ctx, eng, console, *statsEvery)
	}

	if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("engine exited with error", "err", err)
		os.Exit(1)
	}

	console.PrintStats(eng.Stats())
	slog.Info("polyquant stopped cleanly")
}

func runReport(ctx context.Context, store *storage.SQLiteStorage, console *notify.Console, startBalance float64) {
	dailies, err := store.GetDailies(ctx)
	if err != nil {
		slog.Error("failed to read dailies", "err", err)
		os.Exit(1)
	}
	console.PrintDailyReport(dailies, startBalance)

	stats, err := store.GetStrategyStats(ctx)
	if err != nil {
		slog.Error("failed to read strategy stats", "err", err)
		os.Exit(1)
	}
	console.PrintStrategyStats(stats)
}

func printStatsLoop(ctx context.Context, eng *engine.Engine, console *notify.Console, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			console.PrintStats(eng.Stats())
		}
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
