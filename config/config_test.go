package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyquant/internal/engine"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsFillGaps(t *testing.T) {
	path := writeConfig(t, `
trading:
  interval_seconds: 15
risk:
  sizing_mode: kelly
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.Trading.IntervalSeconds)
	assert.Equal(t, "kelly", cfg.Risk.SizingMode)
	assert.Equal(t, 1000.0, cfg.Trading.StartBalance)
	assert.Equal(t, 0.8, cfg.Cascade.ThresholdDecay)
	assert.Equal(t, 20, cfg.Adaptive.LookbackTrades)
	assert.Equal(t, "polyquant.db", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_RejectsUnknownSizingMode(t *testing.T) {
	path := writeConfig(t, `
risk:
  sizing_mode: martingale
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sizing_mode")
}

func TestLoad_ClampsOutOfRangeValues(t *testing.T) {
	path := writeConfig(t, `
risk:
  position_size_pct: 3.5
exits:
  trail_pct: 1.2
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1.0, cfg.Risk.PositionSizePct)
	assert.Equal(t, 0.15, cfg.Exits.TrailPct)
}

func TestLoad_RejectsTelegramWithoutToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	path := writeConfig(t, `
telegram:
  enabled: true
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200")

	path := writeConfig(t, `
telegram:
  enabled: true
log:
  level: warn
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, int64(-100200), cfg.Telegram.ChatID)
}

func TestEngineConfig_Mapping(t *testing.T) {
	path := writeConfig(t, `
trading:
  interval_seconds: 45
risk:
  sizing_mode: fixed
  fixed_size: 25
exits:
  max_hold_minutes: 90
cascade:
  snapshot_max_age_seconds: 60
adaptive:
  emergency_after_hours: 6
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	ec := cfg.EngineConfig()
	assert.Equal(t, 45*time.Second, ec.Interval)
	assert.Equal(t, engine.SizeFixed, ec.Risk.Mode)
	assert.Equal(t, 25.0, ec.Risk.FixedSize)
	assert.Equal(t, 90*time.Minute, ec.Exits.MaxHold)
	assert.Equal(t, 60*time.Second, ec.Cascade.SnapshotMaxAge)
	assert.Equal(t, 6*time.Hour, ec.Adaptive.EmergencyAfter)
}
