package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/polyquant/internal/engine"
)

// Config es la configuración completa del bot.
type Config struct {
	Trading  TradingConfig  `yaml:"trading"`
	Risk     RiskConfig     `yaml:"risk"`
	Exits    ExitsConfig    `yaml:"exits"`
	Cascade  CascadeConfig  `yaml:"cascade"`
	Adaptive AdaptiveConfig `yaml:"adaptive"`
	API      APIConfig      `yaml:"api"`
	Telegram TelegramConfig `yaml:"telegram"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// TradingConfig controla el ciclo principal y el universo de mercados.
type TradingConfig struct {
	IntervalSeconds int     `yaml:"interval_seconds"`
	StartBalance    float64 `yaml:"start_balance"`
	MaxMarkets      int     `yaml:"max_markets"`
	SportsOnly      bool    `yaml:"sports_only"`
}

// RiskConfig controla el sizing y las guardas de cuenta.
type RiskConfig struct {
	SizingMode      string  `yaml:"sizing_mode"` // fixed | percent | kelly
	FixedSize       float64 `yaml:"fixed_size"`
	PositionSizePct float64 `yaml:"position_size_pct"`
	KellyFraction   float64 `yaml:"kelly_fraction"`
	MaxPositionSize float64 `yaml:"max_position_size"`
	MaxOpenPos      int     `yaml:"max_open_positions"`
	DailyLossLimit  float64 `yaml:"daily_loss_limit"`
	LossStreakPause int     `yaml:"loss_streak_pause"`
	LiquidityFloor  float64 `yaml:"liquidity_floor"`
	MinStake        float64 `yaml:"min_stake"`
}

// ExitsConfig controla stops, trailing, pirámides y fees.
type ExitsConfig struct {
	StopLossPct        float64 `yaml:"stop_loss_pct"`
	TakeProfitPct      float64 `yaml:"take_profit_pct"`
	TrailingActivation float64 `yaml:"trailing_activation"`
	TrailPct           float64 `yaml:"trail_pct"`
	PyramidTriggerPct  float64 `yaml:"pyramid_trigger_pct"`
	PyramidFraction    float64 `yaml:"pyramid_fraction"`
	MaxPyramids        int     `yaml:"max_pyramids"`
	MaxHoldMinutes     int     `yaml:"max_hold_minutes"` // 0 desactiva la expiración
	FeeRate            float64 `yaml:"fee_rate"`
}

// CascadeConfig controla el escaneo por tiers con reintentos.
type CascadeConfig struct {
	ThresholdDecay    float64 `yaml:"threshold_decay"`
	MaxRetries        int     `yaml:"max_retries"`
	MinMultiplier     float64 `yaml:"min_multiplier"`
	SnapshotMaxAgeSec int     `yaml:"snapshot_max_age_seconds"`
}

// AdaptiveConfig controla el ajuste de umbrales por win rate.
type AdaptiveConfig struct {
	LookbackTrades      int     `yaml:"lookback_trades"`
	MinSamples          int     `yaml:"min_samples"`
	UpperBand           float64 `yaml:"upper_band"`
	LowerBand           float64 `yaml:"lower_band"`
	LoosenFactor        float64 `yaml:"loosen_factor"`
	TightenFactor       float64 `yaml:"tighten_factor"`
	MinMultiplier       float64 `yaml:"min_multiplier"`
	MaxMultiplier       float64 `yaml:"max_multiplier"`
	EmergencyAfterHours float64 `yaml:"emergency_after_hours"` // 0 desactiva el modo emergencia
	EmergencyDecay      float64 `yaml:"emergency_decay"`
}

// APIConfig contiene los base URLs de las APIs externas.
type APIConfig struct {
	GammaBase string `yaml:"gamma_base"`
	CLOBBase  string `yaml:"clob_base"`
	ESPNBase  string `yaml:"espn_base"`
}

// TelegramConfig controla las alertas por Telegram. Token y chat id vienen
// del entorno, nunca del YAML.
type TelegramConfig struct {
	Enabled  bool    `yaml:"enabled"`
	MinPnL   float64 `yaml:"min_pnl"` // cierres con |pnl| menor no se notifican
	BotToken string  `yaml:"-"`
	ChatID   int64   `yaml:"-"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del entorno sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// EngineConfig traduce la configuración plana al Config del engine.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		Interval: time.Duration(c.Trading.IntervalSeconds) * time.Second,
		Cascade: engine.CascadeConfig{
			ThresholdDecay: c.Cascade.ThresholdDecay,
			MaxRetries:     c.Cascade.MaxRetries,
			MinMult:        c.Cascade.MinMultiplier,
			SnapshotMaxAge: time.Duration(c.Cascade.SnapshotMaxAgeSec) * time.Second,
		},
		Risk: engine.RiskConfig{
			Mode:            engine.SizingMode(c.Risk.SizingMode),
			FixedSize:       c.Risk.FixedSize,
			PositionSizePct: c.Risk.PositionSizePct,
			KellyFraction:   c.Risk.KellyFraction,
			MaxPositionSize: c.Risk.MaxPositionSize,
			MaxOpenPos:      c.Risk.MaxOpenPos,
			DailyLossLimit:  c.Risk.DailyLossLimit,
			LossStreakPause: c.Risk.LossStreakPause,
			LiquidityFloor:  c.Risk.LiquidityFloor,
			MinStake:        c.Risk.MinStake,
		},
		Exits: engine.ExitConfig{
			StopLossPct:        c.Exits.StopLossPct,
			TakeProfitPct:      c.Exits.TakeProfitPct,
			TrailingActivation: c.Exits.TrailingActivation,
			TrailPct:           c.Exits.TrailPct,
			PyramidTriggerPct:  c.Exits.PyramidTriggerPct,
			PyramidFraction:    c.Exits.PyramidFraction,
			MaxPyramids:        c.Exits.MaxPyramids,
			MaxHold:            time.Duration(c.Exits.MaxHoldMinutes) * time.Minute,
			FeeRate:            c.Exits.FeeRate,
		},
		Adaptive: engine.AdaptiveConfig{
			LookbackTrades: c.Adaptive.LookbackTrades,
			MinSamples:     c.Adaptive.MinSamples,
			UpperBand:      c.Adaptive.UpperBand,
			LowerBand:      c.Adaptive.LowerBand,
			LoosenFactor:   c.Adaptive.LoosenFactor,
			TightenFactor:  c.Adaptive.TightenFactor,
			MinMult:        c.Adaptive.MinMultiplier,
			MaxMult:        c.Adaptive.MaxMultiplier,
			EmergencyAfter: time.Duration(c.Adaptive.EmergencyAfterHours * float64(time.Hour)),
			EmergencyDecay: c.Adaptive.EmergencyDecay,
		},
	}
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Trading.IntervalSeconds <= 0 {
		cfg.Trading.IntervalSeconds = 30
	}
	if cfg.Trading.StartBalance <= 0 {
		cfg.Trading.StartBalance = 1000
	}
	if cfg.Trading.MaxMarkets <= 0 {
		cfg.Trading.MaxMarkets = 300
	}

	if cfg.Risk.SizingMode == "" {
		cfg.Risk.SizingMode = "percent"
	}
	if cfg.Risk.FixedSize <= 0 {
		cfg.Risk.FixedSize = 50
	}
	if cfg.Risk.PositionSizePct <= 0 {
		cfg.Risk.PositionSizePct = 0.10
	}
	if cfg.Risk.PositionSizePct > 1 {
		cfg.Risk.PositionSizePct = 1
	}
	if cfg.Risk.KellyFraction <= 0 {
		cfg.Risk.KellyFraction = 0.25
	}
	if cfg.Risk.MaxPositionSize <= 0 {
		cfg.Risk.MaxPositionSize = 250
	}
	if cfg.Risk.MaxOpenPos <= 0 {
		cfg.Risk.MaxOpenPos = 5
	}
	if cfg.Risk.DailyLossLimit <= 0 {
		cfg.Risk.DailyLossLimit = 100
	}
	if cfg.Risk.LossStreakPause <= 0 {
		cfg.Risk.LossStreakPause = 5
	}
	if cfg.Risk.LiquidityFloor <= 0 {
		cfg.Risk.LiquidityFloor = 5
	}
	if cfg.Risk.MinStake <= 0 {
		cfg.Risk.MinStake = 1
	}

	if cfg.Exits.StopLossPct <= 0 {
		cfg.Exits.StopLossPct = 0.15
	}
	if cfg.Exits.TakeProfitPct <= 0 {
		cfg.Exits.TakeProfitPct = 0.50
	}
	if cfg.Exits.TrailingActivation <= 0 {
		cfg.Exits.TrailingActivation = 0.20
	}
	if cfg.Exits.TrailPct <= 0 || cfg.Exits.TrailPct >= 1 {
		cfg.Exits.TrailPct = 0.15
	}
	if cfg.Exits.PyramidTriggerPct <= 0 {
		cfg.Exits.PyramidTriggerPct = 0.10
	}
	if cfg.Exits.PyramidFraction <= 0 {
		cfg.Exits.PyramidFraction = 0.5
	}

	if cfg.Cascade.ThresholdDecay <= 0 || cfg.Cascade.ThresholdDecay >= 1 {
		cfg.Cascade.ThresholdDecay = 0.8
	}
	if cfg.Cascade.MaxRetries <= 0 {
		cfg.Cascade.MaxRetries = 3
	}
	if cfg.Cascade.MinMultiplier <= 0 {
		cfg.Cascade.MinMultiplier = 0.5
	}
	if cfg.Cascade.SnapshotMaxAgeSec <= 0 {
		cfg.Cascade.SnapshotMaxAgeSec = 120
	}

	if cfg.Adaptive.LookbackTrades <= 0 {
		cfg.Adaptive.LookbackTrades = 20
	}
	if cfg.Adaptive.MinSamples <= 0 {
		cfg.Adaptive.MinSamples = 10
	}
	if cfg.Adaptive.UpperBand <= 0 {
		cfg.Adaptive.UpperBand = 0.60
	}
	if cfg.Adaptive.LowerBand <= 0 {
		cfg.Adaptive.LowerBand = 0.45
	}
	if cfg.Adaptive.LoosenFactor <= 0 {
		cfg.Adaptive.LoosenFactor = 0.9
	}
	if cfg.Adaptive.TightenFactor <= 0 {
		cfg.Adaptive.TightenFactor = 1.1
	}
	if cfg.Adaptive.MinMultiplier <= 0 {
		cfg.Adaptive.MinMultiplier = 0.5
	}
	if cfg.Adaptive.MaxMultiplier <= 0 {
		cfg.Adaptive.MaxMultiplier = 1.5
	}
	if cfg.Adaptive.EmergencyAfterHours < 0 {
		cfg.Adaptive.EmergencyAfterHours = 0
	}
	if cfg.Adaptive.EmergencyDecay <= 0 {
		cfg.Adaptive.EmergencyDecay = 0.9
	}

	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.Telegram.MinPnL < 0 {
		cfg.Telegram.MinPnL = 0
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "polyquant.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// validate rechaza combinaciones que el engine no puede interpretar.
func validate(cfg *Config) error {
	switch cfg.Risk.SizingMode {
	case "fixed", "percent", "kelly":
	default:
		return fmt.Errorf("sizing_mode %q inválido (fixed | percent | kelly)", cfg.Risk.SizingMode)
	}
	if cfg.Telegram.Enabled && cfg.Telegram.BotToken == "" {
		return fmt.Errorf("telegram habilitado pero falta TELEGRAM_BOT_TOKEN en el entorno")
	}
	return nil
}
