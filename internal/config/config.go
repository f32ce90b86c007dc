package config

import (
	"fmt"
	"time"

	"github.com/dipwatch/dip-agent/internal/service/exchange"
	"github.com/spf13/viper"
)

type Monitor struct {
	Symbols              []string `mapstructure:"symbols"`
	CheckIntervalSeconds int      `mapstructure:"check_interval_seconds"`
	HistoricalDays       int      `mapstructure:"historical_days"`
}

type Strategy struct {
	MinDropPercent          float64 `mapstructure:"min_drop_percent"`
	MADistancePercent       float64 `mapstructure:"ma_distance_percent"`
	RSIOversold             float64 `mapstructure:"rsi_oversold"`
	MAPeriod                int     `mapstructure:"ma_period"`
	RSIPeriod               int     `mapstructure:"rsi_period"`
	SupportProximityPercent float64 `mapstructure:"support_proximity_percent"`
	LevelTolerancePercent   float64 `mapstructure:"level_tolerance_percent"`
	EntryThreshold          int     `mapstructure:"entry_threshold"`
}

type Risk struct {
	StopLossPercent      float64 `mapstructure:"stop_loss_percent"`
	MinTakeProfitPercent float64 `mapstructure:"min_take_profit_percent"`
	MaxTakeProfitPercent float64 `mapstructure:"max_take_profit_percent"`
	ResistanceFactor     float64 `mapstructure:"resistance_factor"`

	// Budget enables position sizing when positive; zero leaves plans unsized.
	Budget         float64 `mapstructure:"budget"`
	MaxRiskPercent float64 `mapstructure:"max_risk_percent"`
	MinRiskReward  float64 `mapstructure:"min_risk_reward"`
}

type Telegram struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type LLM struct {
	Enabled bool `mapstructure:"enabled"`
}

type Storage struct {
	SQLitePath   string `mapstructure:"sqlite_path"`
	SignalLogDir string `mapstructure:"signal_log_dir"`
}

// Config is the immutable configuration snapshot built once at startup and
// passed into every component. No component reads viper after this point.
type Config struct {
	Monitor  Monitor  `mapstructure:"monitor"`
	Strategy Strategy `mapstructure:"strategy"`
	Risk     Risk     `mapstructure:"risk"`
	Telegram Telegram `mapstructure:"telegram"`
	LLM      LLM      `mapstructure:"llm"`
	Storage  Storage  `mapstructure:"storage"`
}

func Default() Config {
	return Config{
		Monitor: Monitor{
			Symbols:              []string{"BTCUSDT"},
			CheckIntervalSeconds: 300,
			HistoricalDays:       90,
		},
		Strategy: Strategy{
			MinDropPercent:          5.0,
			MADistancePercent:       3.0,
			RSIOversold:             30,
			MAPeriod:                7,
			RSIPeriod:               14,
			SupportProximityPercent: 2.0,
			LevelTolerancePercent:   2.0,
			EntryThreshold:          3,
		},
		Risk: Risk{
			StopLossPercent:      3.0,
			MinTakeProfitPercent: 2.0,
			MaxTakeProfitPercent: 5.0,
			ResistanceFactor:     0.6,
			Budget:               0,
			MaxRiskPercent:       1.0,
			MinRiskReward:        0,
		},
		Storage: Storage{
			SQLitePath:   "./data/signals.db",
			SignalLogDir: "./data",
		},
	}
}

// Load merges the config file already read by viper over the defaults.
func Load() (Config, error) {
	cfg := Default()
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fails fast before any monitoring task starts.
func (c Config) Validate() error {
	if len(c.Monitor.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}
	for _, s := range c.Monitor.Symbols {
		if _, err := exchange.ParsePair(s); err != nil {
			return fmt.Errorf("invalid symbol %q: %w", s, err)
		}
	}
	if c.Monitor.CheckIntervalSeconds <= 0 {
		return fmt.Errorf("check_interval_seconds must be positive, got %d", c.Monitor.CheckIntervalSeconds)
	}
	if c.Monitor.HistoricalDays <= 0 {
		return fmt.Errorf("historical_days must be positive, got %d", c.Monitor.HistoricalDays)
	}
	if c.Strategy.MAPeriod < 2 {
		return fmt.Errorf("ma_period must be at least 2, got %d", c.Strategy.MAPeriod)
	}
	if c.Strategy.RSIPeriod < 2 {
		return fmt.Errorf("rsi_period must be at least 2, got %d", c.Strategy.RSIPeriod)
	}
	if c.Strategy.MinDropPercent <= 0 {
		return fmt.Errorf("min_drop_percent must be positive, got %f", c.Strategy.MinDropPercent)
	}
	if c.Strategy.RSIOversold < 0 || c.Strategy.RSIOversold > 100 {
		return fmt.Errorf("rsi_oversold must be within [0, 100], got %f", c.Strategy.RSIOversold)
	}
	if c.Strategy.EntryThreshold <= 0 {
		return fmt.Errorf("entry_threshold must be positive, got %d", c.Strategy.EntryThreshold)
	}
	if c.Risk.ResistanceFactor < 0 || c.Risk.ResistanceFactor > 1 {
		return fmt.Errorf("resistance_factor must be within [0, 1], got %f", c.Risk.ResistanceFactor)
	}
	if c.Risk.StopLossPercent <= 0 {
		return fmt.Errorf("stop_loss_percent must be positive, got %f", c.Risk.StopLossPercent)
	}
	if c.Risk.MinTakeProfitPercent <= 0 || c.Risk.MaxTakeProfitPercent <= 0 {
		return fmt.Errorf("take profit bounds must be positive")
	}
	if c.Risk.MinTakeProfitPercent > c.Risk.MaxTakeProfitPercent {
		return fmt.Errorf("min_take_profit_percent %f exceeds max_take_profit_percent %f",
			c.Risk.MinTakeProfitPercent, c.Risk.MaxTakeProfitPercent)
	}
	if c.Risk.Budget < 0 {
		return fmt.Errorf("budget must not be negative, got %f", c.Risk.Budget)
	}
	if c.Risk.Budget > 0 && (c.Risk.MaxRiskPercent <= 0 || c.Risk.MaxRiskPercent > 100) {
		return fmt.Errorf("max_risk_percent must be within (0, 100], got %f", c.Risk.MaxRiskPercent)
	}
	if c.Risk.MinRiskReward < 0 {
		return fmt.Errorf("min_risk_reward must not be negative, got %f", c.Risk.MinRiskReward)
	}
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram enabled but bot_token/chat_id missing")
	}
	return nil
}

func (c Config) CheckInterval() time.Duration {
	return time.Duration(c.Monitor.CheckIntervalSeconds) * time.Second
}
