package strategy

import (
	"fmt"

	"github.com/creasty/defaults"

	"QuantPulse/internal/services/scoring"
)

// Config is the full strategy parameter tree. Every field carries a default,
// so an empty Config run through ApplyDefaults is a complete, working setup.
type Config struct {
	Features scoring.Config `yaml:"features"`

	Direction struct {
		LongThreshold  float64 `yaml:"long_threshold" default:"0.1"`
		ShortThreshold float64 `yaml:"short_threshold" default:"-0.1"`
	} `yaml:"signal_direction"`

	ScoreWeights struct {
		Signal   float64 `yaml:"signal_weight" default:"0.6"`
		Trend    float64 `yaml:"trend_weight" default:"0.4"`
		Risk     float64 `yaml:"risk_weight" default:"0"`
		Drawdown float64 `yaml:"drawdown_weight" default:"0"`
	} `yaml:"final_score_weights"`

	Filters FilterConfig `yaml:"signal_filters"`

	Sharpe struct {
		Lookback          int     `yaml:"lookback" default:"30"`
		Target            float64 `yaml:"target" default:"1.0"`
		MaxRiskMultiplier float64 `yaml:"max_risk_multiplier" default:"2.0"`
		InitialMultiplier float64 `yaml:"initial_risk_multiplier" default:"1.0"`
	} `yaml:"sharpe_params"`

	Position struct {
		FullScoreMin float64 `yaml:"full_score_threshold_min" default:"0.1"`
		FullScoreMax float64 `yaml:"full_score_threshold_max" default:"0.7"`
		FullSize     float64 `yaml:"full_position_size" default:"1.0"`
		AvgSize      float64 `yaml:"avg_adjusted_position" default:"0.2"`
		MaxSize      float64 `yaml:"max_adjusted_position" default:"0.9"`
	} `yaml:"position_config"`

	StopLoss struct {
		Enabled         *bool   `yaml:"enable" default:"true"`
		FixedPct        float64 `yaml:"fixed_stop_loss" default:"0.15"`
		WMATriggerRatio float64 `yaml:"wma_reversal_trigger_ratio" default:"0.3"`
	} `yaml:"stop_loss"`

	TakeProfit struct {
		Enabled           *bool   `yaml:"enable" default:"true"`
		RSIEnabled        *bool   `yaml:"rsi_take_profit" default:"true"`
		RSIOverbought     float64 `yaml:"rsi_overbought_take_profit" default:"75"`
		RSIOversold       float64 `yaml:"rsi_oversold_take_profit" default:"25"`
		TimeBasedEnabled  *bool   `yaml:"time_based_take_profit" default:"false"`
		TimeBasedPeriods  int     `yaml:"time_based_periods" default:"120"`
		CallbackEnabled   *bool   `yaml:"enable_callback" default:"true"`
		CallbackThreshold float64 `yaml:"callback_threshold" default:"0.05"`
	} `yaml:"take_profit"`

	Cooldown CooldownConfig `yaml:"cooldown_treatment"`
}

// FilterConfig controls the signal filter chain. Each filter is individually
// toggleable; disabled filters are skipped without affecting chain order.
type FilterConfig struct {
	PriceDeviation PriceDeviationConfig `yaml:"price_deviation"`
	RSI            RSIFilterConfig      `yaml:"rsi"`
	Volatility     VolatilityConfig     `yaml:"volatility"`
	Score          ScoreFilterConfig    `yaml:"score"`
	Entanglement   EntanglementConfig   `yaml:"ma_entanglement"`
}

type PriceDeviationConfig struct {
	Enabled   *bool   `yaml:"enable" default:"true"`
	Threshold float64 `yaml:"threshold" default:"2.0"` // percent
}

type RSIFilterConfig struct {
	Enabled    *bool   `yaml:"enable" default:"true"`
	Overbought float64 `yaml:"overbought_threshold" default:"85"`
	Oversold   float64 `yaml:"oversold_threshold" default:"25"`
}

type VolatilityConfig struct {
	Enabled *bool   `yaml:"enable" default:"true"`
	Window  int     `yaml:"window" default:"20"`
	Min     float64 `yaml:"min" default:"0.005"`
	Max     float64 `yaml:"max" default:"0.45"`
}

type ScoreFilterConfig struct {
	Enabled    *bool   `yaml:"enable" default:"true"`
	LongBase   float64 `yaml:"filter_long_base_score" default:"0.3"`
	LongTrend  float64 `yaml:"filter_long_trend_score" default:"0.3"`
	ShortBase  float64 `yaml:"filter_short_base_score" default:"-0.3"`
	ShortTrend float64 `yaml:"filter_short_trend_score" default:"-0.1"`
}

type EntanglementConfig struct {
	Enabled           *bool   `yaml:"enable" default:"true"`
	DistanceThreshold float64 `yaml:"distance_threshold" default:"0.2"` // percent
}

// CooldownConfig tunes the consecutive-loss throttling sub-state machine.
type CooldownConfig struct {
	Enabled       *bool  `yaml:"enable" default:"true"`
	LossThreshold int    `yaml:"consecutive_loss_threshold" default:"2"`
	Mode          string `yaml:"mode" default:"backtest" validate:"omitempty,oneof=backtest realtime"`

	Backtest struct {
		Level1SkipTrades int `yaml:"level_1_skip_trades" default:"3"`
		Level2SkipTrades int `yaml:"level_2_skip_trades" default:"5"`
		Level3SkipTrades int `yaml:"level_3_skip_trades" default:"7"`
	} `yaml:"backtest_mode"`

	Realtime struct {
		Level1Hours  int     `yaml:"level_1_duration" default:"24"`
		Level2Hours  int     `yaml:"level_2_duration" default:"48"`
		Level3Hours  int     `yaml:"level_3_duration" default:"72"`
		TimeframeHrs float64 `yaml:"timeframe_hours" default:"1"`
	} `yaml:"realtime_mode"`

	SizeReduction struct {
		Level1 float64 `yaml:"level_1" default:"0.8"`
		Level2 float64 `yaml:"level_2" default:"0.7"`
		Level3 float64 `yaml:"level_3" default:"0.5"`
	} `yaml:"position_size_reduction"`

	HistoryCap int `yaml:"history_cap" default:"20"`
}

// ApplyDefaults fills every unset field with its documented default.
func (c *Config) ApplyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("apply strategy defaults: %w", err)
	}
	return nil
}

// NewConfig returns a Config with all defaults applied.
func NewConfig() (Config, error) {
	var c Config
	if err := c.ApplyDefaults(); err != nil {
		return c, err
	}
	return c, nil
}
