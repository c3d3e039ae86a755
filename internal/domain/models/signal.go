package models

import "time"

// FilterTrace records one filter's verdict for a signal evaluation.
type FilterTrace struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

// SignalRecord is the engine's full output for one bar. Created fresh per
// bar and never mutated afterwards.
type SignalRecord struct {
	Symbol         string        `json:"symbol"`
	Time           time.Time     `json:"time"`
	Direction      int           `json:"direction"` // +1 long, -1 short, 0 observe
	RawDirection   int           `json:"raw_direction"`
	CompositeScore float64       `json:"composite_score"`
	BaseScore      float64       `json:"base_score"`
	TrendScore     float64       `json:"trend_score"`
	SidewaysScore  float64       `json:"sideways_score"`
	RiskScore      float64       `json:"risk_score"`
	DrawdownScore  float64       `json:"drawdown_score"`
	PositionSize   float64       `json:"position_size"`
	Reason         string        `json:"reason"`
	Filters        []FilterTrace `json:"filters,omitempty"`
	Debug          *SignalDebug  `json:"debug,omitempty"`
}

// SignalDebug is a snapshot of the indicator readings behind a signal.
type SignalDebug struct {
	Close      float64 `json:"close"`
	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	ADX        float64 `json:"adx"`
	DIPlus     float64 `json:"di_plus"`
	DIMinus    float64 `json:"di_minus"`
	ATR        float64 `json:"atr"`
	LineWMA    float64 `json:"line_wma"`
	GreedScore float64 `json:"greed_score"`
	VIXFear    float64 `json:"vix_fear"`
}

// PositionStatus summarizes the open position, if any.
type PositionStatus struct {
	Side         int     `json:"side"`
	EntryPrice   float64 `json:"entry_price,omitempty"`
	CurrentPrice float64 `json:"current_price,omitempty"`
	ProfitRatio  float64 `json:"profit_ratio"`
	Profitable   bool    `json:"profitable"`
}

// RiskStatus is a coarse portfolio risk assessment.
type RiskStatus struct {
	Level   string  `json:"level"` // low, medium, high
	Status  string  `json:"status"`
	Sharpe  float64 `json:"sharpe"`
	MaxDD   float64 `json:"max_drawdown"`
	Message string  `json:"message"`
}
