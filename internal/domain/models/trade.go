package models

import "time"

// TradeAction distinguishes open and close entries in the trade log.
type TradeAction string

const (
	TradeOpen  TradeAction = "open"
	TradeClose TradeAction = "close"
)

// TradeRecord is one append-only trade-log entry. Close records carry the
// realized PnL and a copy of the scores snapshotted at entry.
type TradeRecord struct {
	Time       time.Time   `json:"time"`
	Symbol     string      `json:"symbol"`
	Action     TradeAction `json:"action"`
	Side       int         `json:"side"` // +1 long, -1 short
	Price      float64     `json:"price"`
	Notional   float64     `json:"notional"`
	Cash       float64     `json:"cash"`
	PnL        float64     `json:"pnl"`
	Reason     string      `json:"reason"`
	BaseScore  float64     `json:"base_score"`
	TrendScore float64     `json:"trend_score"`
	Score      float64     `json:"score"` // composite score at entry
}

// EquityPoint is one sample of the backtest equity curve.
type EquityPoint struct {
	Time   time.Time `json:"time"`
	Equity float64   `json:"equity"`
}

// BacktestResult is the summary a finished backtest run produces.
type BacktestResult struct {
	Symbol           string        `json:"symbol"`
	Timeframe        string        `json:"timeframe"`
	InitialCash      float64       `json:"initial_cash"`
	FinalCash        float64       `json:"final_cash"`
	ReturnRatio      float64       `json:"return_ratio"` // percent
	TotalTrades      int           `json:"total_trades"`
	ProfitableTrades int           `json:"profitable_trades"`
	LosingTrades     int           `json:"losing_trades"`
	WinRate          float64       `json:"win_rate"` // percent
	AvgWin           float64       `json:"avg_win"`
	AvgLoss          float64       `json:"avg_loss"`
	ProfitFactor     float64       `json:"profit_factor"`
	Trades           []TradeRecord `json:"trades"`
	Equity           []EquityPoint `json:"equity"`
}
