package models

import "time"

// LatestSignalRequest asks for the freshest signal over the last N bars.
type LatestSignalRequest struct {
	Symbol string `query:"symbol" validate:"required"`
	N      int    `query:"n" validate:"omitempty,min=30,max=5000"`
	TF     string `query:"tf"`
}

// BarsRequest asks for a raw candle range.
type BarsRequest struct {
	Symbol string    `query:"symbol" validate:"required"`
	From   time.Time `query:"from"`
	To     time.Time `query:"to"`
	TF     string    `query:"tf"`
	Limit  int       `query:"limit" validate:"omitempty,min=1,max=50000"`
}

// BacktestRequest submits one backtest run over a historical range.
type BacktestRequest struct {
	Symbol string    `json:"symbol" validate:"required"`
	From   time.Time `json:"from" validate:"required"`
	To     time.Time `json:"to" validate:"required"`
	TF     string    `json:"tf"`
	Async  bool      `json:"async"`
}

// TradesRequest asks for the most recent persisted trade-log entries.
type TradesRequest struct {
	Symbol string `query:"symbol" validate:"required"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=1000"`
}

// BacktestSubmission is the response to an async backtest request.
type BacktestSubmission struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
