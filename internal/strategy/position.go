package strategy

import (
	"fmt"
	"math"
	"time"

	"QuantPulse/internal/domain/models"
	"QuantPulse/pkg/logger"
)

// Position is the mutable state of one open position. Watermarks start at
// the entry price and track the best price seen since entry.
type Position struct {
	Side          int // +1 long, -1 short, 0 flat
	EntryPrice    float64
	EntryTime     time.Time
	Size          float64
	EntryScore    float64
	HighWatermark float64
	LowWatermark  float64
	HoldingBars   int
}

// ProfitRatio is the unrealized return at the given price.
func (p Position) ProfitRatio(price float64) float64 {
	if p.Side == 0 || p.EntryPrice <= 0 || price <= 0 {
		return 0
	}
	if p.Side == 1 {
		return price/p.EntryPrice - 1
	}
	return p.EntryPrice/price - 1
}

// ExitAction says what the risk check decided for the current bar.
type ExitAction int

const (
	ExitNone ExitAction = iota
	ExitStopLoss
	ExitTakeProfit
)

// ExitDecision carries the action and a human-readable reason.
type ExitDecision struct {
	Action ExitAction
	Reason string
}

// StateMachine owns the position and cooldown state of one strategy
// session. All transitions go through Open/Close; nothing else mutates the
// position.
type StateMachine struct {
	cfg      Config
	cooldown *Cooldown
	log      *logger.Logger
	pos      Position
}

// NewStateMachine builds a flat state machine sharing the given cooldown.
func NewStateMachine(cfg Config, cooldown *Cooldown, log *logger.Logger) *StateMachine {
	return &StateMachine{cfg: cfg, cooldown: cooldown, log: log}
}

// Reset flattens the position and clears the cooldown. Called at the start
// of every backtest so runs never contaminate each other.
func (m *StateMachine) Reset() {
	m.pos = Position{}
	m.cooldown.Reset()
}

// Side returns the current position side, 0 when flat.
func (m *StateMachine) Side() int { return m.pos.Side }

// Flat reports whether no position is open.
func (m *StateMachine) Flat() bool { return m.pos.Side == 0 }

// Position returns a copy of the current position state.
func (m *StateMachine) Position() Position { return m.pos }

// Cooldown exposes the cooldown sub-state machine.
func (m *StateMachine) Cooldown() *Cooldown { return m.cooldown }

// ShouldOpenPosition rejects zero signals and same-direction re-entries.
// The cooldown skip gate is consulted separately, once per bar.
func (m *StateMachine) ShouldOpenPosition(direction int) bool {
	return direction != 0 && m.pos.Side != direction
}

// Open transitions FLAT -> LONG|SHORT, seeding watermarks at the entry.
func (m *StateMachine) Open(direction int, price float64, ts time.Time, size, score float64) {
	m.pos = Position{
		Side:          direction,
		EntryPrice:    price,
		EntryTime:     ts,
		Size:          size,
		EntryScore:    score,
		HighWatermark: price,
		LowWatermark:  price,
	}
	m.log.Info("position opened",
		logger.Int("side", direction),
		logger.Any("price", price),
		logger.Any("size", size),
		logger.Any("score", score))
}

// Close transitions back to FLAT and feeds the realized outcome into the
// cooldown tracker.
func (m *StateMachine) Close(pnl float64, ts time.Time, reason string) {
	m.log.Info("position closed",
		logger.Int("side", m.pos.Side),
		logger.Any("pnl", pnl),
		logger.String("reason", reason))
	m.pos = Position{}
	m.cooldown.RecordTrade(pnl, ts)
}

// MarkBar is the per-bar self-loop while a position is held: advances the
// holding counter and pushes the watermarks.
func (m *StateMachine) MarkBar(price float64) {
	if m.pos.Side == 0 {
		return
	}
	m.pos.HoldingBars++
	if price > m.pos.HighWatermark {
		m.pos.HighWatermark = price
	}
	if price < m.pos.LowWatermark {
		m.pos.LowWatermark = price
	}
}

// Status summarizes the open position at the given price.
func (m *StateMachine) Status(price float64) models.PositionStatus {
	ratio := m.pos.ProfitRatio(price)
	return models.PositionStatus{
		Side:         m.pos.Side,
		EntryPrice:   m.pos.EntryPrice,
		CurrentPrice: price,
		ProfitRatio:  ratio,
		Profitable:   ratio > 0,
	}
}

// EvaluateExit runs the stop-loss and take-profit rules against the current
// bar. The WMA-reversal-plus-score-flip rule fires on any unrealized PnL;
// the remaining stop rules only while losing and the remaining take-profit
// rules only while profitable. Callers close at most once per bar.
func (m *StateMachine) EvaluateExit(row models.FeatureRow, compositeScore float64) ExitDecision {
	if m.pos.Side == 0 {
		return ExitDecision{}
	}
	price := row.Bar.Close
	ratio := m.pos.ProfitRatio(price)

	if enabled(m.cfg.TakeProfit.Enabled) && m.wmaReversedAgainst(row) && m.scoreFlipped(compositeScore) {
		return ExitDecision{
			Action: ExitTakeProfit,
			Reason: fmt.Sprintf("WMA reversal with signal flip, pnl %.2f%%", ratio*100),
		}
	}

	if ratio <= 0 {
		return m.evaluateStopLoss(row, ratio)
	}
	return m.evaluateTakeProfit(row, ratio)
}

func (m *StateMachine) wmaReversedAgainst(row models.FeatureRow) bool {
	if row.LineWMA <= 0 {
		return false
	}
	if m.pos.Side == 1 {
		return row.Bar.Close < row.LineWMA
	}
	return row.Bar.Close > row.LineWMA
}

func (m *StateMachine) scoreFlipped(score float64) bool {
	if m.pos.Side == 1 {
		return score < 0
	}
	return score > 0
}

func (m *StateMachine) evaluateStopLoss(row models.FeatureRow, ratio float64) ExitDecision {
	if !enabled(m.cfg.StopLoss.Enabled) {
		return ExitDecision{}
	}
	loss := math.Abs(ratio)
	fixed := m.cfg.StopLoss.FixedPct

	// Boundary inclusive: a loss exactly at the threshold closes.
	if loss >= fixed {
		return ExitDecision{
			Action: ExitStopLoss,
			Reason: fmt.Sprintf("fixed stop loss, loss %.2f%% >= %.2f%%", loss*100, fixed*100),
		}
	}
	if loss >= fixed*m.cfg.StopLoss.WMATriggerRatio && m.wmaReversedAgainst(row) {
		return ExitDecision{
			Action: ExitStopLoss,
			Reason: fmt.Sprintf("WMA reversal stop, loss %.2f%%", loss*100),
		}
	}
	return ExitDecision{}
}

func (m *StateMachine) evaluateTakeProfit(row models.FeatureRow, ratio float64) ExitDecision {
	cfg := m.cfg.TakeProfit
	if !enabled(cfg.Enabled) {
		return ExitDecision{}
	}

	if enabled(cfg.TimeBasedEnabled) && m.pos.HoldingBars >= cfg.TimeBasedPeriods {
		return ExitDecision{
			Action: ExitTakeProfit,
			Reason: fmt.Sprintf("time-based take profit after %d bars, pnl %.2f%%", m.pos.HoldingBars, ratio*100),
		}
	}

	if enabled(cfg.CallbackEnabled) {
		if retrace, hit := m.callbackRetrace(row.Bar.Close); hit {
			return ExitDecision{
				Action: ExitTakeProfit,
				Reason: fmt.Sprintf("callback take profit, retraced %.2f%% from watermark", retrace*100),
			}
		}
	}

	if enabled(cfg.RSIEnabled) {
		if m.pos.Side == 1 && row.RSI >= cfg.RSIOverbought {
			return ExitDecision{
				Action: ExitTakeProfit,
				Reason: fmt.Sprintf("RSI %.1f overbought take profit", row.RSI),
			}
		}
		if m.pos.Side == -1 && row.RSI <= cfg.RSIOversold {
			return ExitDecision{
				Action: ExitTakeProfit,
				Reason: fmt.Sprintf("RSI %.1f oversold take profit", row.RSI),
			}
		}
	}
	return ExitDecision{}
}

func (m *StateMachine) callbackRetrace(price float64) (float64, bool) {
	threshold := m.cfg.TakeProfit.CallbackThreshold
	if m.pos.Side == 1 && m.pos.HighWatermark > 0 {
		retrace := (m.pos.HighWatermark - price) / m.pos.HighWatermark
		return retrace, retrace >= threshold
	}
	if m.pos.Side == -1 && m.pos.LowWatermark > 0 {
		retrace := (price - m.pos.LowWatermark) / m.pos.LowWatermark
		return retrace, retrace >= threshold
	}
	return 0, false
}
