package backtest

import (
	"fmt"
	"math"

	"github.com/creasty/defaults"

	"QuantPulse/internal/domain/models"
	"QuantPulse/internal/services/scoring"
	"QuantPulse/internal/strategy"
	"QuantPulse/pkg/logger"
)

// Config covers one backtest run: the instrument, the simulated account and
// the full strategy parameter tree.
type Config struct {
	Symbol      string  `yaml:"symbol" default:"ETHUSDT"`
	Timeframe   string  `yaml:"timeframe" default:"1h"`
	InitialCash float64 `yaml:"initial_cash" default:"1000"`
	FeeRate     float64 `yaml:"fee_rate" default:"0.001"`

	Strategy strategy.Config `yaml:"strategy"`
}

// ApplyDefaults fills every unset field with its documented default.
func (c *Config) ApplyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("apply backtest defaults: %w", err)
	}
	return nil
}

// Engine replays a bar history through the live decision logic: the same
// feature builder, signal engine and position state machine, with simulated
// cash accounting on top.
type Engine struct {
	cfg     Config
	builder *scoring.Builder
	eng     *strategy.Engine
	log     *logger.Logger
}

// NewEngine builds a backtest engine from configuration.
func NewEngine(cfg Config, log *logger.Logger) (*Engine, error) {
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	eng, err := strategy.NewEngine(cfg.Strategy, log)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:     cfg,
		builder: scoring.NewBuilder(cfg.Strategy.Features),
		eng:     eng,
		log:     log,
	}, nil
}

// entrySnapshot keeps the scores seen when the open fired so the close
// record can carry them.
type entrySnapshot struct {
	Base  float64
	Trend float64
	Score float64
}

// runState is the mutable accounting of one backtest run.
type runState struct {
	cash     float64
	notional float64
	entry    entrySnapshot
	trades   []models.TradeRecord
	equity   []models.EquityPoint
	skipped  int
}

// Run replays the bars in order and returns the trade log, equity curve and
// summary statistics. Bars must be in non-decreasing timestamp order.
func (e *Engine) Run(bars []models.Bar, sentiment scoring.SentimentSnapshot) (*models.BacktestResult, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("backtest: no bars supplied")
	}
	for i := 1; i < len(bars); i++ {
		if bars[i].Time.Before(bars[i-1].Time) {
			return nil, fmt.Errorf("backtest: bars out of order at index %d", i)
		}
	}

	e.eng.Reset()
	rows := e.builder.Build(bars, sentiment)
	st := &runState{cash: e.cfg.InitialCash}

	for i := range rows {
		e.step(st, rows, i)
	}
	e.finish(st, rows[len(rows)-1])

	e.log.Info("backtest finished",
		logger.String("symbol", e.cfg.Symbol),
		logger.Int("bars", len(bars)),
		logger.Int("trades", len(st.trades)),
		logger.Int("skipped", st.skipped),
		logger.Any("final_cash", st.cash))
	return e.summarize(st), nil
}

// step processes one bar: at most one close, then at most one open, then the
// equity sample that feeds the Sharpe-based risk adjuster.
func (e *Engine) step(st *runState, rows []models.FeatureRow, i int) {
	row := rows[i]
	machine := e.eng.Machine()
	if !machine.Flat() {
		machine.MarkBar(row.Bar.Close)
	}

	rec := e.eng.ComputeSignal(rows[:i+1])

	closedThisBar := false
	if !machine.Flat() {
		if dec := machine.EvaluateExit(row, rec.CompositeScore); dec.Action != strategy.ExitNone {
			e.closePosition(st, row, dec.Reason)
			closedThisBar = true
		}
	}

	if machine.Flat() && !closedThisBar && rec.Direction != 0 && machine.ShouldOpenPosition(rec.Direction) {
		if machine.Cooldown().ShouldSkipTrade(row.Bar.Time) {
			st.skipped++
			e.log.Debug("trade skipped by cooldown",
				logger.Any("time", row.Bar.Time),
				logger.Int("direction", rec.Direction))
		} else {
			e.openPosition(st, row, rec)
		}
	}

	equity := e.markEquity(st, row)
	e.eng.Risk().UpdatePortfolioValue(equity)
}

// openPosition commits cash to a new position and charges the entry fee.
func (e *Engine) openPosition(st *runState, row models.FeatureRow, rec models.SignalRecord) {
	if rec.PositionSize <= 0 || st.cash <= 0 {
		return
	}
	notional := st.cash * rec.PositionSize
	fee := notional * e.cfg.FeeRate
	st.cash -= notional + fee
	if st.cash < 0 {
		st.cash = 0
	}
	st.notional = notional
	st.entry = entrySnapshot{Base: rec.BaseScore, Trend: rec.TrendScore, Score: rec.CompositeScore}

	e.eng.Machine().Open(rec.Direction, row.Bar.Close, row.Bar.Time, rec.PositionSize, rec.CompositeScore)
	st.trades = append(st.trades, models.TradeRecord{
		Time:       row.Bar.Time,
		Symbol:     e.cfg.Symbol,
		Action:     models.TradeOpen,
		Side:       rec.Direction,
		Price:      row.Bar.Close,
		Notional:   notional,
		Cash:       st.cash,
		Reason:     rec.Reason,
		BaseScore:  rec.BaseScore,
		TrendScore: rec.TrendScore,
		Score:      rec.CompositeScore,
	})
}

// closePosition realizes the PnL at the bar close, charges the exit fee and
// feeds the outcome into the cooldown tracker via the state machine.
func (e *Engine) closePosition(st *runState, row models.FeatureRow, reason string) {
	machine := e.eng.Machine()
	pos := machine.Position()
	price := row.Bar.Close

	pnl := st.notional * pos.ProfitRatio(price)
	closing := st.notional + pnl
	var fee float64
	if closing > 0 {
		fee = closing * e.cfg.FeeRate
	}
	st.cash += closing - fee
	if st.cash < 0 {
		st.cash = 0
	}

	st.trades = append(st.trades, models.TradeRecord{
		Time:       row.Bar.Time,
		Symbol:     e.cfg.Symbol,
		Action:     models.TradeClose,
		Side:       pos.Side,
		Price:      price,
		Notional:   st.notional,
		Cash:       st.cash,
		PnL:        pnl - fee,
		Reason:     reason,
		BaseScore:  st.entry.Base,
		TrendScore: st.entry.Trend,
		Score:      st.entry.Score,
	})
	st.notional = 0
	machine.Close(pnl-fee, row.Bar.Time, reason)
}

// markEquity appends cash plus the position's mark-to-market value.
func (e *Engine) markEquity(st *runState, row models.FeatureRow) float64 {
	equity := st.cash
	machine := e.eng.Machine()
	if !machine.Flat() {
		pos := machine.Position()
		equity += st.notional * (1 + pos.ProfitRatio(row.Bar.Close))
	}
	st.equity = append(st.equity, models.EquityPoint{Time: row.Bar.Time, Equity: equity})
	return equity
}

// finish force-closes any open position at the final bar.
func (e *Engine) finish(st *runState, last models.FeatureRow) {
	if e.eng.Machine().Flat() {
		return
	}
	e.closePosition(st, last, "backtest end liquidation")
	if n := len(st.equity); n > 0 {
		st.equity[n-1].Equity = st.cash
	}
}

func (e *Engine) summarize(st *runState) *models.BacktestResult {
	res := &models.BacktestResult{
		Symbol:      e.cfg.Symbol,
		Timeframe:   e.cfg.Timeframe,
		InitialCash: e.cfg.InitialCash,
		FinalCash:   st.cash,
		Trades:      st.trades,
		Equity:      st.equity,
	}
	if e.cfg.InitialCash > 0 {
		res.ReturnRatio = (st.cash/e.cfg.InitialCash - 1) * 100
	}

	var grossProfit, grossLoss float64
	for _, tr := range st.trades {
		if tr.Action != models.TradeClose {
			continue
		}
		res.TotalTrades++
		if tr.PnL > 0 {
			res.ProfitableTrades++
			grossProfit += tr.PnL
		} else if tr.PnL < 0 {
			res.LosingTrades++
			grossLoss += math.Abs(tr.PnL)
		}
	}
	if res.TotalTrades > 0 {
		res.WinRate = float64(res.ProfitableTrades) / float64(res.TotalTrades) * 100
	}
	if res.ProfitableTrades > 0 {
		res.AvgWin = grossProfit / float64(res.ProfitableTrades)
	}
	if res.LosingTrades > 0 {
		res.AvgLoss = grossLoss / float64(res.LosingTrades)
	}
	if grossLoss > 0 {
		res.ProfitFactor = grossProfit / grossLoss
	}
	return res
}
