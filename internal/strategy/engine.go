package strategy

import (
	"QuantPulse/internal/domain/models"
	"QuantPulse/internal/services/indicators"
	"QuantPulse/pkg/logger"
)

// Engine turns a scored feature history into one SignalRecord per bar. It
// owns the filter chain, the position/cooldown state machine and the
// Sharpe-based risk adjuster of one strategy session.
type Engine struct {
	cfg     Config
	chain   *FilterChain
	machine *StateMachine
	risk    *RiskAdjuster
	log     *logger.Logger
}

// NewEngine wires a full strategy session from configuration.
func NewEngine(cfg Config, log *logger.Logger) (*Engine, error) {
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	cooldown := NewCooldown(cfg.Cooldown, log)
	return &Engine{
		cfg:     cfg,
		chain:   NewFilterChain(cfg.Filters),
		machine: NewStateMachine(cfg, cooldown, log),
		risk:    NewRiskAdjuster(cfg, log),
		log:     log,
	}, nil
}

// Config returns the effective configuration after defaulting.
func (e *Engine) Config() Config { return e.cfg }

// Machine exposes the position state machine.
func (e *Engine) Machine() *StateMachine { return e.machine }

// Risk exposes the Sharpe-based risk adjuster.
func (e *Engine) Risk() *RiskAdjuster { return e.risk }

// Reset returns the session to its initial state. Independent backtests in
// the same process each call this first.
func (e *Engine) Reset() {
	e.machine.Reset()
	e.risk.Reset()
}

// ComputeSignal evaluates the latest row of the feature history and emits a
// complete SignalRecord: raw direction from the base score, risk and
// drawdown sub-scores, the filter verdicts, and the sized decision.
func (e *Engine) ComputeSignal(rows []models.FeatureRow) models.SignalRecord {
	if len(rows) == 0 {
		return models.SignalRecord{Reason: "insufficient data"}
	}
	idx := len(rows) - 1
	row := rows[idx]
	rec := models.SignalRecord{
		Symbol: row.Bar.Symbol,
		Time:   row.Bar.Time,
	}
	if len(rows) < e.cfg.Features.ShortWindow {
		rec.Reason = "insufficient data"
		return rec
	}

	base := row.BaseScore
	trend := row.TrendScore

	raw := 0
	if base > e.cfg.Direction.LongThreshold {
		raw = 1
	} else if base < e.cfg.Direction.ShortThreshold {
		raw = -1
	}

	risk := riskScore(rows, idx)
	dd := drawdownScore(rows, idx)
	w := e.cfg.ScoreWeights
	composite := base*w.Signal + trend*w.Trend + risk*w.Risk + dd*w.Drawdown

	direction, vetoReason, traces := e.chain.Apply(FilterInput{
		Rows:       rows,
		Index:      idx,
		Direction:  raw,
		BaseScore:  base,
		TrendScore: trend,
	})

	rec.Direction = direction
	rec.RawDirection = raw
	rec.CompositeScore = composite
	rec.BaseScore = base
	rec.TrendScore = trend
	rec.SidewaysScore = row.SidewaysScore
	rec.RiskScore = risk
	rec.DrawdownScore = dd
	rec.PositionSize = e.positionSize(direction, composite)
	rec.Filters = traces
	rec.Debug = &models.SignalDebug{
		Close:      row.Bar.Close,
		RSI:        row.RSI,
		MACD:       row.MACD,
		MACDSignal: row.MACDSignal,
		ADX:        row.ADX,
		DIPlus:     row.DIPlus,
		DIMinus:    row.DIMinus,
		ATR:        row.ATR,
		LineWMA:    row.LineWMA,
		GreedScore: row.GreedScore,
		VIXFear:    row.VIXFear,
	}

	switch {
	case raw == 0:
		rec.Reason = "observe"
	case direction == 0:
		rec.Reason = vetoReason
	case direction == 1:
		rec.Reason = "long"
	default:
		rec.Reason = "short"
	}
	return rec
}

// positionSize maps the composite score onto a capital fraction: extreme
// scores earn the full size, middling ones the average size. The Sharpe risk
// multiplier and any cooldown reduction then scale it, clamped to the cap.
func (e *Engine) positionSize(direction int, score float64) float64 {
	if direction == 0 {
		return 0
	}
	p := e.cfg.Position
	size := p.AvgSize
	if score >= p.FullScoreMax || score <= p.FullScoreMin {
		size = p.FullSize
	}
	size *= e.risk.Multiplier()
	size *= e.machine.Cooldown().SizeReduction()
	return indicators.Clamp(size, 0, p.MaxSize)
}

// RiskStatus summarizes the portfolio risk level from the trailing Sharpe
// ratio and the latest drawdown readings.
func (e *Engine) RiskStatus(rows []models.FeatureRow) models.RiskStatus {
	sharpe := e.risk.Sharpe()
	var maxDD float64
	if n := len(rows); n > 0 {
		maxDD = rows[n-1].MaxDDShort
	}
	status := models.RiskStatus{Sharpe: sharpe, MaxDD: maxDD}
	switch {
	case sharpe >= e.cfg.Sharpe.Target && maxDD > -0.1:
		status.Level = "low"
		status.Status = "healthy"
		status.Message = "performance on target, shallow drawdown"
	case sharpe < 0.5 || maxDD <= -0.2:
		status.Level = "high"
		status.Status = "degraded"
		status.Message = "weak risk-adjusted returns or deep drawdown"
	default:
		status.Level = "medium"
		status.Status = "watch"
		status.Message = "performance below target"
	}
	return status
}
