package strategy

import (
	"math"

	"QuantPulse/internal/domain/models"
	"QuantPulse/internal/services/indicators"
	"QuantPulse/pkg/logger"
)

// minRiskBars is the history depth below which risk and drawdown scores are
// reported as neutral 0.5.
const minRiskBars = 30

// RiskAdjuster tracks portfolio value and derives a Sharpe-based position
// multiplier: poor trailing performance shrinks subsequent entries, strong
// performance lets them grow up to the configured cap.
type RiskAdjuster struct {
	lookback   int
	target     float64
	maxMult    float64
	initial    float64
	log        *logger.Logger
	values     []float64
	returns    []float64
	sharpe     float64
	multiplier float64
}

// NewRiskAdjuster builds an adjuster starting at the initial multiplier.
func NewRiskAdjuster(cfg Config, log *logger.Logger) *RiskAdjuster {
	return &RiskAdjuster{
		lookback:   cfg.Sharpe.Lookback,
		target:     cfg.Sharpe.Target,
		maxMult:    cfg.Sharpe.MaxRiskMultiplier,
		initial:    cfg.Sharpe.InitialMultiplier,
		log:        log,
		multiplier: cfg.Sharpe.InitialMultiplier,
	}
}

// Reset drops all tracked values and restores the initial multiplier.
func (r *RiskAdjuster) Reset() {
	r.values = nil
	r.returns = nil
	r.sharpe = 0
	r.multiplier = r.initial
}

// Multiplier returns the prevailing risk multiplier.
func (r *RiskAdjuster) Multiplier() float64 { return r.multiplier }

// Sharpe returns the latest annualized trailing Sharpe ratio.
func (r *RiskAdjuster) Sharpe() float64 { return r.sharpe }

// UpdatePortfolioValue appends one equity sample and, once the lookback is
// filled, recomputes the trailing Sharpe ratio and the risk multiplier.
func (r *RiskAdjuster) UpdatePortfolioValue(value float64) {
	if n := len(r.values); n > 0 && r.values[n-1] > 0 {
		r.returns = append(r.returns, value/r.values[n-1]-1)
	}
	r.values = append(r.values, value)
	if len(r.values) < r.lookback || len(r.returns) < r.lookback {
		return
	}

	recent := r.returns[len(r.returns)-r.lookback:]
	mean, std := indicators.MeanStd(recent)
	if std > 0 {
		r.sharpe = mean / std * math.Sqrt(252)
	} else {
		r.sharpe = 0
	}

	switch {
	case r.sharpe < 0.5:
		r.multiplier = 0.5
	case r.sharpe < r.target:
		r.multiplier = 0.8
	default:
		r.multiplier = math.Min(1.0+(r.sharpe-r.target), r.maxMult)
	}
	r.log.Debug("risk exposure adjusted",
		logger.Any("sharpe", r.sharpe),
		logger.Any("multiplier", r.multiplier))
}

// riskScore grades current conditions in [0,1]: low realized volatility and
// high short/long Sharpe ratios score well. Neutral 0.5 on thin history.
func riskScore(rows []models.FeatureRow, idx int) float64 {
	if idx+1 < minRiskBars {
		return 0.5
	}
	returns := make([]float64, 0, idx)
	for i := 1; i <= idx; i++ {
		returns = append(returns, rows[i].Return)
	}
	_, vol := indicators.MeanStd(returns)

	row := rows[idx]
	volScore := math.Max(0, 1-vol*10)
	sharpeScore := indicators.Clamp((row.SharpeShort+row.SharpeLong)/2, 0, 1)
	return indicators.Clamp((volScore+sharpeScore)/2, 0, 1)
}

// drawdownScore grades trailing drawdowns in [0,1]; shallower is better.
// Neutral 0.5 on thin history.
func drawdownScore(rows []models.FeatureRow, idx int) float64 {
	if idx+1 < minRiskBars {
		return 0.5
	}
	row := rows[idx]
	short := math.Max(0, 1-math.Abs(row.MaxDDShort)*2)
	long := math.Max(0, 1-math.Abs(row.MaxDDLong)*2)
	return indicators.Clamp((short+long)/2, 0, 1)
}
