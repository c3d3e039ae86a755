package strategy

import (
	"fmt"
	"math"

	"QuantPulse/internal/domain/models"
	"QuantPulse/internal/services/indicators"
	"QuantPulse/internal/services/scoring"
)

// FilterInput is everything one filter evaluation sees: the feature history
// up to and including the bar under decision, the raw direction and the
// blended scores for that bar.
type FilterInput struct {
	Rows       []models.FeatureRow
	Index      int
	Direction  int
	BaseScore  float64
	TrendScore float64
}

func (in FilterInput) row() models.FeatureRow { return in.Rows[in.Index] }

// Filter vetoes or passes one direction decision. ok=false means veto.
type Filter interface {
	Name() string
	Check(in FilterInput) (ok bool, reason string)
}

// FilterChain runs the enabled filters in fixed order. The first veto wins;
// direction 0 short-circuits without running anything.
type FilterChain struct {
	filters []Filter
}

// NewFilterChain assembles the chain from configuration. Disabled filters
// are left out entirely, which keeps the remaining order intact.
func NewFilterChain(cfg FilterConfig) *FilterChain {
	var fs []Filter
	if enabled(cfg.PriceDeviation.Enabled) {
		fs = append(fs, &priceDeviationFilter{cfg: cfg.PriceDeviation})
	}
	if enabled(cfg.RSI.Enabled) {
		fs = append(fs, &rsiFilter{cfg: cfg.RSI})
	}
	if enabled(cfg.Volatility.Enabled) {
		fs = append(fs, &volatilityFilter{cfg: cfg.Volatility})
	}
	if enabled(cfg.Score.Enabled) {
		fs = append(fs, &scoreFilter{cfg: cfg.Score})
	}
	if enabled(cfg.Entanglement.Enabled) {
		fs = append(fs, &entanglementFilter{cfg: cfg.Entanglement})
	}
	return &FilterChain{filters: fs}
}

func enabled(b *bool) bool { return b == nil || *b }

// Apply runs the chain and returns the surviving direction, the veto reason
// if any, and the full per-filter trace.
func (c *FilterChain) Apply(in FilterInput) (int, string, []models.FilterTrace) {
	if in.Direction == 0 {
		return 0, "", nil
	}
	traces := make([]models.FilterTrace, 0, len(c.filters))
	for _, f := range c.filters {
		ok, reason := f.Check(in)
		traces = append(traces, models.FilterTrace{Name: f.Name(), Passed: ok, Reason: reason})
		if !ok {
			return 0, reason, traces
		}
	}
	return in.Direction, "", traces
}

// priceDeviationFilter vetoes entries that chase price too far from the WMA
// baseline. The threshold widens in strong trends and tightens in strong
// oscillation, with a further adjustment from the ATR-to-price ratio.
type priceDeviationFilter struct {
	cfg PriceDeviationConfig
}

func (f *priceDeviationFilter) Name() string { return "price_deviation" }

func (f *priceDeviationFilter) threshold(row models.FeatureRow) float64 {
	t := f.cfg.Threshold
	switch row.Regime {
	case models.RegimeStrongOscillation:
		t -= 0.5
	case models.RegimeStrongTrend:
		t += 5.0
	}
	if row.ATR > 0 && row.Bar.Close > 0 {
		atrRatio := row.ATR / row.Bar.Close * 100
		switch {
		case atrRatio > 5.0:
			t += 1.5
		case atrRatio > 3.0:
			t += 0.5
		case atrRatio < 1.0:
			t -= 0.5
		}
	}
	return indicators.Clamp(t, 1.0, 8.0)
}

func (f *priceDeviationFilter) Check(in FilterInput) (bool, string) {
	row := in.row()
	if row.LineWMA <= 0 {
		return true, ""
	}
	threshold := f.threshold(row)
	if in.Direction == 1 {
		dev := (row.Bar.Low - row.LineWMA) / row.LineWMA * 100
		if dev >= threshold {
			return false, fmt.Sprintf("long low deviates %.1f%% from WMA, above %.1f%%", dev, threshold)
		}
		return true, ""
	}
	dev := (row.Bar.High - row.LineWMA) / row.LineWMA * 100
	if dev <= -threshold {
		return false, fmt.Sprintf("short high deviates %.1f%% from WMA, below -%.1f%%", dev, threshold)
	}
	return true, ""
}

// rsiFilter blocks longs into overbought and shorts into oversold readings.
type rsiFilter struct {
	cfg RSIFilterConfig
}

func (f *rsiFilter) Name() string { return "rsi" }

func (f *rsiFilter) Check(in FilterInput) (bool, string) {
	rsi := in.row().RSI
	if in.Direction == 1 && rsi >= f.cfg.Overbought {
		return false, fmt.Sprintf("RSI %.1f overbought, threshold %.0f", rsi, f.cfg.Overbought)
	}
	if in.Direction == -1 && rsi <= f.cfg.Oversold {
		return false, fmt.Sprintf("RSI %.1f oversold, threshold %.0f", rsi, f.cfg.Oversold)
	}
	return true, ""
}

// volatilityFilter vetoes both directions when the trailing return
// volatility leaves the tradable band.
type volatilityFilter struct {
	cfg VolatilityConfig
}

func (f *volatilityFilter) Name() string { return "volatility" }

func (f *volatilityFilter) Check(in FilterInput) (bool, string) {
	if in.Index+1 < f.cfg.Window {
		return true, ""
	}
	var returns []float64
	for i := in.Index - f.cfg.Window + 1; i <= in.Index; i++ {
		returns = append(returns, in.Rows[i].Return)
	}
	_, std := indicators.MeanStd(returns)
	// sample std over the window
	n := float64(len(returns))
	if n > 1 {
		std *= math.Sqrt(n / (n - 1))
	}
	if std < f.cfg.Min {
		return false, fmt.Sprintf("volatility %.4f below %.4f", std, f.cfg.Min)
	}
	if std > f.cfg.Max {
		return false, fmt.Sprintf("volatility %.4f above %.4f", std, f.cfg.Max)
	}
	return true, ""
}

// scoreFilter drops weak signals: longs need both trend and base scores
// above their floors, shorts need both below their ceilings.
type scoreFilter struct {
	cfg ScoreFilterConfig
}

func (f *scoreFilter) Name() string { return "score" }

func (f *scoreFilter) Check(in FilterInput) (bool, string) {
	if in.Direction == 1 {
		if in.TrendScore < f.cfg.LongTrend {
			return false, fmt.Sprintf("long trend score %.3f below %.2f", in.TrendScore, f.cfg.LongTrend)
		}
		if in.BaseScore < f.cfg.LongBase {
			return false, fmt.Sprintf("long base score %.3f below %.2f", in.BaseScore, f.cfg.LongBase)
		}
		return true, ""
	}
	if in.TrendScore > f.cfg.ShortTrend {
		return false, fmt.Sprintf("short trend score %.3f above %.2f", in.TrendScore, f.cfg.ShortTrend)
	}
	if in.BaseScore > f.cfg.ShortBase {
		return false, fmt.Sprintf("short base score %.3f above %.2f", in.BaseScore, f.cfg.ShortBase)
	}
	return true, ""
}

// entanglementFilter requires a clean price/EMA/WMA stack with real
// separation before letting any entry through.
type entanglementFilter struct {
	cfg EntanglementConfig
}

func (f *entanglementFilter) Name() string { return "ma_entanglement" }

func (f *entanglementFilter) Check(in FilterInput) (bool, string) {
	row := in.row()
	e := scoring.MeasureEntanglement(row.Bar.Close, row.LineWMA, row.OpenEMA, row.CloseEMA)
	if !e.PerfectBullish && !e.PerfectBearish {
		return false, "price entangled with moving averages"
	}
	if e.DeviationPct < f.cfg.DistanceThreshold {
		return false, fmt.Sprintf("price %.2f%% from WMA, inside %.2f%% entanglement band", e.DeviationPct, f.cfg.DistanceThreshold)
	}
	return true, ""
}
