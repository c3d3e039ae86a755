package scoring

import (
	"math"

	"QuantPulse/internal/services/indicators"
)

// Entanglement describes how tightly price is wound around its moving-average
// baselines at one bar. When price sits inside the band the market has no
// committed direction and entries should be filtered.
type Entanglement struct {
	DeviationPct   float64 // |close - lineWMA| / lineWMA, in percent
	PerfectBullish bool    // close above both EMAs, both EMAs above the WMA
	PerfectBearish bool
	Intensity      float64 // 1 fully entangled .. 0 well separated
	ShouldFilter   bool
}

// MeasureEntanglement evaluates the price/WMA/EMA arrangement at one bar.
func MeasureEntanglement(close, lineWMA, openEMA, closeEMA float64) Entanglement {
	var e Entanglement
	if lineWMA <= 0 {
		e.ShouldFilter = true
		return e
	}
	e.DeviationPct = absf(close-lineWMA) / lineWMA * 100
	emaMax := math.Max(openEMA, closeEMA)
	emaMin := math.Min(openEMA, closeEMA)
	e.PerfectBullish = close > emaMax && emaMax > lineWMA
	e.PerfectBearish = close < emaMin && emaMin < lineWMA
	e.Intensity = indicators.Clamp(1-e.DeviationPct/10, 0, 1)
	aligned := e.PerfectBullish || e.PerfectBearish
	e.ShouldFilter = !aligned || e.DeviationPct < 0.2
	return e
}
