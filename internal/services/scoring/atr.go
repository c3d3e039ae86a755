package scoring

import (
	"math"

	"QuantPulse/internal/services/indicators"
)

// ATRScore grades volatility expansion. Rising ATR with a rising price reads
// as a long trend, rising ATR against the price as a short one, and a stable
// ATR whose short and long means converge reads as oscillation.
func ATRScore(atr, close []float64, window int) (signal, sideways, trend []float64) {
	n := len(atr)
	signal = make([]float64, n)
	sideways = make([]float64, n)
	trend = make([]float64, n)
	if n == 0 || window <= 0 {
		return signal, sideways, trend
	}

	change := indicators.PctChange(atr, 1)
	maShort := indicators.RollingMean(atr, smoothWindow(window))
	maLong := indicators.RollingMean(atr, window)
	priceTrend := diffSign(close, window)
	median := indicators.RollingMedian(atr, 2*window)

	for i := 0; i < n; i++ {
		ts := 0.0
		if change[i] > 0 && priceTrend[i] > 0 {
			ts = 1
		} else if change[i] > 0 && priceTrend[i] < 0 {
			ts = -1
		}

		stability := indicators.Clamp(1-absf(change[i]), 0, 1)
		convergence := indicators.Clamp(1-absf(maShort[i]-maLong[i])/(maLong[i]+1e-6), 0, 1)
		sideways[i] = stability * convergence

		threshold := median[i] * 0.05
		strength := math.Tanh(0.5 * absf(change[i]) / (threshold + 1e-6))
		trend[i] = strength * ts
		signal[i] = ts
	}

	sw := smoothWindow(window)
	signal = roundSeries(indicators.SmoothMean(signal, sw))
	sideways = indicators.SmoothMean(sideways, sw)
	trend = indicators.SmoothMean(trend, sw)
	return signal, sideways, trend
}
