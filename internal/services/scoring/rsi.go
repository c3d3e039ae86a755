package scoring

import (
	"math"

	"QuantPulse/internal/services/indicators"
)

// rsiPositionWeight weights RSI moves by how extreme the reading is. Moves
// out of the overbought/oversold zones count full, mid-range drift counts
// half.
func rsiPositionWeight(rsi float64) float64 {
	switch {
	case rsi > 70, rsi < 30:
		return 1
	case rsi >= 60, rsi <= 40:
		return 0.8
	default:
		return 0.5
	}
}

// RSIScore grades RSI momentum from the spread between a short and a long
// moving average of the oscillator. A neutral 40..60 reading with converging
// averages reads as oscillation.
func RSIScore(rsi []float64, window int) (signal, sideways, trend []float64) {
	n := len(rsi)
	signal = make([]float64, n)
	sideways = make([]float64, n)
	trend = make([]float64, n)
	if n == 0 || window <= 1 {
		return signal, sideways, trend
	}

	short := window / 2
	if short < 2 {
		short = 2
	}
	maShort := indicators.RollingMean(rsi, short)
	maLong := indicators.RollingMean(rsi, window)

	delta := make([]float64, n)
	for i := 1; i < n; i++ {
		delta[i] = rsi[i] - rsi[i-1]
	}
	deltaStd := indicators.RollingStd(delta, 20)

	for i := 0; i < n; i++ {
		ts := 0.0
		if maShort[i] > maLong[i] && rsi[i] > 50 {
			ts = 1
		} else if maShort[i] < maLong[i] && rsi[i] < 50 {
			ts = -1
		}
		signal[i] = ts

		if rsi[i] >= 40 && rsi[i] <= 60 {
			sideways[i] = indicators.Clamp(1-absf(maShort[i]-maLong[i])/10, 0, 1) *
				indicators.Clamp(1-absf(delta[i])/5, 0, 1)
		}

		strength := absf(maShort[i]-maLong[i]) / 10 *
			rsiPositionWeight(rsi[i]) *
			(0.7 + 0.3*math.Tanh(absf(delta[i])/(deltaStd[i]+1e-6)))
		trend[i] = indicators.Clamp(strength, 0, 1) * ts
	}

	sw := short
	if sw < 3 {
		sw = 3
	}
	signal = roundSeries(indicators.SmoothMean(signal, sw))
	sideways = indicators.SmoothMean(sideways, sw)
	trend = indicators.SmoothMean(trend, sw)
	return signal, sideways, trend
}
