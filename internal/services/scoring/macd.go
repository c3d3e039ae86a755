package scoring

import (
	"math"

	"QuantPulse/internal/services/indicators"
)

// MACDScore grades the MACD line, signal line and histogram. Strength terms
// are tanh-squashed against a price-scale norm so the score is comparable
// across symbols. A fresh cross adds a small enhancement proportional to how
// long the previous side held.
func MACDScore(line, sig, hist, close []float64) (signal, sideways, trend []float64) {
	n := len(close)
	signal = make([]float64, n)
	sideways = make([]float64, n)
	trend = make([]float64, n)
	if n == 0 {
		return signal, sideways, trend
	}

	norm := sampleStd(close) * 0.05
	if norm < 1e-8 {
		norm = 1e-8
	}

	streak := 0
	prevSide := 0.0
	for i := 0; i < n; i++ {
		pos := 1.0
		if line[i] <= sig[i] {
			pos = -1
		}
		slope := 1.0
		if i >= 3 && line[i] <= line[i-3] {
			slope = -1
		} else if i < 3 {
			slope = indicators.Sign(line[i])
		}
		histDir := 1.0
		if hist[i] <= 0 {
			histDir = -1
		}
		direction := (pos + slope + histDir) / 3

		lineStrength := absf(math.Tanh(line[i] / norm))
		sep := absf(line[i]-sig[i]) / norm
		sepStrength := math.Tanh(sep)
		histStrength := absf(math.Tanh(hist[i] / (0.3 * norm)))
		trendStrength := 0.4*lineStrength + 0.4*sepStrength + 0.2*histStrength

		sw := 0.4*(1-absf(math.Tanh(line[i]/(0.5*norm)))) +
			0.4*(1-math.Tanh(sep)) +
			0.2*(1-absf(math.Tanh(hist[i]/(0.2*norm))))

		cross := 0.0
		if pos != prevSide && prevSide != 0 {
			held := float64(streak)
			if held > 5 {
				held = 5
			}
			cross = 0.1 * held / 5 * pos
			streak = 1
		} else {
			streak++
		}
		prevSide = pos

		final := indicators.Clamp(direction*trendStrength+cross, -1, 1)
		signal[i] = final

		switch {
		case line[i] > sig[i] && line[i] > 0:
			trend[i] = trendStrength
		case line[i] < sig[i] && line[i] < 0:
			trend[i] = -trendStrength
		}

		sideways[i] = indicators.Clamp(sw*(1-0.5*absf(final)), 0, 1)
	}
	return signal, sideways, trend
}
