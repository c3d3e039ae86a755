package scoring

import (
	"QuantPulse/internal/services/indicators"
)

// BollingerScore grades band position and band width. Touching a band with
// a wide channel reads as breakout pressure, a narrow channel with price
// near the middle reads as oscillation. Breakout pressure is amplified when
// the local price slope agrees.
func BollingerScore(close, upper, middle, lower []float64, window int) (signal, sideways, trend []float64) {
	n := len(close)
	signal = make([]float64, n)
	sideways = make([]float64, n)
	trend = make([]float64, n)
	if n == 0 || window <= 1 {
		return signal, sideways, trend
	}

	slope := make([]float64, n)
	for i := window - 1; i < n; i++ {
		slope[i] = indicators.SlopeLinReg(close[i-window+1 : i+1])
	}
	slopeStd := sampleStd(slope)
	if slopeStd < 1e-8 {
		slopeStd = 1e-8
	}

	bull := make([]float64, n)
	bear := make([]float64, n)
	for i := 0; i < n; i++ {
		span := upper[i] - lower[i]
		if span == 0 {
			span = 1e-10
		}
		pos := (close[i] - lower[i]) / span
		width := indicators.SafeDiv(upper[i]-lower[i], middle[i])
		dist := absf(indicators.SafeDiv(close[i]-middle[i], middle[i]))

		sw := 0.0
		if dist < 0.02 && width > 0.03 && width < 0.08 {
			sw = 1
		}
		b := 0.0
		if pos > 0.85 && width > 0.03 {
			b = 1
		}
		s := 0.0
		if pos < 0.15 && width > 0.03 {
			s = 1
		}

		wf := indicators.Clamp(width/0.05, 0.5, 2)
		sw *= 1.5 - wf/2
		b *= wf
		s *= wf

		sf := absf(slope[i]) / slopeStd
		if slope[i] > 0 {
			b *= indicators.Clamp(1+sf, 1, 2)
		} else if slope[i] < 0 {
			s *= indicators.Clamp(1+sf, 1, 2)
		}

		sideways[i] = sw
		bull[i] = b
		bear[i] = s
	}

	sideways = indicators.SmoothMean(sideways, window)
	bull = indicators.SmoothMean(bull, window)
	bear = indicators.SmoothMean(bear, window)

	for i := 0; i < n; i++ {
		sideways[i] = indicators.Clamp(sideways[i], 0, 1)
		trend[i] = indicators.Clamp(bull[i]-bear[i], -1, 1)
		if trend[i] > 0.3 && sideways[i] < 0.3 {
			signal[i] = 1
		} else if trend[i] < -0.3 && sideways[i] < 0.3 {
			signal[i] = -1
		}
	}
	return signal, sideways, trend
}
