package scoring

import (
	"QuantPulse/internal/services/indicators"
)

// OBVScore grades on-balance volume by the z-score of its rolling regression
// slope. A strong normalized slope reads as trend, a flat one as oscillation
// scaled by relative OBV volatility.
func OBVScore(obv []float64, window int) (signal, sideways, trend []float64) {
	n := len(obv)
	signal = make([]float64, n)
	sideways = make([]float64, n)
	trend = make([]float64, n)
	if n == 0 || window <= 1 {
		return signal, sideways, trend
	}

	slope := make([]float64, n)
	for i := window - 1; i < n; i++ {
		slope[i] = indicators.SlopeLinReg(obv[i-window+1 : i+1])
	}
	slopeMean := indicators.RollingMean(slope, window)
	slopeStd := indicators.RollingStd(slope, window)

	obvMean := indicators.RollingMean(obv, window)
	obvStd := indicators.RollingStd(obv, window)

	for i := 0; i < n; i++ {
		sd := slopeStd[i]
		if sd == 0 {
			sd = 1e-6
		}
		z := indicators.Clamp((slope[i]-slopeMean[i])/sd, -3, 3)
		ts := z / 3

		if ts > 0.3 {
			signal[i] = 1
		} else if ts < -0.3 {
			signal[i] = -1
		}

		mean := obvMean[i]
		if mean == 0 {
			mean = 1e-6
		}
		vol := indicators.Clamp(obvStd[i]/mean, 0, 1)
		sideways[i] = (1 - absf(ts)) * vol
		trend[i] = ts * (1 - sideways[i])
	}

	sw := smoothWindow(window)
	signal = indicators.RollingMean(signal, sw)
	sideways = indicators.RollingMean(sideways, sw)
	trend = indicators.RollingMean(trend, sw)
	return signal, sideways, trend
}
