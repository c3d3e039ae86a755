package scoring

import (
	"QuantPulse/internal/services/indicators"
)

// VolumeScore grades volume surges relative to an exponentially weighted
// baseline. A surge confirms the running price direction, a drought against
// the direction hints at exhaustion, and a flat volume profile with a flat
// price reads as oscillation.
func VolumeScore(volume, close []float64, window int) (signal, sideways, trend []float64) {
	n := len(volume)
	signal = make([]float64, n)
	sideways = make([]float64, n)
	trend = make([]float64, n)
	if n == 0 || window <= 0 {
		return signal, sideways, trend
	}

	ema := indicators.EMA(volume, window)
	std := ewmStd(volume, window)
	priceTrend := diffSign(close, window)
	maShort := indicators.RollingMean(volume, smoothWindow(window))
	maLong := indicators.RollingMean(volume, window)

	ratio := make([]float64, n)
	for i := 0; i < n; i++ {
		upper := ema[i] * 3
		if band := ema[i] + 2.5*std[i]; band < upper {
			upper = band
		}
		r := indicators.Clamp((volume[i]-ema[i])/(upper-ema[i]+1e-6), -1, 1)

		switch {
		case r > 0.2 && priceTrend[i] > 0:
			signal[i] = 1
		case r > 0.2 && priceTrend[i] < 0:
			signal[i] = -1
		case r < -0.2 && priceTrend[i] < 0:
			signal[i] = -1
		case r < -0.2 && priceTrend[i] > 0:
			signal[i] = 1
		}

		sideways[i] = indicators.Clamp(1-absf(r), 0, 1) *
			indicators.Clamp(1-absf(maShort[i]-maLong[i])/(maLong[i]+1e-6), 0, 1)

		ratio[i] = indicators.Clamp(r*(1+0.3*priceTrend[i]), -1, 1)
	}

	short := indicators.RollingMean(ratio, smoothWindow(window))
	long := indicators.RollingMean(short, window)
	for i := 0; i < n; i++ {
		switch {
		case signal[i] == 1:
			trend[i] = indicators.Clamp(long[i], 0, 1)
		case signal[i] == -1:
			trend[i] = indicators.Clamp(long[i], -1, 0)
		}
	}

	sw := smoothWindow(window)
	signal = roundSeries(indicators.SmoothMean(signal, sw))
	sideways = indicators.SmoothMean(sideways, sw)
	trend = indicators.SmoothMean(trend, sw)
	return signal, sideways, trend
}
