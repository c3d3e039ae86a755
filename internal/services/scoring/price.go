package scoring

import (
	"math"

	"QuantPulse/internal/services/indicators"
)

// PriceScore grades raw price action: a three-factor direction vote (volume-
// weighted momentum, price vs the slow EMA, fast EMA vs slow EMA) scaled by
// the deviation from the slow baseline. Divergence between fresh price
// extremes and fading momentum damps the trend score, and signals require
// volume confirmation. Extreme volatility disables signals entirely.
func PriceScore(close, volume []float64, lookback, volWindow int, k float64) (signal, sideways, trend []float64) {
	n := len(close)
	signal = make([]float64, n)
	sideways = make([]float64, n)
	trend = make([]float64, n)
	if n == 0 {
		return signal, sideways, trend
	}

	ma12 := indicators.EMA(close, 12)
	ma24 := indicators.EMA(close, 24)
	maVol24 := indicators.EMA(volume, 24)

	returns := indicators.Returns(close)
	volatility := indicators.RollingStd(returns, volWindow)
	volBase := indicators.RollingMean(volatility, 50)

	momentum := indicators.PctChange(close, 3)
	for i := range momentum {
		momentum[i] *= math.Log1p(volume[i])
	}

	rollMax := indicators.RollingMax(close, lookback)
	rollMin := indicators.RollingMin(close, lookback)

	volRatio := make([]float64, n)
	for i := 0; i < n; i++ {
		if volBase[i] > 0 {
			volRatio[i] = volatility[i] / volBase[i]
		}
	}

	for i := 0; i < n; i++ {
		priceDev := indicators.SafeDiv(close[i]-ma24[i], ma24[i])

		dir := 0.4 * indicators.Sign(momentum[i])
		if close[i] > ma24[i] {
			dir += 0.3
		} else {
			dir -= 0.3
		}
		if ma12[i] > ma24[i] {
			dir += 0.3
		} else {
			dir -= 0.3
		}

		rawStrength := absf(priceDev) * math.Log1p(absf(momentum[i])*100)
		strength := math.Tanh(rawStrength / k)
		t := dir * strength

		// Volume-price divergence: a fresh extreme without momentum backing it.
		half := lookback / 2
		if i >= half {
			if close[i] == rollMax[i] && momentum[i] < momentum[i-half] {
				t *= 0.6
			} else if close[i] == rollMin[i] && momentum[i] > momentum[i-half] {
				t *= 0.6
			}
		}
		trend[i] = indicators.Clamp(t, -1, 1)

		condVol := 0.0
		if volatility[i] < 0.015*volRatio[i] {
			condVol = 1
		}
		condVolume := 0.0
		if maVol24[i] > 0 {
			r := volume[i] / maVol24[i]
			if r >= 0.8 && r <= 1.2 {
				condVolume = 1
			}
		}
		condRange := 0.0
		if i >= lookback-1 && rollMax[i]-rollMin[i] < 0.02*close[i] {
			condRange = 1
		}
		sideways[i] = indicators.Clamp(0.4*condVol+0.3*condVolume+0.3*condRange, 0, 1)

		volumeOK := volume[i] > maVol24[i]*0.9
		if trend[i] > 0.25 && sideways[i] < 0.4 && volumeOK {
			signal[i] = 1
		} else if trend[i] < -0.25 && sideways[i] < 0.4 && volumeOK {
			signal[i] = -1
		}
	}

	signal = roundSeries(indicators.SmoothMean(signal, 3))
	for i := 0; i < n; i++ {
		if volRatio[i] > 2 {
			signal[i] = 0
		}
	}
	return signal, sideways, trend
}
