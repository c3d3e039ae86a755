package scoring

import (
	"QuantPulse/internal/services/indicators"
)

// adxStrength maps an ADX reading onto a 0..1 trend-strength curve. The
// curve is piecewise so readings near the 20/25 decision bands move the
// score faster than deep-trend readings do.
func adxStrength(adx float64) float64 {
	switch {
	case adx < 20:
		return 0.3 * adx / 20
	case adx < 25:
		return 0.3 + 0.2*(adx-20)/5
	case adx < 40:
		return 0.5 + 0.3*(adx-25)/15
	default:
		capped := adx
		if capped > 50 {
			capped = 50
		}
		return 0.8 + 0.2*(capped-40)/10
	}
}

// ADXScore grades trend strength from ADX and the directional indicators.
// Below ADX 20 the market reads as ranging and the signal is damped.
func ADXScore(adx, diPlus, diMinus []float64) (signal, sideways, trend []float64) {
	n := len(adx)
	signal = make([]float64, n)
	sideways = make([]float64, n)
	trend = make([]float64, n)
	for i := 0; i < n; i++ {
		diDir := indicators.Clamp((diPlus[i]-diMinus[i])/50, -1, 1)
		if adx[i] < 20 {
			sideways[i] = 0.8 - 0.3*(adx[i]/20)
			signal[i] = 0.3 * diDir
			continue
		}
		trend[i] = diDir
		signal[i] = diDir * adxStrength(adx[i])
	}
	return signal, sideways, trend
}
