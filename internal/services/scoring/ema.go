package scoring

import (
	"QuantPulse/internal/services/indicators"
)

// EMAScore grades moving-average alignment across a short, medium and long
// baseline. A score fires only when at least two of direction, price
// position and separation agree.
func EMAScore(close, fast, mid, slow []float64, window int) (signal, sideways, trend []float64) {
	n := len(close)
	signal = make([]float64, n)
	sideways = make([]float64, n)
	trend = make([]float64, n)
	if n == 0 {
		return signal, sideways, trend
	}

	for i := 0; i < n; i++ {
		dir := 0.0
		if fast[i] > mid[i] && mid[i] > slow[i]*0.995 {
			dir = 1
		} else if fast[i] < mid[i] && mid[i] < slow[i]*1.005 {
			dir = -1
		}

		pp := 0.0
		if close[i] > fast[i] && close[i] > mid[i] {
			pp = 1
		} else if close[i] < fast[i] && close[i] < mid[i] {
			pp = -1
		}

		avgDist := (absf(indicators.SafeDiv(fast[i]-mid[i], mid[i])) +
			absf(indicators.SafeDiv(mid[i]-slow[i], slow[i]))) / 2
		divergent := avgDist > 0.005

		conditions := 0
		if dir != 0 {
			conditions++
		}
		if pp == dir {
			conditions++
		}
		if divergent {
			conditions++
		}

		base := 0.0
		if conditions >= 2 {
			base = 0.6 + 0.4*indicators.Clamp(avgDist/0.01, 0, 1)
		}
		trend[i] = base * dir

		weak := 0.0
		if dir == 0 || absf(trend[i]) < 0.3 {
			weak = 1
		}
		tight := 0.0
		if avgDist < 0.005 {
			tight = 1
		}
		near := 0.0
		if absf(indicators.SafeDiv(close[i]-mid[i], mid[i])) < 0.02 {
			near = 1
		}
		sideways[i] = (0.4*weak + 0.4*tight + 0.2*near) * 0.8

		if trend[i] > 0.3 && sideways[i] < 0.3 {
			signal[i] = 1
		} else if trend[i] < -0.3 && sideways[i] < 0.3 {
			signal[i] = -1
		}
	}

	sw := smoothWindow(window)
	sideways = indicators.RollingMean(sideways, sw)
	trend = indicators.RollingMean(trend, sw)
	return signal, sideways, trend
}
