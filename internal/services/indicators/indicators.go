package indicators

import "math"

// EMA computes an exponential moving average with alpha = 2/(period+1),
// seeded from the first value.
func EMA(xs []float64, period int) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 || period <= 0 {
		return out
	}
	alpha := 2.0 / (float64(period) + 1.0)
	out[0] = xs[0]
	for i := 1; i < len(xs); i++ {
		out[i] = alpha*xs[i] + (1-alpha)*out[i-1]
	}
	return out
}

// SMA computes a trailing simple moving average.
func SMA(xs []float64, period int) []float64 { return RollingMean(xs, period) }

// WMA computes a linearly weighted moving average where the most recent bar
// carries the largest weight.
func WMA(xs []float64, period int) []float64 {
	out := make([]float64, len(xs))
	if period <= 0 {
		return out
	}
	denom := float64(period*(period+1)) / 2
	for i := range xs {
		if i < period-1 {
			continue
		}
		var acc float64
		for j := 0; j < period; j++ {
			acc += xs[i-period+1+j] * float64(j+1)
		}
		out[i] = acc / denom
	}
	return out
}

// RSI computes the relative strength index using rolling-mean gains/losses.
// Neutral 50 is emitted until the window warms up.
func RSI(close []float64, period int) []float64 {
	out := make([]float64, len(close))
	if len(close) == 0 || period <= 0 {
		return out
	}
	gains := make([]float64, len(close))
	losses := make([]float64, len(close))
	for i := 1; i < len(close); i++ {
		d := close[i] - close[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}
	avgGain := RollingMean(gains, period)
	avgLoss := RollingMean(losses, period)
	for i := range out {
		if i < period {
			out[i] = 50
			continue
		}
		rs := avgGain[i] / (avgLoss[i] + eps)
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// MACD computes the MACD line, signal line and histogram.
func MACD(close []float64, fast, slow, signal int) (line, sig, hist []float64) {
	emaFast := EMA(close, fast)
	emaSlow := EMA(close, slow)
	line = make([]float64, len(close))
	for i := range close {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig = EMA(line, signal)
	hist = make([]float64, len(close))
	for i := range close {
		hist[i] = line[i] - sig[i]
	}
	return line, sig, hist
}

// TrueRange computes the per-bar true range.
func TrueRange(high, low, close []float64) []float64 {
	out := make([]float64, len(close))
	for i := range close {
		tr := high[i] - low[i]
		if i > 0 {
			if hc := math.Abs(high[i] - close[i-1]); hc > tr {
				tr = hc
			}
			if lc := math.Abs(low[i] - close[i-1]); lc > tr {
				tr = lc
			}
		}
		out[i] = tr
	}
	return out
}

// ATR computes the average true range as a rolling mean of the true range.
func ATR(high, low, close []float64, period int) []float64 {
	return RollingMean(TrueRange(high, low, close), period)
}

// ADX computes the average directional index together with DI+ and DI-.
// Directional movement and true range are EMA-smoothed over the period.
func ADX(high, low, close []float64, period int) (adx, diPlus, diMinus []float64) {
	n := len(close)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}
	tr := TrueRange(high, low, close)
	smTR := EMA(tr, period)
	smPlus := EMA(plusDM, period)
	smMinus := EMA(minusDM, period)

	diPlus = make([]float64, n)
	diMinus = make([]float64, n)
	dx := make([]float64, n)
	for i := 0; i < n; i++ {
		diPlus[i] = 100 * smPlus[i] / (smTR[i] + eps)
		diMinus[i] = 100 * smMinus[i] / (smTR[i] + eps)
		diSum := diPlus[i] + diMinus[i]
		dx[i] = 100 * math.Abs(diPlus[i]-diMinus[i]) / (diSum + eps)
	}
	adx = EMA(dx, period)
	return adx, diPlus, diMinus
}

// Bollinger computes the upper/middle/lower bands using a rolling mean and
// k rolling standard deviations.
func Bollinger(close []float64, period int, k float64) (upper, middle, lower []float64) {
	middle = RollingMean(close, period)
	std := RollingStd(close, period)
	upper = make([]float64, len(close))
	lower = make([]float64, len(close))
	for i := range close {
		upper[i] = middle[i] + k*std[i]
		lower[i] = middle[i] - k*std[i]
	}
	return upper, middle, lower
}

// OBV computes cumulative on-balance volume.
func OBV(close, volume []float64) []float64 {
	out := make([]float64, len(close))
	for i := 1; i < len(close); i++ {
		switch {
		case close[i] > close[i-1]:
			out[i] = out[i-1] + volume[i]
		case close[i] < close[i-1]:
			out[i] = out[i-1] - volume[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out
}
