package indicators

import "math"

// RollingMean computes the trailing simple mean over window bars.
// Entries before the window warms up are 0.
func RollingMean(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	if window <= 0 {
		return out
	}
	var sum float64
	for i, x := range xs {
		sum += x
		if i >= window {
			sum -= xs[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// RollingStd computes the trailing sample standard deviation over window bars.
func RollingStd(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	if window <= 1 {
		return out
	}
	var sum, sum2 float64
	for i, x := range xs {
		sum += x
		sum2 += x * x
		if i >= window {
			old := xs[i-window]
			sum -= old
			sum2 -= old * old
		}
		if i >= window-1 {
			n := float64(window)
			mean := sum / n
			v := (sum2 - n*mean*mean) / (n - 1)
			if v < 0 {
				v = 0
			}
			out[i] = math.Sqrt(v)
		}
	}
	return out
}

// RollingMax computes the trailing maximum over window bars.
func RollingMax(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	if window <= 0 {
		return out
	}
	for i := range xs {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		m := xs[lo]
		for j := lo + 1; j <= i; j++ {
			if xs[j] > m {
				m = xs[j]
			}
		}
		out[i] = m
	}
	return out
}

// RollingMin computes the trailing minimum over window bars.
func RollingMin(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	if window <= 0 {
		return out
	}
	for i := range xs {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		m := xs[lo]
		for j := lo + 1; j <= i; j++ {
			if xs[j] < m {
				m = xs[j]
			}
		}
		out[i] = m
	}
	return out
}

// RollingMedian computes the trailing median over window bars.
func RollingMedian(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	if window <= 0 {
		return out
	}
	for i := range xs {
		if i < window-1 {
			continue
		}
		out[i] = Median(xs[i-window+1 : i+1])
	}
	return out
}

// PctChange computes (x_i - x_{i-n}) / x_{i-n}, 0 where undefined.
func PctChange(xs []float64, n int) []float64 {
	out := make([]float64, len(xs))
	if n <= 0 {
		return out
	}
	for i := n; i < len(xs); i++ {
		prev := xs[i-n]
		if math.Abs(prev) < eps {
			continue
		}
		out[i] = (xs[i] - prev) / prev
	}
	return out
}

// Returns computes simple one-bar returns of the series.
func Returns(xs []float64) []float64 { return PctChange(xs, 1) }

// SmoothMean applies a trailing mean of the given window, leaving the head
// of the series unsmoothed so values remain defined from the first bar.
func SmoothMean(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	if window <= 1 {
		copy(out, xs)
		return out
	}
	var sum float64
	for i, x := range xs {
		sum += x
		n := window
		if i >= window {
			sum -= xs[i-window]
		} else {
			n = i + 1
		}
		out[i] = sum / float64(n)
	}
	return out
}

// SmoothStd is the trailing sample standard deviation counterpart of
// SmoothMean. The first bar, where a sample deviation is undefined, is 0.
func SmoothStd(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	if window <= 1 {
		return out
	}
	for i := range xs {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		seg := xs[lo : i+1]
		if len(seg) < 2 {
			continue
		}
		var sum float64
		for _, x := range seg {
			sum += x
		}
		mean := sum / float64(len(seg))
		var sq float64
		for _, x := range seg {
			d := x - mean
			sq += d * d
		}
		out[i] = math.Sqrt(sq / float64(len(seg)-1))
	}
	return out
}

// RollingSharpe computes the trailing Sharpe ratio of per-bar returns over
// window bars against a per-bar risk-free rate. The head of the series uses
// the partial window so values are defined from the second bar on.
func RollingSharpe(returns []float64, window int, riskFreePerBar float64) []float64 {
	out := make([]float64, len(returns))
	if window <= 1 {
		return out
	}
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - riskFreePerBar
	}
	mean := SmoothMean(excess, window)
	std := SmoothStd(returns, window)
	for i := 1; i < len(out); i++ {
		out[i] = mean[i] / (std[i] + eps)
	}
	return out
}

// RollingMaxDrawdown computes the trailing worst drawdown of the price
// series over window bars. Values are negative or zero.
func RollingMaxDrawdown(close []float64, window int) []float64 {
	out := make([]float64, len(close))
	if window <= 1 {
		return out
	}
	for i := range close {
		if i < window-1 {
			continue
		}
		seg := close[i-window+1 : i+1]
		peak := seg[0]
		worst := 0.0
		for _, p := range seg {
			if p > peak {
				peak = p
			}
			if peak > 0 {
				dd := p/peak - 1
				if dd < worst {
					worst = dd
				}
			}
		}
		out[i] = worst
	}
	return out
}
