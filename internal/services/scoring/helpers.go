package scoring

import "math"

func absf(x float64) float64 { return math.Abs(x) }

// smoothWindow is the short smoothing window derived from a scorer window.
func smoothWindow(window int) int {
	w := window / 3
	if w < 3 {
		w = 3
	}
	return w
}

// sampleStd is the bias-corrected standard deviation over the whole series.
func sampleStd(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(n)
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(n-1))
}

// roundSeries rounds each value to the nearest integer in place.
func roundSeries(xs []float64) []float64 {
	for i, x := range xs {
		xs[i] = math.Round(x)
	}
	return xs
}

// diffSign returns sign(xs[i] - xs[i-lag]) per bar, 0 while undefined.
func diffSign(xs []float64, lag int) []float64 {
	out := make([]float64, len(xs))
	for i := lag; i < len(xs); i++ {
		d := xs[i] - xs[i-lag]
		if d > 0 {
			out[i] = 1
		} else if d < 0 {
			out[i] = -1
		}
	}
	return out
}

// ewmStd computes a recursive exponentially weighted standard deviation with
// alpha = 2/(span+1), seeded with zero variance at the first bar.
func ewmStd(xs []float64, span int) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 || span <= 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	mean := xs[0]
	variance := 0.0
	for i := 1; i < len(xs); i++ {
		d := xs[i] - mean
		incr := alpha * d
		mean += incr
		variance = (1 - alpha) * (variance + d*incr)
		out[i] = math.Sqrt(variance)
	}
	return out
}
