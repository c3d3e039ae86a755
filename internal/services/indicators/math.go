package indicators

import "math"

const eps = 1e-8

// Clamp bounds x into [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// SafeDiv divides a by b, substituting a small epsilon for a zero denominator.
func SafeDiv(a, b float64) float64 {
	if math.Abs(b) < eps {
		if b < 0 {
			return a / -eps
		}
		return a / eps
	}
	return a / b
}

// TanhClamp squashes x into (-1, 1).
func TanhClamp(x float64) float64 { return math.Tanh(x) }

// Sign returns -1, 0 or +1.
func Sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// SlopeLinReg fits y = a + b*t over the slice with t = 0..n-1 and returns b.
func SlopeLinReg(ys []float64) float64 {
	n := len(ys)
	if n < 2 {
		return 0
	}
	var sumT, sumY, sumTY, sumTT float64
	for i, y := range ys {
		t := float64(i)
		sumT += t
		sumY += y
		sumTY += t * y
		sumTT += t * t
	}
	fn := float64(n)
	den := fn*sumTT - sumT*sumT
	if math.Abs(den) < eps {
		return 0
	}
	return (fn*sumTY - sumT*sumY) / den
}

// MeanStd returns mean and population standard deviation of xs.
func MeanStd(xs []float64) (float64, float64) {
	n := len(xs)
	if n == 0 {
		return 0, 0
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
	return mean, math.Sqrt(sq / float64(n))
}

// Median returns the median of xs without mutating it.
func Median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	cp := make([]float64, n)
	copy(cp, xs)
	// insertion sort; windows here are small
	for i := 1; i < n; i++ {
		for j := i; j > 0 && cp[j] < cp[j-1]; j-- {
			cp[j], cp[j-1] = cp[j-1], cp[j]
		}
	}
	if n%2 == 1 {
		return cp[n/2]
	}
	return (cp[n/2-1] + cp[n/2]) / 2
}
