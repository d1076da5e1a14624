// Package stats holds the shared numeric helpers used by the scoring engines.
// Every function is a pure function of its input; edge cases (empty or short
// series, zero variance) return defined fallback values rather than errors so
// the engines never have to special-case them twice.
package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := 0.0
	for _, v := range xs {
		s += v
	}
	return s / float64(len(xs))
}

// Std returns the population standard deviation, or 0 for an empty slice.
func Std(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	ss := 0.0
	for _, v := range xs {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// MeanAbs returns the mean of absolute values, or 0 for an empty slice.
func MeanAbs(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := 0.0
	for _, v := range xs {
		s += math.Abs(v)
	}
	return s / float64(len(xs))
}

// Diff returns the first differences xs[i+1]-xs[i]. Returns an empty slice
// when xs has fewer than two elements.
func Diff(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	d := make([]float64, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		d[i-1] = xs[i] - xs[i-1]
	}
	return d
}

// Median returns the middle value of the sorted input, or 0 for an empty
// slice. The input is not modified.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	cp := append([]float64(nil), xs...)
	sort.Float64s(cp)
	mid := len(cp) / 2
	if len(cp)%2 == 1 {
		return cp[mid]
	}
	return 0.5 * (cp[mid-1] + cp[mid])
}

// LinearSlope returns the slope of a degree-1 least-squares fit of xs against
// its indices 0..n-1. Returns 0 for fewer than two points or a degenerate fit.
func LinearSlope(xs []float64) float64 {
	n := float64(len(xs))
	if len(xs) < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range xs {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// MovingAverage returns the centered moving average with the given window,
// valid-mode: the result has len(xs)-window+1 points. Returns nil when the
// window does not fit.
func MovingAverage(xs []float64, window int) []float64 {
	if window <= 0 || len(xs) < window {
		return nil
	}
	out := make([]float64, len(xs)-window+1)
	sum := 0.0
	for i := 0; i < window; i++ {
		sum += xs[i]
	}
	out[0] = sum / float64(window)
	for i := window; i < len(xs); i++ {
		sum += xs[i] - xs[i-window]
		out[i-window+1] = sum / float64(window)
	}
	return out
}

// Clip bounds x to [lo, hi].
func Clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
