package volatility

import (
	"math"
	"sort"
)

// SummaryStats describes a volatility series. StdDev is the sample
// standard deviation.
type SummaryStats struct {
	Mean   float64
	StdDev float64
	Median float64
}

// Summarize computes the summary statistics of a series. A single-value
// series has a standard deviation of zero; an empty series yields all NaN.
func Summarize(values []float64) SummaryStats {
	n := len(values)
	if n == 0 {
		return SummaryStats{Mean: math.NaN(), StdDev: math.NaN(), Median: math.NaN()}
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	var stddev float64
	if n > 1 {
		var sqSum float64
		for _, v := range values {
			d := v - mean
			sqSum += d * d
		}
		stddev = math.Sqrt(sqSum / float64(n-1))
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	var median float64
	if n%2 == 1 {
		median = sorted[n/2]
	} else {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return SummaryStats{Mean: mean, StdDev: stddev, Median: median}
}
