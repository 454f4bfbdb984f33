package volatility

import (
	"fmt"
	"math"
)

// Policy selects how histogram bin edges are constructed.
type Policy int

const (
	// PolicySqrt uses round(sqrt(n)) equal-width bins, clamped to [10, 50],
	// spanning [min, max].
	PolicySqrt Policy = iota
	// PolicyStdDev aligns bin edges to whole standard-deviation widths
	// around the mean, so outlier tail bins stay visually distinct
	// regardless of sample size.
	PolicyStdDev
)

// String returns the configuration name of the policy.
func (p Policy) String() string {
	switch p {
	case PolicySqrt:
		return "sqrt"
	case PolicyStdDev:
		return "stddev"
	default:
		return "unknown"
	}
}

// ParsePolicy converts a configuration string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "sqrt":
		return PolicySqrt, nil
	case "stddev":
		return PolicyStdDev, nil
	default:
		return PolicySqrt, fmt.Errorf("unknown binning policy %q", s)
	}
}

const (
	minBinCount = 10
	maxBinCount = 50

	// minSpan expands a zero-width range so equal-width binning never
	// produces zero-width bins.
	minSpan = 1e-9
)

// BinSpec is a strictly increasing sequence of bin edges partitioning the
// real line into histogram intervals.
type BinSpec struct {
	Policy Policy
	Edges  []float64
}

// Intervals returns the number of histogram intervals.
func (b BinSpec) Intervals() int {
	if len(b.Edges) < 2 {
		return 0
	}
	return len(b.Edges) - 1
}

// Counts tallies the series values into the bin intervals. Intervals are
// left-closed, right-open, except the final interval which is closed on
// both ends so the series maximum is always counted. Values outside the
// edge range are ignored.
func (b BinSpec) Counts(values []float64) []int {
	n := b.Intervals()
	counts := make([]int, n)
	if n == 0 {
		return counts
	}
	first, last := b.Edges[0], b.Edges[n]
	for _, v := range values {
		if v < first || v > last {
			continue
		}
		if v == last {
			counts[n-1]++
			continue
		}
		idx := 0
		for idx < n-1 && v >= b.Edges[idx+1] {
			idx++
		}
		counts[idx]++
	}
	return counts
}

// Bins constructs a BinSpec for the series under the given policy.
func Bins(policy Policy, values []float64) (BinSpec, error) {
	switch policy {
	case PolicyStdDev:
		return StdDevBins(values)
	default:
		return SqrtBins(values)
	}
}

// SqrtBins builds round(sqrt(n)) equal-width bins clamped to [10, 50] over
// [min, max]. If all values are identical the span is expanded by a small
// epsilon to keep the bins well-formed.
func SqrtBins(values []float64) (BinSpec, error) {
	n := len(values)
	if n == 0 {
		return BinSpec{}, ErrNoData
	}

	count := int(math.Round(math.Sqrt(float64(n))))
	if count < minBinCount {
		count = minBinCount
	}
	if count > maxBinCount {
		count = maxBinCount
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi-lo < minSpan {
		half := minSpan / 2
		if abs := math.Abs(lo); abs > 1 {
			half = abs * 1e-9
		}
		lo -= half
		hi += half
	}

	width := (hi - lo) / float64(count)
	edges := make([]float64, count+1)
	for i := 0; i <= count; i++ {
		edges[i] = lo + float64(i)*width
	}
	edges[count] = hi
	return BinSpec{Policy: PolicySqrt, Edges: edges}, nil
}

// StdDevBins builds bins one standard deviation wide centered on the mean,
// extending far enough to cover both the series minimum and maximum.
// Returns ErrDegenerateDistribution when the series has zero variance.
func StdDevBins(values []float64) (BinSpec, error) {
	if len(values) == 0 {
		return BinSpec{}, ErrNoData
	}

	stats := Summarize(values)
	if !isFinite(stats.StdDev) || stats.StdDev <= 0 {
		return BinSpec{}, ErrDegenerateDistribution
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	leftSteps := int(math.Floor(math.Abs(lo-stats.Mean)/stats.StdDev)) + 1
	rightSteps := int(math.Floor(math.Abs(hi-stats.Mean)/stats.StdDev)) + 1

	edges := make([]float64, 0, leftSteps+rightSteps+1)
	for i := -leftSteps; i <= rightSteps; i++ {
		edges = append(edges, stats.Mean+float64(i)*stats.StdDev)
	}
	return BinSpec{Policy: PolicyStdDev, Edges: edges}, nil
}
