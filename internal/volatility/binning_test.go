package volatility

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesOfLength(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = math.Sin(float64(i)) * 5
	}
	return values
}

func TestSqrtBinsCount(t *testing.T) {
	tests := []struct {
		name      string
		length    int
		wantCount int
	}{
		{name: "tiny series clamps up", length: 4, wantCount: 10},
		{name: "sqrt below lower clamp", length: 80, wantCount: 10},
		{name: "sqrt in range", length: 252, wantCount: 16},
		{name: "sqrt exactly at clamp", length: 2500, wantCount: 50},
		{name: "huge series clamps down", length: 10000, wantCount: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := SqrtBins(seriesOfLength(tt.length))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, spec.Intervals())

			want := int(math.Round(math.Sqrt(float64(tt.length))))
			if want >= 10 && want <= 50 {
				assert.Equal(t, want, spec.Intervals())
			}
			assert.GreaterOrEqual(t, spec.Intervals(), 10)
			assert.LessOrEqual(t, spec.Intervals(), 50)
		})
	}
}

func TestSqrtBinsSpanAndOrdering(t *testing.T) {
	values := []float64{-3.5, 0.25, 1.0, 8.75, -1.5, 4.0, 2.25, 6.5, -2.0, 3.0, 0.0, 5.5}
	spec, err := SqrtBins(values)
	require.NoError(t, err)

	assert.Equal(t, -3.5, spec.Edges[0])
	assert.Equal(t, 8.75, spec.Edges[len(spec.Edges)-1])
	for i := 1; i < len(spec.Edges); i++ {
		assert.Greater(t, spec.Edges[i], spec.Edges[i-1], "edges must be strictly increasing")
	}
}

func TestSqrtBinsDegenerateSpan(t *testing.T) {
	spec, err := SqrtBins([]float64{2.5, 2.5, 2.5, 2.5})
	require.NoError(t, err)
	for i := 1; i < len(spec.Edges); i++ {
		assert.Greater(t, spec.Edges[i], spec.Edges[i-1], "zero-width bins are not allowed")
	}
	counts := spec.Counts([]float64{2.5, 2.5, 2.5, 2.5})
	total := 0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, 4, total)
}

func TestSqrtBinsEmpty(t *testing.T) {
	_, err := SqrtBins(nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestStdDevBinsEdges(t *testing.T) {
	values := []float64{-4.2, -1.0, -0.5, 0.0, 0.5, 1.0, 1.5, 2.0, 6.8}
	spec, err := StdDevBins(values)
	require.NoError(t, err)

	stats := Summarize(values)
	require.Greater(t, stats.StdDev, 0.0)

	// Strictly increasing, every edge at mean + k*stddev for integer k.
	for i, edge := range spec.Edges {
		if i > 0 {
			assert.Greater(t, edge, spec.Edges[i-1])
		}
		k := (edge - stats.Mean) / stats.StdDev
		assert.InDelta(t, math.Round(k), k, 1e-9, "edge %d not on a stddev boundary", i)
	}

	// The intervals containing min and max must exist.
	assert.Less(t, spec.Edges[0], -4.2)
	assert.Greater(t, spec.Edges[len(spec.Edges)-1], 6.8)

	counts := spec.Counts(values)
	total := 0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, len(values), total, "every value must land in a bin")
}

func TestStdDevBinsZeroVariance(t *testing.T) {
	_, err := StdDevBins([]float64{1, 1, 1, 1})
	assert.ErrorIs(t, err, ErrDegenerateDistribution)

	_, err = StdDevBins([]float64{3.3})
	assert.ErrorIs(t, err, ErrDegenerateDistribution)
}

func TestStdDevBinsEmpty(t *testing.T) {
	_, err := StdDevBins(nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestCounts(t *testing.T) {
	spec := BinSpec{Edges: []float64{0, 1, 2, 3}}

	tests := []struct {
		name   string
		values []float64
		want   []int
	}{
		{
			name:   "interior values",
			values: []float64{0.5, 1.5, 1.9, 2.5},
			want:   []int{1, 2, 1},
		},
		{
			name:   "left edges are inclusive",
			values: []float64{0, 1, 2},
			want:   []int{1, 1, 1},
		},
		{
			name:   "maximum lands in final bin",
			values: []float64{3},
			want:   []int{0, 0, 1},
		},
		{
			name:   "out of range ignored",
			values: []float64{-1, 4},
			want:   []int{0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, spec.Counts(tt.values))
		})
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("sqrt")
	require.NoError(t, err)
	assert.Equal(t, PolicySqrt, p)

	p, err = ParsePolicy("stddev")
	require.NoError(t, err)
	assert.Equal(t, PolicyStdDev, p)

	_, err = ParsePolicy("freedman")
	assert.Error(t, err)
}

func TestBinsDispatch(t *testing.T) {
	values := seriesOfLength(252)

	spec, err := Bins(PolicySqrt, values)
	require.NoError(t, err)
	assert.Equal(t, PolicySqrt, spec.Policy)

	spec, err = Bins(PolicyStdDev, values)
	require.NoError(t, err)
	assert.Equal(t, PolicyStdDev, spec.Policy)
}
