package volatility

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanSchemaMismatch(t *testing.T) {
	tests := []struct {
		name string
		raw  RawTable
	}{
		{
			name: "empty table missing everything",
			raw:  RawTable{},
		},
		{
			name: "close column absent",
			raw: RawTable{
				{ColPrevClose: 100.0, ColHigh: 105.0, ColLow: 99.0},
			},
		},
		{
			name: "unrelated columns only",
			raw: RawTable{
				{"CH_SYMBOL": "SBIN", "CH_SERIES": "EQ"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Clean(tt.raw, RequiredColumns)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSchemaMismatch)
		})
	}
}

func TestCleanDropsBadPreviousClose(t *testing.T) {
	raw := RawTable{
		{ColClose: 100.0, ColPrevClose: 98.0, ColHigh: 101.0, ColLow: 97.0},
		{ColClose: 100.0, ColPrevClose: 0.0, ColHigh: 101.0, ColLow: 97.0},
		{ColClose: 100.0, ColPrevClose: -5.0, ColHigh: 101.0, ColLow: 97.0},
		{ColClose: 100.0, ColPrevClose: "not a number", ColHigh: 101.0, ColLow: 97.0},
		{ColClose: 100.0, ColHigh: 101.0, ColLow: 97.0, ColPrevClose: nil},
		{ColClose: "102.5", ColPrevClose: "1,000.50", ColHigh: "103", ColLow: "99"},
	}

	cleaned, err := Clean(raw, RequiredColumns)
	require.NoError(t, err)
	assert.Equal(t, 2, cleaned.Len())

	prev, ok := cleaned.Column(ColPrevClose)
	require.True(t, ok)
	for i, v := range prev {
		assert.Greater(t, v, 0.0, "row %d previous close must be strictly positive", i)
	}
	assert.Equal(t, 1000.50, prev[1], "comma-separated price should coerce")
}

func TestCleanInvariantRandomTables(t *testing.T) {
	// Deterministic pseudo-random tables; the invariant must hold for all
	// of them: every surviving row has previous close > 0.
	seed := uint64(1)
	next := func() float64 {
		seed = seed*6364136223846793005 + 1442695040888963407
		return float64(seed%20000)/100.0 - 50.0 // [-50, 150)
	}

	for run := 0; run < 20; run++ {
		var raw RawTable
		for i := 0; i < 50; i++ {
			row := RawRecord{
				ColClose: next(),
				ColHigh:  next(),
				ColLow:   next(),
			}
			switch i % 4 {
			case 0:
				row[ColPrevClose] = next()
			case 1:
				row[ColPrevClose] = fmt.Sprintf("%.2f", next())
			case 2:
				row[ColPrevClose] = "n/a"
			default:
				// column present in the table, value missing in this row
			}
			raw = append(raw, row)
		}

		cleaned, err := Clean(raw, RequiredColumns)
		if err != nil {
			assert.ErrorIs(t, err, ErrNoData)
			continue
		}
		prev, ok := cleaned.Column(ColPrevClose)
		require.True(t, ok)
		for _, v := range prev {
			assert.False(t, math.IsNaN(v))
			assert.Greater(t, v, 0.0)
		}
	}
}

func TestCleanNosurvivorsIsNoData(t *testing.T) {
	raw := RawTable{
		{ColClose: 100.0, ColPrevClose: 0.0, ColHigh: 101.0, ColLow: 97.0},
		{ColClose: 100.0, ColPrevClose: "bad", ColHigh: 101.0, ColLow: 97.0},
	}
	_, err := Clean(raw, RequiredColumns)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestCleanDoesNotMutateInput(t *testing.T) {
	raw := RawTable{
		{ColClose: "100", ColPrevClose: "99", ColHigh: "101", ColLow: "98"},
	}
	_, err := Clean(raw, RequiredColumns)
	require.NoError(t, err)
	assert.Equal(t, "100", raw[0][ColClose])
	assert.Equal(t, "99", raw[0][ColPrevClose])
}

func TestCoerceFloat(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
		nan   bool
	}{
		{name: "float", input: 123.45, want: 123.45},
		{name: "int", input: 42, want: 42},
		{name: "numeric string", input: "98.6", want: 98.6},
		{name: "padded string", input: "  77.1 ", want: 77.1},
		{name: "comma separated", input: "12,345.67", want: 12345.67},
		{name: "empty string", input: "", nan: true},
		{name: "text", input: "suspended", nan: true},
		{name: "nil", input: nil, nan: true},
		{name: "bool", input: true, nan: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := coerceFloat(tt.input)
			if tt.nan {
				assert.True(t, math.IsNaN(got))
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
